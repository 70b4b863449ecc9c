package main

import (
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Overland-East-Bay/travel-log-api/internal/platform/logging"
)

// Tiny dev-only JWT issuer.
//
// This is NOT an identity provider. It mints tokens the API accepts locally:
// HS256 when JWT_SECRET is set (same secret as the API), otherwise RS256 with a
// throwaway key published at /.well-known/jwks.json.

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type signer interface {
	alg() string
	sign(signingInput string) ([]byte, error)
}

type hs256Signer struct{ secret []byte }

func (hs256Signer) alg() string { return "HS256" }
func (s hs256Signer) sign(in string) ([]byte, error) {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(in))
	return mac.Sum(nil), nil
}

type rs256Signer struct {
	priv *rsa.PrivateKey
	kid  string
}

func (rs256Signer) alg() string { return "RS256" }
func (s rs256Signer) sign(in string) ([]byte, error) {
	sum := sha256.Sum256([]byte(in))
	return rsa.SignPKCS1v15(rand.Reader, s.priv, crypto.SHA256, sum[:])
}

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(os.Stderr, getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "text"))
	if err != nil {
		logger = logging.Discard()
	}

	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "travel-log-api")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration("TTL", 30*time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var sg signer
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		sg = hs256Signer{secret: []byte(secret)}
	} else {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			logger.Fatal("generate key", "err", err)
		}
		jwksJSON, err := marshalJWKS(priv.PublicKey, kid)
		if err != nil {
			logger.Fatal("marshal jwks", "err", err)
		}
		sg = rs256Signer{priv: priv, kid: kid}

		// Common JWKS path used by many providers.
		r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(jwksJSON)
		})
	}

	// Mint a JWT:
	//   GET /token?sub=dev|alice
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		token, err := mintJWT(sg, kid, issuer, audience, sub, now, ttl)
		if err != nil {
			logger.Error("mint token", "err", err)
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
			"alg":   sg.alg(),
			"sub":   sub,
			"iss":   issuer,
			"aud":   audience,
			"exp":   now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("devjwt listening", "port", port, "alg", sg.alg(), "iss", issuer, "aud", audience, "ttl", ttl)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("listen", "err", err)
	}
}

func marshalJWKS(pub rsa.PublicKey, kid string) ([]byte, error) {
	enc := base64.RawURLEncoding
	n := enc.EncodeToString(pub.N.Bytes())
	e := big.NewInt(int64(pub.E)).Bytes() // big-endian unsigned
	eStr := enc.EncodeToString(e)
	set := jwks{
		Keys: []jwk{{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kid,
			N:   n,
			E:   eStr,
		}},
	}
	return json.Marshal(set)
}

func mintJWT(sg signer, kid, iss, aud, sub string, now time.Time, ttl time.Duration) (string, error) {
	header := map[string]any{
		"alg": sg.alg(),
		"typ": "JWT",
	}
	if _, ok := sg.(rs256Signer); ok {
		header["kid"] = kid
	}
	claims := map[string]any{
		"iss": iss,
		"aud": aud,
		"sub": sub,
		"exp": now.Add(ttl).Unix(),
		"nbf": now.Add(-5 * time.Second).Unix(), // small skew tolerance for local use
	}

	hb, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	cb, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	signingInput := enc.EncodeToString(hb) + "." + enc.EncodeToString(cb)
	sig, err := sg.sign(signingInput)
	if err != nil {
		return "", err
	}
	return signingInput + "." + enc.EncodeToString(sig), nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
