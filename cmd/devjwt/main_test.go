package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/platform/auth/jwtverifier"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/config"
)

func TestMintJWT_HS256VerifiesWithAPIVerifier(t *testing.T) {
	t.Parallel()

	secret := []byte("local-secret")
	now := time.Now().UTC()
	tok, err := mintJWT(hs256Signer{secret: secret}, "ignored", "http://devjwt:5556", "travel-log-api", "dev|alice", now, time.Minute)
	if err != nil {
		t.Fatalf("mintJWT: %v", err)
	}

	v := jwtverifier.New(config.JWTConfig{
		Algorithm: config.AlgHS256,
		Secret:    secret,
		Issuer:    "http://devjwt:5556",
		Audience:  "travel-log-api",
		ClockSkew: 30 * time.Second,
	})
	sub, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "dev|alice" {
		t.Fatalf("sub=%q", sub)
	}
}

func TestMintJWT_RS256VerifiesAgainstPublishedJWKS(t *testing.T) {
	t.Parallel()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	jwksJSON, err := marshalJWKS(priv.PublicKey, "kid-x")
	if err != nil {
		t.Fatalf("marshalJWKS: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksJSON)
	}))
	t.Cleanup(srv.Close)

	now := time.Now().UTC()
	tok, err := mintJWT(rs256Signer{priv: priv, kid: "kid-x"}, "kid-x", "iss", "aud", "dev|bob", now, time.Minute)
	if err != nil {
		t.Fatalf("mintJWT: %v", err)
	}

	v := jwtverifier.New(config.JWTConfig{
		Algorithm:   config.AlgRS256,
		Issuer:      "iss",
		Audience:    "aud",
		JWKSURL:     srv.URL,
		ClockSkew:   30 * time.Second,
		HTTPTimeout: 2 * time.Second,
	})
	sub, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "dev|bob" {
		t.Fatalf("sub=%q", sub)
	}
}
