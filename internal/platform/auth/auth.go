// Package auth turns an Authorization header into a verified subject.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
)

// ErrUnauthenticated is the single failure value for every rejected credential.
// The wrapped cause is for server-side logs only.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.SubjectID, error)
}

// BearerToken extracts the token from "Bearer <token>". The scheme is matched
// case-insensitively and surrounding whitespace is ignored.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// VerifyHeader authenticates a raw Authorization header value.
//
// Every failure satisfies errors.Is(err, ErrUnauthenticated).
func VerifyHeader(ctx context.Context, v TokenVerifier, header string) (domain.SubjectID, error) {
	if strings.TrimSpace(header) == "" {
		return "", fmt.Errorf("%w: missing Authorization header", ErrUnauthenticated)
	}
	token, ok := BearerToken(header)
	if !ok {
		return "", fmt.Errorf("%w: malformed Authorization header", ErrUnauthenticated)
	}
	sub, err := v.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if sub == "" {
		return "", fmt.Errorf("%w: empty subject", ErrUnauthenticated)
	}
	return sub, nil
}
