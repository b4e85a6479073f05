package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/careatlas/medtravel/backend/pkg/errors"
)

// JWTVerifier validates HS256 bearer tokens and extracts the subject
// claim as the caller's user id.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return "", apperrors.NewUnauthorizedError("invalid token")
	}
	if claims.Subject == "" {
		return "", apperrors.NewUnauthorizedError("token has no subject")
	}
	return claims.Subject, nil
}

// StaticVerifier maps opaque tokens to user ids. It backs local
// development and tests where issuing real JWTs is overkill.
type StaticVerifier struct {
	tokens map[string]string
}

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", apperrors.NewUnauthorizedError(fmt.Sprintf("unknown token %q", token))
	}
	return userID, nil
}
