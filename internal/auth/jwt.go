package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// Issue signs a bearer token embedding the user id as subject. Tokens carry
// no expiry claim: tokens already in circulation were issued without one and
// must keep verifying.
func Issue(userID, issuer, secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse validates a token and returns the embedded user id.
func Parse(tokenStr, secret, issuer string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errInvalidToken
	}
	if issuer != "" && claims.Issuer != issuer {
		return "", errors.New("issuer mismatch")
	}
	if claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}
