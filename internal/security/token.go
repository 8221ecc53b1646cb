package security

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// SessionClaims are the claims carried by session tokens minted by the
// identity provider. The subject is the provider-side user id; the user
// record itself lives in our database keyed by that external id.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenVerifier interface {
	VerifyToken(tokenString string) (*SessionClaims, error)
}

type tokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) TokenVerifier {
	return &tokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (v *tokenVerifier) VerifyToken(tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
