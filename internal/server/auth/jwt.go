package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims: the registered iat/exp plus the
// user's id and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// now is replaced in tests.
var now = time.Now

// GenerateToken signs an HS256 session token for identity. The token
// expires validity after it was issued.
func GenerateToken(identity Identity, secretKey []byte, validity time.Duration) (string, error) {
	issued := now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(validity)),
		},
		UserID: identity.UserID,
		Email:  identity.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the claims.
// Expired tokens yield common.ErrTokenExpired, every other failure
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// IdentityFromToken is ParseToken reduced to the identity it carries.
func IdentityFromToken(tokenString string, secretKey []byte) (Identity, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
