package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

type Claims struct {
	UserID string `json:"userID"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

var (
	jwtKey    []byte
	jwtExpiry = 30 * 24 * time.Hour
)

// InitJWT sets the signing key and token lifetime. It must run before any
// token is generated or validated.
func InitJWT(secret string, expiry time.Duration) {
	jwtKey = []byte(secret)
	if expiry > 0 {
		jwtExpiry = expiry
	}
}

func GenerateJWT(userID, role string) (string, error) {
	if len(jwtKey) == 0 {
		return "", errors.New("jwt key not initialised")
	}
	now := time.Now()

	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(jwtExpiry).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "property_dealer",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtKey, nil
	})

	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) {
			switch {
			case verr.Errors&jwt.ValidationErrorExpired != 0:
				return nil, errors.New("token has expired")
			case verr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}

	return claims, nil
}
