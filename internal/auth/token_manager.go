package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtTokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTTokenManager creates a new JWT token manager.
func NewJWTTokenManager(secret string) TokenManager {
	return &jwtTokenManager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (j *jwtTokenManager) GenerateToken(filmlyID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": filmlyID,
		"exp":     j.now().Add(24 * time.Hour).Unix(),
		"iat":     j.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *jwtTokenManager) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}

	// JSON numbers decode as float64; the filmly id fits well within the
	// exactly-representable integer range.
	raw, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("token missing numeric user_id claim")
	}
	return int64(raw), nil
}
