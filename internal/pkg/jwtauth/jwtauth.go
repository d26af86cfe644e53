package jwtauth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/models"
	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    int64  `json:"user_id"` //nolint:tagliatelle
	Username  string `json:"username"`
	Superuser bool   `json:"is_superuser"` //nolint:tagliatelle
	jwt.StandardClaims
}

func GetToken(u models.User, ttl time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:    u.ID,
		Username:  u.Username,
		Superuser: u.Superuser,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return token, nil
}

func ParseToken(token, secret string) (Claims, error) {
	var claims Claims

	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"]) //nolint:goerr113
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !t.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
