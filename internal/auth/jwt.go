package auth

import (
	"errors"
	"os"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret   = []byte(getEnv("JWT_SECRET", "development-insecure-secret-change-me"))
	jwtIssuer   = getEnv("JWT_ISSUER", "atlas")
	jwtAudience = getEnv("JWT_AUDIENCE", "atlas-clients")
	tokenTTL    = 24 * time.Hour
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid token issuer")
	ErrInvalidAud    = errors.New("invalid token audience")
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Settings overrides the token parameters read from the environment.
type Settings struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Configure replaces the package token settings. Empty fields keep their
// current value.
func Configure(s Settings) {
	if s.Secret != "" {
		jwtSecret = []byte(s.Secret)
	}
	if s.Issuer != "" {
		jwtIssuer = s.Issuer
	}
	if s.Audience != "" {
		jwtAudience = s.Audience
	}
	if s.TTL > 0 {
		tokenTTL = s.TTL
	}
}

// TokenTTL is the lifetime of newly issued tokens.
func TokenTTL() time.Duration {
	return tokenTTL
}

// Claims represents the JWT claims
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for the given user
func GenerateToken(userID uint, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != jwtIssuer {
		return nil, ErrInvalidIssuer
	}
	// Manually check audience for compatibility with jwt v5 types
	if !slices.Contains(claims.Audience, jwtAudience) {
		return nil, ErrInvalidAud
	}
	return claims, nil
}
