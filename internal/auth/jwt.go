package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"linkcard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the httpOnly cookie carrying the session JWT for browser clients.
	CookieName = "token"

	// DefaultTokenLifespan is how long issued tokens stay valid.
	DefaultTokenLifespan = 7 * 24 * time.Hour

	claimsKey = "claims"
)

var (
	jwtKey        []byte
	tokenLifespan = DefaultTokenLifespan

	ErrSecretNotConfigured = errors.New("JWT secret key not initialized")
)

// Claims is the payload of a LinkCard session token.
type Claims struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the signing secret and token lifespan. A zero lifespan keeps the default.
func InitializeJWT(secret string, lifespan time.Duration) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	jwtKey = []byte(secret)
	if lifespan > 0 {
		tokenLifespan = lifespan
	} else {
		tokenLifespan = DefaultTokenLifespan
	}
	return nil
}

// TokenLifespan returns the configured validity of issued tokens.
func TokenLifespan() time.Duration {
	return tokenLifespan
}

// GenerateToken issues a signed token for the user.
func GenerateToken(user *models.User) (string, error) {
	if len(jwtKey) == 0 {
		return "", ErrSecretNotConfigured
	}

	now := time.Now()
	claims := &Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifespan)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "linkcard",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a token string.
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtKey) == 0 {
		return nil, ErrSecretNotConfigured
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	return claims, nil
}

// tokenFromRequest prefers the cookie over the Authorization header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware authenticates requests with the session token from the
// "token" cookie or an "Authorization: Bearer" header.
// Missing token: 401. Secret not configured: 500. Verification failure: 403.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if len(jwtKey) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server misconfiguration"})
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by AuthMiddleware.
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// CurrentUserID returns the authenticated user's id as a UUID.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetClaims stores claims in the context the same way AuthMiddleware does.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}
