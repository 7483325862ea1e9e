package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsContextKey is the gin context key under which verified claims are stored.
const ClaimsContextKey = "authClaims"

// Claims represents the bearer-token claims accepted on the admin API.
// Authorization policy (who may raise alerts for which zones) is decided by
// the issuing system, not here.
type Claims struct {
	// Role is the operator role claimed by the token issuer.
	Role string `json:"role,omitempty"`

	jwt.RegisteredClaims
}

var (
	// errEmptyToken is returned when no token is supplied.
	errEmptyToken = errors.New("empty token")
	// errEmptySecret is returned when verification is attempted without a secret.
	errEmptySecret = errors.New("empty signing secret")
	// errInvalidToken is returned for tokens that fail verification.
	errInvalidToken = errors.New("invalid token")
)

// ParseToken validates an HS256 JWT and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, errEmptyToken
	}

	if len(secret) == 0 {
		return nil, errEmptySecret
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := new(Claims)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, errInvalidToken
	}

	if !token.Valid {
		return nil, errInvalidToken
	}

	return claims, nil
}

// Middleware returns a gin handler that rejects requests without a valid
// bearer token signed with the secret.
func Middleware(secret string) gin.HandlerFunc {
	secretBytes := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})

			return
		}

		claims, err := ParseToken(tokenString, secretBytes)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}
