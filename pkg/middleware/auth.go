package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goattech/giftflow/pkg/common"
)

const (
	// UserIDKey is the gin context key holding the authenticated user id
	UserIDKey = "user_id"
)

// AuthMiddleware validates a Bearer JWT signed with the shared secret and
// stores the subject user id in the gin context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.ErrorResponse(c, http.StatusUnauthorized, "missing or malformed authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid token claims")
			c.Abort()
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid subject claim")
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID extracts the authenticated user id from the gin context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user id not found in context")
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("user id has unexpected type")
	}
	return userID, nil
}
