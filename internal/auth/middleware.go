package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth verifies the bearer token and stores the farmer's ID in
// the request context under "user_id" for downstream handlers.
func RequireAuth(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization token"})
			return
		}

		farmerID, err := service.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("user_id", farmerID)
		c.Next()
	}
}

// bearerToken pulls the token from the Authorization header, falling
// back to the token query parameter. Browsers cannot attach headers to
// a websocket upgrade, so the stream endpoint authenticates by query.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token != header {
			return token
		}
		return ""
	}
	return c.Query("token")
}
