package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/nexusesi/notifier/utils"
)

// WebSocketAuthMiddleware reads the optional ?token= of a WebSocket
// handshake. A missing token lets the request through anonymously; an
// invalid one is rejected.
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.Next()
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Set(ContextUserID, claims.UserID)

		c.Next()
	}
}
