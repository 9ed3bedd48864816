package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/siddhisinghrathor/Dev-Flow/internal/service"
)

// Handler upgrades GET /ws?token= to a websocket connection. The token is the
// same bearer JWT used on the REST surface; browsers cannot set headers on
// websocket handshakes, hence the query parameter.
func Handler(hub *Hub, authService *service.AuthService, allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowed["*"]; ok {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing token",
			})
			return
		}

		userID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			c.JSON(apiErr.Status, gin.H{
				"success": false,
				"message": apiErr.Message,
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the handshake error response.
			return
		}

		hub.Attach(userID, conn)
	}
}
