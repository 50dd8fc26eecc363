package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/jobnest/jobnest_backend/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and runs its read loop. The token
// rides on the same session credential as HTTP, passed via the Authorization
// header or a token query parameter. Unauthenticated connections are allowed
// and receive broadcasts only.
func HandleWebSocket(c echo.Context, hub *Hub) error {
	userID := ""
	if token := extractToken(c); token != "" {
		claims, err := middleware.ValidateToken(token)
		if err != nil {
			log.Printf("WebSocket token rejected: %v", err)
		} else {
			userID = claims.UserID
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, userID)
	hub.Register(client)

	// A reconnect does not preserve prior memberships; the client's own group
	// is the only one re-established server-side.
	if client.Authenticated {
		hub.JoinGroup(client, client.UserID)
	}

	welcome := map[string]interface{}{"connectionId": client.ID}
	if !client.Authenticated {
		welcome["requiresAuth"] = true
	}
	if err := client.send(Envelope{Event: EventConnected, Payload: welcome}); err != nil {
		log.Printf("Error sending welcome to connection %s: %v", client.ID, err)
	}

	go func() {
		defer hub.Unregister(client)

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var msg ClientMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Printf("Ignoring malformed message on connection %s: %v", client.ID, err)
				continue
			}

			switch strings.ToLower(msg.Action) {
			case "join":
				hub.JoinGroup(client, msg.UserID)
			case "leave":
				hub.LeaveGroup(client, msg.UserID)
			}
		}
	}()

	return nil
}

func extractToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
