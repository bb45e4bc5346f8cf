package shopapi

import (
	"net/http"

	"github.com/desoftlabs/babyshop/internal/webserver"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Shopper identity is the join frame, not the origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func registerWsRoutes() {
	if hub == nil {
		return
	}
	webserver.Echo().GET("/ws", handleWs)
}

func handleWs(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	hub.HandleConn(conn)
	return nil
}
