package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/filenest/filenest/realtime"
	"github.com/filenest/filenest/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origins are handled by the CORS layer; the upgrade itself is open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSController upgrades /ws requests into realtime sessions.
type WSController struct{}

// NewWSController creates a WSController.
func NewWSController() *WSController {
	return &WSController{}
}

// Connect upgrades the request and runs the session until it closes.
func (w *WSController) Connect(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		utils.Sugar.Warnf("websocket upgrade failed: %v", err)
		return
	}

	utils.Sugar.Infof("new websocket connection from %s", ctx.ClientIP())
	realtime.NewSession(conn, utils.Sugar).Run()
}
