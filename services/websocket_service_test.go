package services

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketService_Broadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ws := NewWebSocketService()
	ws.Start()
	defer ws.Stop()

	router := gin.New()
	router.GET("/ws", ws.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the hub register the client before broadcasting
	time.Sleep(50 * time.Millisecond)

	ws.BroadcastMessage([]byte(`{"event":"task.created"}`))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"task.created"}`, string(msg))
}

func TestWebSocketService_BroadcastWhenStopped(t *testing.T) {
	ws := NewWebSocketService()

	assert.NotPanics(t, func() {
		ws.BroadcastMessage([]byte("dropped"))
	})
}

func TestWebSocketService_StopTwice(t *testing.T) {
	ws := NewWebSocketService()
	ws.Start()

	assert.NotPanics(t, func() {
		ws.Stop()
		ws.Stop()
	})
}
