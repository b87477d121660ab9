package services

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketServiceInterface defines the operations of the live task feed.
type WebSocketServiceInterface interface {
	Start()
	Stop()
	BroadcastMessage(message []byte)
	HandleConnection(c *gin.Context)
}

// Client represents a connected dashboard client.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WebSocketService fans broker events out to connected clients. It holds no
// task state of its own; payloads pass through unmodified.
type WebSocketService struct {
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	broadcast    chan []byte
	clientsMutex sync.RWMutex

	upgrader websocket.Upgrader

	isRunning bool
	stopChan  chan struct{}
}

func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		stopChan: make(chan struct{}),
	}
}

// Start launches the hub loop.
func (ws *WebSocketService) Start() {
	if ws.isRunning {
		return
	}
	ws.isRunning = true
	go ws.run()
}

// Stop closes every client connection and halts the hub.
func (ws *WebSocketService) Stop() {
	if !ws.isRunning {
		return
	}
	ws.isRunning = false
	close(ws.stopChan)

	ws.clientsMutex.Lock()
	for _, client := range ws.clients {
		if client != nil && client.Conn != nil {
			client.Conn.Close()
		}
	}
	ws.clients = make(map[string]*Client)
	ws.clientsMutex.Unlock()

	log.Println("WebSocket service stopped")
}

// BroadcastMessage sends a raw payload to all connected clients.
func (ws *WebSocketService) BroadcastMessage(message []byte) {
	if !ws.isRunning {
		return
	}
	select {
	case ws.broadcast <- message:
	default:
		log.Println("Warning: broadcast channel full, discarding message")
	}
}

// HandleConnection upgrades the request and registers the client. The
// caller identity, when present, was attached by the auth middleware.
func (ws *WebSocketService) HandleConnection(c *gin.Context) {
	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	userID, _ := c.Get("userID")
	subject, _ := userID.(string)

	client := &Client{
		ID:     uuid.New().String(),
		UserID: subject,
		Conn:   conn,
		Send:   make(chan []byte, 64),
	}

	ws.register <- client

	go client.writePump()
	go client.readPump(ws)
}

func (ws *WebSocketService) run() {
	for {
		select {
		case <-ws.stopChan:
			return

		case client := <-ws.register:
			ws.clientsMutex.Lock()
			ws.clients[client.ID] = client
			ws.clientsMutex.Unlock()
			log.Printf("Client connected: %s (user: %s)", client.ID, client.UserID)

		case client := <-ws.unregister:
			ws.clientsMutex.Lock()
			if _, ok := ws.clients[client.ID]; ok {
				delete(ws.clients, client.ID)
				close(client.Send)
				log.Printf("Client disconnected: %s", client.ID)
			}
			ws.clientsMutex.Unlock()

		case message := <-ws.broadcast:
			ws.clientsMutex.RLock()
			for _, client := range ws.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer, drop it on the next unregister
				}
			}
			ws.clientsMutex.RUnlock()
		}
	}
}

// readPump drains the connection so close frames are processed.
func (c *Client) readPump(ws *WebSocketService) {
	defer func() {
		ws.unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
