// Package web provides a real-time dashboard for the drowsiness
// monitor: driver state, emergency countdown, and the live voice
// conversation.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/driveguard/driveguard/internal/log"
	"github.com/driveguard/driveguard/pkg/hub"
)

// Status is the dashboard's view of the monitor.
type Status struct {
	DriverState      string `json:"driver_state"`
	SessionState     string `json:"session_state"`
	SessionActive    bool   `json:"session_active"`
	CountdownActive  bool   `json:"countdown_active"`
	CountdownSeconds int    `json:"countdown_seconds"`
}

// ConversationEntry is one line of the voice conversation.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"` // driver, agent, system
	Message string `json:"message"`
}

// Server is the dashboard HTTP and websocket server.
type Server struct {
	app  *fiber.App
	port string

	state   Status
	stateMu sync.RWMutex

	// Conversation buffer (last 200 entries)
	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	statusHub *hub.Hub

	// OnDriverOK is called when the driver taps the dashboard
	// confirmation button. It should cancel any active countdown.
	OnDriverOK func() bool
}

// NewServer creates the dashboard server on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:         port,
		conversation: make([]ConversationEntry, 0, 200),
		statusHub:    hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "DriveGuard Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/conversation", s.handleGetConversation)
	api.Post("/ok", s.handleDriverOK)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start starts the hub and serves until Shutdown.
func (s *Server) Start() error {
	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)
	go s.statusHub.Run()
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// UpdateStatus applies the mutation and broadcasts the new status to
// all connected dashboards.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddConversation appends a conversation line and broadcasts it.
func (s *Server) AddConversation(role, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Message: message,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > 200 {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()

	s.statusHub.BroadcastJSON(fiber.Map{"conversation": entry})
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
