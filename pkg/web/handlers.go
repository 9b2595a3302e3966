package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/driveguard/driveguard/pkg/hub"
)

// handleStatus returns the current monitor status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetConversation returns the recent conversation.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleDriverOK lets the dashboard confirm the driver is responsive,
// cancelling an active emergency countdown.
func (s *Server) handleDriverOK(c *fiber.Ctx) error {
	if s.OnDriverOK == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "confirmation not wired",
		})
	}
	cancelled := s.OnDriverOK()
	return c.JSON(fiber.Map{"cancelled": cancelled})
}

// handleStatusWS streams status and conversation updates.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// Send the current status before joining the broadcast stream.
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
