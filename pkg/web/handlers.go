package web

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/device"
	"github.com/pixelgrove/qrscan/pkg/hub"
	"github.com/pixelgrove/qrscan/pkg/scanner"
	"github.com/pixelgrove/qrscan/pkg/viewfinder"
)

// handleDevices lists the available video input devices.
func (s *Server) handleDevices(c *fiber.Ctx) error {
	devices, err := device.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(devices)
}

// handleStatus returns the current scanner state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.scanner.Status())
}

// handleGetConfig returns the current scanning configuration.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.manager.GetConfigJSON())
}

// handleSetConfig applies partial config updates, e.g. {"zoom_level": 2.0}
// from the dashboard zoom slider, or {"preset": "thorough"}.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	if err := s.manager.UpdateConfig(params); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	s.PublishStatus()
	return c.JSON(s.manager.GetConfigJSON())
}

// viewfinderResponse is the overlay geometry the dashboard draws over the
// live feed.
type viewfinderResponse struct {
	Region viewfinder.Rect   `json:"region"`
	Shades []viewfinder.Rect `json:"shades,omitempty"`
}

// handleViewfinder returns the scan region and shading rectangles.
func (s *Server) handleViewfinder(c *fiber.Ctx) error {
	region, shades := s.scanner.Viewfinder()
	return c.JSON(viewfinderResponse{Region: region, Shades: shades})
}

// handleDecodeUpload runs the still-image decode path on an uploaded image.
func (s *Server) handleDecodeUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "missing image upload"})
	}

	f, err := header.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "unreadable image"})
	}

	res, err := s.scanner.DecodeImage(img)
	switch {
	case errors.Is(err, scanner.ErrBusy):
		return c.Status(409).JSON(fiber.Map{"error": "live scan in progress"})
	case errors.Is(err, decode.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "no code found"})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(res)
}

// handleScanStart starts the live sampling loop.
func (s *Server) handleScanStart(c *fiber.Ctx) error {
	if err := s.scanner.Start(context.Background()); err != nil {
		if errors.Is(err, scanner.ErrAlreadyRunning) {
			return c.Status(409).JSON(fiber.Map{"error": "scan already running"})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	s.PublishStatus()
	return c.JSON(s.scanner.Status())
}

// handleScanStop stops the live sampling loop.
func (s *Server) handleScanStop(c *fiber.Ctx) error {
	s.scanner.Stop()
	s.PublishStatus()
	return c.JSON(s.scanner.Status())
}

// handleFramesWS streams binary JPEG frames to the live feed viewer.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}

// handleResultsWS streams decode results as JSON.
func (s *Server) handleResultsWS(c *websocket.Conn) {
	hub.NewClient(s.resultHub, c).Run()
}

// handleStatusWS streams scanner state changes.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}
