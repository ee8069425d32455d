// Package web provides the scanner dashboard: REST control surface plus
// websocket fan-out of live frames and decode results.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/pixelgrove/qrscan/internal/log"
	"github.com/pixelgrove/qrscan/pkg/decode"
	"github.com/pixelgrove/qrscan/pkg/hub"
	"github.com/pixelgrove/qrscan/pkg/scanner"
)

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	port string

	scanner *scanner.Scanner
	manager *scanner.Manager

	// Hubs for websocket broadcast
	frameHub  *hub.Hub
	resultHub *hub.Hub
	statusHub *hub.Hub
}

// NewServer creates a dashboard server for the given scanner.
func NewServer(port string, sc *scanner.Scanner, mgr *scanner.Manager) *Server {
	s := &Server{
		port:      port,
		scanner:   sc,
		manager:   mgr,
		frameHub:  hub.New("frames"),
		resultHub: hub.New("results"),
		statusHub: hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "qrscan dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/devices", s.handleDevices)
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)
	api.Get("/viewfinder", s.handleViewfinder)
	api.Post("/decode", s.handleDecodeUpload)
	api.Post("/scan/start", s.handleScanStart)
	api.Post("/scan/stop", s.handleScanStop)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))
	app.Get("/ws/results", websocket.New(s.handleResultsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start starts the dashboard server.
func (s *Server) Start() error {
	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)

	go s.frameHub.Run()
	go s.resultHub.Run()
	go s.statusHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the dashboard server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// PublishFrame sends a JPEG frame to all live-feed viewers.
func (s *Server) PublishFrame(frame []byte) {
	s.frameHub.BroadcastBinary(frame)
}

// resultEvent is the wire form of a decode hit on /ws/results.
type resultEvent struct {
	ScanID string        `json:"scan_id"`
	Result decode.Result `json:"result"`
}

// PublishResult sends a decode result to all result subscribers.
func (s *Server) PublishResult(scanID string, res decode.Result) {
	s.resultHub.BroadcastJSON(resultEvent{ScanID: scanID, Result: res})
}

// PublishStatus broadcasts the current scanner state.
func (s *Server) PublishStatus() {
	s.statusHub.BroadcastJSON(s.scanner.Status())
}

// Shutdown gracefully stops the dashboard server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
