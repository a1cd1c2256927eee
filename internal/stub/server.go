// Package stub serves the two legacy stub endpoints: an echo query route and
// a route that writes the raw request body to disk. They act as a test
// double for the real ingest and query service.
package stub

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Config configures the stub server.
type Config struct {
	UploadDir string
	// Now is used to name stored uploads; defaults to time.Now.
	Now func() time.Time
}

// Server is the Fiber app behind the stub routes.
type Server struct {
	app       *fiber.App
	uploadDir string
	now       func() time.Time
	log       *zap.Logger
}

// New builds the stub app and registers its routes.
func New(cfg Config, log *zap.Logger) *Server {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		BodyLimit:             50 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	s := &Server{app: app, uploadDir: cfg.UploadDir, now: cfg.Now, log: log.Named("stub")}

	api := app.Group("/api")
	api.All("/query", postOnly, s.handleQuery)
	api.All("/upload", postOnly, s.handleUpload)
	return s
}

// App exposes the Fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("stub listening", zap.String("addr", addr), zap.String("upload_dir", s.uploadDir))
	return s.app.Listen(addr)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error { return s.app.Listener(ln) }

// Shutdown stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func postOnly(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return c.Status(fiber.StatusMethodNotAllowed).SendString(fmt.Sprintf("Method %s Not Allowed", c.Method()))
	}
	return c.Next()
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.BodyParser(&body); err != nil || body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Query is required"})
	}
	s.log.Debug("echo query", zap.String("query", body.Query))
	return c.JSON(fiber.Map{"response": "You asked: " + body.Query})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	name := fmt.Sprintf("uploaded_%d.pdf", s.now().UnixMilli())
	path := filepath.Join(s.uploadDir, name)
	if err := s.store(path, c.Body()); err != nil {
		s.log.Error("store upload", zap.String("path", path), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error uploading file",
			"error":   err.Error(),
		})
	}
	s.log.Info("upload stored", zap.String("path", path), zap.Int("bytes", len(c.Body())))
	return c.JSON(fiber.Map{"message": "File uploaded successfully", "fileName": name})
}

func (s *Server) store(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}
