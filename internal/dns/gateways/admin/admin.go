// Package admin exposes record management over HTTP.
package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haukened/ttl-dns/internal/dns/common/clock"
	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// RecordService is the operator contract the API drives.
type RecordService interface {
	AddRecord(name, typeStr string, ttl uint32, data string) error
	GetRecords(name, typeStr string) ([]domain.Record, error)
}

// Options configures the admin API. Clock and Logger default to the real
// clock and a no-op logger.
type Options struct {
	Addr    string
	Service RecordService
	Clock   clock.Clock
	Logger  log.Logger
}

// Server is the admin HTTP API.
type Server struct {
	addr   string
	e      *echo.Echo
	svc    RecordService
	clock  clock.Clock
	logger log.Logger
}

// addRecordRequest is the body of POST /records.
type addRecordRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	TTL  uint32 `json:"ttl"`
	Data string `json:"data"`
}

// recordView is one record as returned by the API. TTL is the remaining TTL.
type recordView struct {
	Name string `json:"name"`
	Type string `json:"type"`
	TTL  uint32 `json:"ttl"`
	Data string `json:"data"`
}

// New builds the admin API and registers its routes. Nothing listens until
// Start is called.
func New(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		addr:   opts.Addr,
		e:      e,
		svc:    opts.Service,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	e.Use(s.logRequests)
	e.POST("/records", s.addRecord)
	e.GET("/records/:name/:type", s.getRecords)
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info(map[string]any{"address": s.addr}, "Admin API started")
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for in-flight requests until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.logger.Debug(map[string]any{
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
			"status": c.Response().Status,
			"remote": c.RealIP(),
		}, "Admin request")
		return err
	}
}

func (s *Server) addRecord(c echo.Context) error {
	var req addRecordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := s.svc.AddRecord(req.Name, req.Type, req.TTL, req.Data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, req)
}

func (s *Server) getRecords(c echo.Context) error {
	records, err := s.svc.GetRecords(c.Param("name"), c.Param("type"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	now := s.clock.Now()
	out := make([]recordView, 0, len(records))
	for _, rr := range records {
		out = append(out, recordView{
			Name: rr.Name,
			Type: rr.Type.String(),
			TTL:  rr.RemainingTTL(now),
			Data: rr.Data.String(),
		})
	}
	return c.JSON(http.StatusOK, out)
}
