// Package web exposes the simulation over HTTP: JSON endpoints for the
// current readings and operator commands, and a websocket stream that pushes
// every snapshot as it is produced.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/kinetics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	router  *gin.Engine
	updater *sim.Updater
	ledger  *economics.Ledger
	hub     *Hub
	logger  *slog.Logger
	cancel  func()
}

// EditRequest is the body of POST /api/v1/edit.
type EditRequest struct {
	Field string   `json:"field" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
}

// New wires a server to u. ledger may be nil.
func New(u *sim.Updater, ledger *economics.Ledger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  gin.New(),
		updater: u,
		ledger:  ledger,
		hub:     NewHub(logger),
		logger:  logger,
	}
	s.cancel = u.Subscribe(s.hub)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/state", s.getState)
		v1.GET("/kinetics", s.getKinetics)
		v1.GET("/economics", s.getEconomics)
		v1.POST("/edit", s.postEdit)
		v1.POST("/toggle", s.postToggle)
		v1.GET("/ws", s.handleWebSocket)
	}
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	return srv.Shutdown(shutdownCtx)
}

// Close detaches the hub from the updater and drops all clients.
func (s *Server) Close() {
	s.cancel()
	s.hub.Close()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		attrs := []any{"method", c.Request.Method, "path", c.FullPath(), "status", status, "elapsed", time.Since(start)}
		if status >= http.StatusBadRequest {
			s.logger.Warn("request failed", append(attrs, "errors", c.Errors.String())...)
			return
		}
		s.logger.Debug("request", attrs...)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": s.updater.Running(),
		"ticks":   s.updater.Ticks(),
		"clients": s.hub.Clients(),
		"dropped": s.hub.Dropped(),
	})
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.updater.Snapshot())
}

func (s *Server) getKinetics(c *gin.Context) {
	st := s.updater.State()
	c.JSON(http.StatusOK, gin.H{
		"rate":     kinetics.Rate(st.Dosage),
		"halfLife": halfLife(st.Dosage),
		"points":   kinetics.Curve(st.PollutantLoad, st.Dosage),
	})
}

// halfLife is nil for a zero rate; JSON has no infinity.
func halfLife(dosage float64) *float64 {
	h := kinetics.HalfLife(dosage)
	if math.IsInf(h, 1) {
		return nil
	}
	return &h
}

func (s *Server) getEconomics(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusOK, economics.Evaluate(s.updater.State(), economics.ConventionalCost))
		return
	}
	c.JSON(http.StatusOK, s.ledger.Summary())
}

func (s *Server) postEdit(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := s.applyEdit(req.Field, *req.Value)
	if err != nil {
		c.Error(err)
		status := http.StatusBadRequest
		if errors.Is(err, process.ErrReadOnlyField) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) postToggle(c *gin.Context) {
	c.JSON(http.StatusOK, s.updater.ToggleAutoDosing())
}

func (s *Server) applyEdit(field string, value float64) (sim.Snapshot, error) {
	f, err := process.ParseField(field)
	if err != nil {
		return sim.Snapshot{}, err
	}
	return s.updater.ApplyUserEdit(f, value)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	cl := s.hub.add(conn)
	snap := s.updater.Snapshot()
	cl.queue(Message{Type: "snapshot", Snapshot: &snap})

	go s.hub.writePump(cl)
	go s.readPump(cl)
}

func (s *Server) readPump(cl *client) {
	defer s.hub.remove(cl)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(cl, data)
	}
}

func (s *Server) handleMessage(cl *client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		cl.queue(Message{Type: "error", Error: "malformed message"})
		return
	}

	switch msg.Type {
	case "edit":
		if msg.Value == nil {
			cl.queue(Message{Type: "error", Error: "edit requires a value"})
			return
		}
		if _, err := s.applyEdit(msg.Field, *msg.Value); err != nil {
			cl.queue(Message{Type: "error", Error: err.Error()})
		}
	case "toggle":
		s.updater.ToggleAutoDosing()
	case "ping":
		cl.queue(Message{Type: "pong"})
	default:
		cl.queue(Message{Type: "error", Error: "unknown message type " + msg.Type})
	}
}
