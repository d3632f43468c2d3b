package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// Server is the preview server for watch mode. It serves the output
// directory, exposes a /livereload websocket that pushes a reload message
// after every completed build, and optionally mounts a metrics handler.
type Server struct {
	cfg     *config.Config
	bus     *Bus
	log     *slog.Logger
	metrics http.Handler

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer constructs a preview server. metricsHandler may be nil.
func NewServer(cfg *config.Config, bus *Bus, log *slog.Logger, metricsHandler http.Handler) *Server {
	return &Server{
		cfg:     cfg,
		bus:     bus,
		log:     log,
		metrics: metricsHandler,
		clients: map[*websocket.Conn]bool{},
	}
}

type reloadMessage struct {
	Type string   `json:"type"`
	URLs []string `json:"urls,omitempty"`
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.OutputRoot())))
	mux.Handle("/livereload", websocket.Handler(s.handleSocket))
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done, unsubscribe := Subscribe[BuildCompleted](s.bus, 16)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-done:
				if !ok {
					return
				}
				s.broadcast(evt)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("preview server listening", slog.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.clients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Hold the connection open; clients never send anything meaningful.
	var discard string
	for {
		if err := websocket.Message.Receive(ws, &discard); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(evt BuildCompleted) {
	msg, err := json.Marshal(reloadMessage{Type: "reload", URLs: evt.Result.ChangedURLs})
	if err != nil {
		return
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := websocket.Message.Send(c, string(msg)); err != nil {
			s.log.Debug("dropping stale livereload client", slog.Any("error", err))
		}
	}
}
