// Package server is the development HTTP server: it serves the compiled
// destination tree with clean-URL aware lookup and hosts the live-reload
// and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/livereload"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Server serves one destination tree.
type Server struct {
	destRoot string
	port     int
	hub      *livereload.Hub
	metrics  *Metrics

	httpServer *http.Server
}

func New(destRoot string, port int, hub *livereload.Hub, metrics *Metrics) *Server {
	s := &Server{destRoot: destRoot, port: port, hub: hub, metrics: metrics}
	mux := http.NewServeMux()
	if hub != nil {
		mux.Handle(livereload.Endpoint, hub)
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.HandleFunc("GET /", s.serveFile)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start listens and serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return sberrors.Wrap(err, sberrors.CategoryServer, sberrors.SeverityFatal, "listen")
	}
	slog.Info("dev server listening", slog.String("addr", ln.Addr().String()), logfields.Dest(s.destRoot))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case <-ctx.Done():
		if s.hub != nil {
			s.hub.Shutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return sberrors.Wrap(err, sberrors.CategoryServer, sberrors.SeverityFatal, "serve")
	}
}

// serveFile resolves a request path against the destination tree. Clean
// URLs resolve through their directory index; directory requests do too.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	urlPath := path.Clean("/" + r.URL.Path)
	if strings.Contains(urlPath, "..") {
		http.NotFound(w, r)
		return
	}

	target := filepath.Join(s.destRoot, filepath.FromSlash(urlPath))
	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			target = filepath.Join(target, "index.html")
		}
	} else if path.Ext(urlPath) == "" {
		// Clean URL without trailing slash.
		target = filepath.Join(target, "index.html")
	}

	if info, err := os.Stat(target); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, target)
}
