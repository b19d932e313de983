// Package server exposes the relay over HTTP: ordinary chat turns,
// direct lead submissions, and rendered audio.
package server

import (
	"context"
	"net/http"
	"time"

	"ibt_connect/internal/dispatch"
	"ibt_connect/internal/identity"
	"ibt_connect/internal/lead"
)

// TurnHandler processes one chat turn. *dispatch.Dispatcher satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, key, message string, voice bool) (dispatch.Result, error)
}

// Server is the HTTP surface of the relay.
type Server struct {
	turns    TurnHandler
	resolver identity.Resolver
	sink     lead.Sink
	audioDir string

	httpServer *http.Server
}

// New builds the server. audioDir is where the speech renderer writes
// its files; it is served read-only under /audio/.
func New(addr string, turns TurnHandler, resolver identity.Resolver, sink lead.Sink, audioDir string) *Server {
	s := &Server{
		turns:    turns,
		resolver: resolver,
		sink:     sink,
		audioDir: audioDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /lead", s.handleLead)
	mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler, exported for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withCORS mirrors the permissive CORS policy of the original relay so
// browser frontends on other origins can talk to it.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
