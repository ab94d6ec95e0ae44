package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/stash/internal/config"
	"github.com/hpungsan/stash/internal/errors"
	"github.com/hpungsan/stash/internal/store"
)

// NewHandler builds the HTTP API handler. Every route is also reachable
// under an /api prefix so clients behind path-rewriting proxies work
// unchanged.
func NewHandler(st *store.Store, cfg *config.Config) http.Handler {
	h := &Handlers{st: st, cfg: cfg}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax, registered once per prefix.
	for _, prefix := range []string{"", "/api"} {
		mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
		mux.HandleFunc("GET "+prefix+"/sync", h.auth(h.HandleList))
		mux.HandleFunc("GET "+prefix+"/sync/{project}", h.auth(h.HandleGet))
		mux.HandleFunc("POST "+prefix+"/sync/{project}", h.auth(h.HandleSync))
		mux.HandleFunc("DELETE "+prefix+"/sync/{project}", h.auth(h.HandleDelete))
		mux.HandleFunc("GET "+prefix+"/sync/{project}/history", h.auth(h.HandleHistory))
	}

	// Everything else is a JSON 404, not the default text page.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		renderError(w, errors.NewRouteNotFound(r.Method, r.URL.Path))
	})

	return corsMiddleware(mux)
}

// corsMiddleware adds permissive CORS headers to every response and
// short-circuits preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// auth wraps a handler with shared-secret authentication. The key may
// arrive as a bearer token or as a ?key= query parameter. A server with
// no key configured refuses authenticated routes outright rather than
// running open.
func (h *Handlers) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.APIKey == "" {
			renderError(w, errors.NewConfiguration("api_key is not configured"))
			return
		}

		presented := r.URL.Query().Get("key")
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			presented = strings.TrimPrefix(auth, "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.cfg.APIKey)) != 1 {
			renderError(w, errors.NewAuthentication())
			return
		}
		next(w, r)
	}
}

// NewServer creates the HTTP server for the stash API.
func NewServer(st *store.Store, cfg *config.Config, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(st, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Stash API listening at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
