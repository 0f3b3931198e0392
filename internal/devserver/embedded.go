package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"tasksync/internal/log"
)

// DefaultAddr is the listen address used by `serve` when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// EmbeddedServer runs a Server and its SQLite store in-process.
type EmbeddedServer struct {
	store   *SQLiteStore
	server  *http.Server
	url     string
	done    chan struct{}
	stopped sync.Once
}

// StartEmbedded opens the database at dbPath and starts serving on addr.
// Use "127.0.0.1:0" for an OS-assigned port.
func StartEmbedded(dbPath, addr string, opts ...Option) (*EmbeddedServer, error) {
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("embedded server: open db: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("embedded server: listen: %w", err)
	}

	srv := &http.Server{
		Handler:           NewServer(store, opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	e := &EmbeddedServer{
		store:  store,
		server: srv,
		url:    "http://" + ln.Addr().String(),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(e.done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorLog.Printf("embedded server stopped: %v", err)
		}
	}()

	log.InfoLog.Printf("tasks service listening on %s (db %s)", e.url, dbPath)
	return e, nil
}

// URL returns the base URL, e.g. "http://127.0.0.1:8080".
func (e *EmbeddedServer) URL() string { return e.url }

// Done is closed once the server has stopped serving.
func (e *EmbeddedServer) Done() <-chan struct{} { return e.done }

// Stop shuts down the HTTP server and closes the database.
// Subsequent calls are no-ops.
func (e *EmbeddedServer) Stop() {
	e.stopped.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			log.WarningLog.Printf("embedded server shutdown: %v", err)
		}
		if err := e.store.Close(); err != nil {
			log.WarningLog.Printf("embedded server close db: %v", err)
		}
	})
}
