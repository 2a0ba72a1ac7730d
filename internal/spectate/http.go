package spectate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"tilewar/pkg/logger"
)

// Handler returns the spectator routes
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/spectate", h)
	return mux
}

// ListenAndServe serves the spectator feed on address until ctx is done
func (h *Hub) ListenAndServe(ctx context.Context, address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start spectator feed: %w", err)
	}
	logger.Spectate.Info("spectator feed on ws://%v/spectate", l.Addr())

	httpServer := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(l)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
