// Package api serves the read-only HTTP surface over the query facade and
// the leaderboard cache: wallet/collection lookups, username resolution,
// and the ranked leaderboard snapshot.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/afterlife-xyz/afterlife/service/leaderboard"
	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/query"
)

const bindHost = "127.0.0.1"

// Server wraps the gin engine with the CORS policy the HTTP surface
// promises, ready to be handed to http.Server.
type Server struct {
	addr    string
	handler http.Handler
}

func NewServer(port int, facade *query.Facade, cache *leaderboard.Cache) *Server {
	router := gin.Default()
	router.Use(cacheControl(), errLogger())
	registerRoutes(router, facade, cache)

	return &Server{
		addr:    net.JoinHostPort(bindHost, strconv.Itoa(port)),
		handler: corsHandler(router),
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.handler}

	errCh := make(chan error, 1)
	go func() {
		logger.For(ctx).Infof("api: listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
