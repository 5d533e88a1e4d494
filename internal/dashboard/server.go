// Package dashboard serves the JSON API the web dashboard and external
// tools consume: round and cycle CRUD, aggregate statistics, and CSV export.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feralforge/matchpractice/internal/store"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB   *gorm.DB
	Port int
	// Loc is the timezone used for daily grouping and export formatting.
	Loc *time.Location
	Log *zap.Logger
	Out io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Loc == nil {
		opts.Loc = time.Local
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	router := NewRouter(store.New(opts.DB), opts.Loc, opts.Log)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the Gin engine with all API routes registered. Split out
// from Start so tests can drive it with httptest.
func NewRouter(st *store.Store, loc *time.Location, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, &handlers{store: st, loc: loc, log: log})
	return router
}
