// Package httpapi is a REST transport over the route table, the chain
// resolver, and a LinkService.
//
//	GET    /routes/:entity            routes registered for an entity type
//	GET    /api/*path                 list chain -> links; item chain -> the link
//	POST   /api/{type}/{id}/{route}/{id}   create the link (body = metadata)
//	PUT    /api/{type}/{id}/{route}/{id}   replace its metadata
//	DELETE /api/{type}/{id}/{route}/{id}   delete it
//	DELETE /entities/:type/:id        delete every link touching an entity
//
// Every request names its tenant in the X-Tenant-ID header.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/routes"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// TenantHeader carries the caller's tenant UUID.
const TenantHeader = "X-Tenant-ID"

// Options configures a Server. Registry and Store are required.
type Options struct {
	Registry *routes.Registry
	Store    types.LinkService
	Links    types.LinksConfig

	// Resolver caches resolved chains. Nil resolves every request.
	Resolver *chain.CachedResolver
	Logger   *zap.Logger
}

// Server routes HTTP requests to the link engine.
type Server struct {
	router   *gin.Engine
	registry *routes.Registry
	store    types.LinkService
	links    atomic.Pointer[types.LinksConfig]
	resolver *chain.CachedResolver
	log      *zap.Logger
}

// NewServer builds the gin engine and registers the routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Registry == nil || opts.Store == nil {
		return nil, errors.New("httpapi: registry and store are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		registry: opts.Registry,
		store:    opts.Store,
		resolver: opts.Resolver,
		log:      log,
	}
	links := opts.Links
	s.links.Store(&links)

	router.Use(s.requestLogger())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/routes/:entity", s.listRoutes)

	api := s.router.Group("/api", requireTenant())
	api.GET("/*path", s.getPath)
	api.POST("/*path", s.createLink)
	api.PUT("/*path", s.updateLink)
	api.DELETE("/*path", s.deleteLink)

	s.router.DELETE("/entities/:type/:id", requireTenant(), s.deleteEntity)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reload swaps in a new links configuration and its route table. In-flight
// requests keep the table they started with.
func (s *Server) Reload(cfg types.LinksConfig) {
	s.links.Store(&cfg)
	s.registry.Reload(cfg)
	if s.resolver != nil {
		s.resolver.Purge()
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("http server listening", zap.String("addr", addr))
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
