// Package server serves the public storefront and the admin panel.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/partsline/partsline/internal/api"
	"github.com/partsline/partsline/internal/catalog"
	"github.com/partsline/partsline/internal/config"
	"github.com/partsline/partsline/internal/gateway"
	"github.com/partsline/partsline/internal/media"
	"github.com/partsline/partsline/internal/notify"
	"github.com/partsline/partsline/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	adminPrefix = "/admin"
	loginPath   = "/admin/login"
)

// Uploader stores an image on the CDN and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	MaxBytes() int64
}

// Deps are the collaborators a Server is built from
type Deps struct {
	Gateway          *gateway.Gateway
	Cookies          *session.CookieCodec
	Catalog          *catalog.Service
	Uploader         Uploader
	Notifier         notify.Notifier
	ContactRateLimit int
	CORSOrigins      []string
	Logger           zerolog.Logger
	Version          string
}

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	gw       *gateway.Gateway
	public   *api.Public
	cookies  *session.CookieCodec
	catalog  *catalog.Service
	uploader Uploader
	notifier notify.Notifier
	logger   zerolog.Logger
	listen   string
	schedule string
	version  string
}

// New creates a new server instance from configuration
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Every backend call goes through the gateway. The base one holds no token;
	// admin handlers bind it to the request's cookie store.
	gw, err := gateway.New(cfg.Backend.BaseURL, session.None{},
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		gateway.WithLogger(zlog),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Cookie.HashKey == nil {
		zlog.Warn().Msg("COOKIE_HASH_KEY not set - admin sessions will not survive a restart")
	}
	cookies := session.NewCookieCodec(cfg.Cookie.HashKey, cfg.Cookie.BlockKey, cfg.Cookie.Secure)

	var uploader Uploader
	if cfg.CDN.Enabled() {
		u, err := media.NewUploader(cfg.CDN)
		if err != nil {
			return nil, err
		}
		uploader = u
	} else {
		zlog.Info().Msg("CDN not configured - image uploads disabled")
	}

	catalogService := catalog.NewService(api.NewPublic(gw), zlog)

	s := newServer(Deps{
		Gateway:          gw,
		Cookies:          cookies,
		Catalog:          catalogService,
		Uploader:         uploader,
		Notifier:         notify.New(cfg.Notify.SendGridAPIKey, cfg.Notify.FromEmail, zlog),
		ContactRateLimit: cfg.ContactRateLimit,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		Logger:           zlog,
		Version:          version,
	})
	s.listen = cfg.ListenAddr
	s.schedule = cfg.CatalogRefreshSchedule
	return s, nil
}

func newServer(d Deps) *Server {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	s := &Server{
		gw:       d.Gateway,
		public:   api.NewPublic(d.Gateway),
		cookies:  d.Cookies,
		catalog:  d.Catalog,
		uploader: d.Uploader,
		notifier: d.Notifier,
		logger:   d.Logger,
		listen:   ":8080",
		version:  d.Version,
	}
	s.setupRouter(d.ContactRateLimit, d.CORSOrigins)
	return s
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter(contactRateLimit int, corsOrigins []string) {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"),
	))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Storefront
	limitContact := RateLimitMiddleware(contactRateLimit, time.Minute)
	s.router.GET("/", s.home)
	s.router.GET("/products", s.listProducts)
	s.router.GET("/products/:id", s.showProduct)
	s.router.GET("/portfolio", s.portfolio)
	s.router.GET("/contact", s.contactForm)
	s.router.POST("/contact", limitContact, s.submitContactForm)

	publicAPI := s.router.Group("/api")
	if len(corsOrigins) > 0 {
		publicAPI.Use(cors.New(cors.Config{
			AllowOrigins:  corsOrigins,
			AllowMethods:  []string{"POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}
	publicAPI.POST("/contact", limitContact, s.submitContactJSON)

	// Admin panel: every path but the login page needs a stored token
	admin := s.router.Group(adminPrefix)
	admin.Use(RouteGuard(s.cookies, loginPath, s.logger))
	{
		admin.GET("/login", s.loginPage)
		admin.POST("/login", s.login)
		admin.POST("/logout", s.logout)
		admin.GET("", s.overview)

		for _, e := range adminEntities {
			e.register(s, admin.Group("/"+e.Slug()))
		}

		admin.GET("/settings", s.settingsForm)
		admin.POST("/settings", s.saveSettings)

		admin.POST("/api/upload", s.upload)
	}

	s.router.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page not found")
	})
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "partsline-web",
		"version":   s.version,
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	if err := s.catalog.Start(s.schedule); err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.listen).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.catalog.Stop()
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	s.catalog.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
