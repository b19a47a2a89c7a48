// Package shell assembles the admin shell HTTP application: page routes, the session
// verification API, health and metrics endpoints.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/miniapp_admin/internal/config"
	svcerrors "github.com/R3E-Network/miniapp_admin/internal/errors"
	"github.com/R3E-Network/miniapp_admin/internal/httputil"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
	"github.com/R3E-Network/miniapp_admin/internal/metrics"
	"github.com/R3E-Network/miniapp_admin/internal/middleware"
	"github.com/R3E-Network/miniapp_admin/internal/pages"
	"github.com/R3E-Network/miniapp_admin/internal/router"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
	"github.com/R3E-Network/miniapp_admin/pkg/admin"
)

// Options carries the collaborators the shell does not build itself.
type Options struct {
	Logger *logging.Logger
	// Host is passed to every page render. Nil renders pages outside a mini-app host.
	Host webapp.Host
	// Verifier checks session payloads. Nil makes /api/session/verify answer 503.
	Verifier webapp.Verifier
	Metrics  *metrics.Metrics
}

// Server is the admin shell application.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	host     webapp.Host
	verifier webapp.Verifier
	table    *router.Table
	limiter  *middleware.RateLimiter
	router   *mux.Router
	handler  http.Handler
}

// New builds the shell's routes and middleware.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		host:     opts.Host,
		verifier: opts.Verifier,
		table:    router.NewTable(pages.NewSet(cfg.Theme)),
		limiter:  middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		router:   mux.NewRouter(),
	}

	r := s.router
	r.Use(middleware.MetricsMiddleware(m))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewCORSMiddleware(cfg.Origins()).Handler)
	api.Use(s.limiter.Handler)
	api.HandleFunc("/routes", s.handleRoutes).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/session/verify", s.handleVerify).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/host", s.handleHostState).Methods(http.MethodGet, http.MethodOptions)

	s.table.Mount(r, s.renderPage)

	s.handler = middleware.NewTracingMiddleware(logger).Handler(r)
	return s
}

// Handler returns the root handler including request tracing.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the route multiplexer without the tracing wrapper.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Table returns the page route table.
func (s *Server) Table() *router.Table {
	return s.table
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	s.limiter.StartCleanup(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithContext(ctx).WithField("addr", s.cfg.Addr).Info("admin shell listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// maxFormBody bounds posted page forms.
const maxFormBody = 64 << 10

// renderPage renders a matched route into a buffer so a failed render can still be
// reported as a JSON error. A POST carries the add-product form; it is validated and the
// page re-rendered with the outcome. Nothing is stored.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, m router.Match) {
	status := http.StatusOK
	req := pages.Request{Params: m.Params, Host: s.host}

	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
		if err := r.ParseForm(); err != nil {
			httputil.WriteError(w, r, svcerrors.BadRequest("invalid form body"))
			return
		}
		form, problems := admin.ProductFormFromValues(r.PostForm)
		req.Submission = &pages.Submission{Form: form, Problems: problems}
		entry := s.logger.WithContext(r.Context()).WithField("component", m.Route.Component.Name())
		if problems != nil {
			status = http.StatusUnprocessableEntity
			entry.WithField("problems", len(problems)).Info("product form rejected")
		} else {
			entry.WithField("name", form.Name).Info("product form accepted")
		}
	}

	var buf bytes.Buffer
	if err := m.Route.Component.Render(r.Context(), &buf, req); err != nil {
		s.logger.WithContext(r.Context()).
			WithError(err).
			WithField("component", m.Route.Component.Name()).
			Error("page render failed")
		httputil.WriteError(w, r, svcerrors.Internal("failed to render page", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
}
