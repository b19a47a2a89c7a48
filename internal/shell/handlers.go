package shell

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	svcerrors "github.com/R3E-Network/miniapp_admin/internal/errors"
	"github.com/R3E-Network/miniapp_admin/internal/httputil"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
	"github.com/R3E-Network/miniapp_admin/internal/metrics"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Verifier bool   `json:"verifier"`
	Host     bool   `json:"host"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Service:  s.cfg.Service,
		Verifier: s.verifier != nil,
		Host:     s.host != nil,
	})
}

// RouteInfo describes one page route in GET /api/routes.
type RouteInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Component string   `json:"component"`
	Methods   []string `json:"methods"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.table.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, route := range routes {
		out = append(out, RouteInfo{
			Name:      route.Name,
			Path:      route.Path,
			Component: route.Component.Name(),
			Methods:   route.Methods,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// VerifyRequest is the body of POST /api/session/verify.
type VerifyRequest struct {
	InitData string `json:"init_data"`
}

// VerifyResponse is returned for an accepted session.
type VerifyResponse struct {
	OK         bool         `json:"ok"`
	UserID     int64        `json:"user_id"`
	User       *webapp.User `json:"user,omitempty"`
	StartParam string       `json:"start_param,omitempty"`
	AuthDate   time.Time    `json:"auth_date"`
	VerifiedAt time.Time    `json:"verified_at"`
	Cached     bool         `json:"cached"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		httputil.WriteError(w, r, svcerrors.Unavailable("session verification is not configured", nil))
		return
	}

	var req VerifyRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.InitData == "" {
		httputil.WriteError(w, r, svcerrors.BadRequest("init_data is required"))
		return
	}

	start := time.Now()
	session, err := s.verifier.Verify(r.Context(), req.InitData)
	elapsed := time.Since(start)
	if err != nil {
		s.writeVerifyError(w, r, err, elapsed)
		return
	}

	result := "verified"
	if session.Cached {
		result = "cached"
	}
	metrics.RecordVerification(result, elapsed)

	ctx := logging.WithUserID(r.Context(), strconv.FormatInt(session.UserID, 10))
	s.logger.WithContext(ctx).WithField("cached", session.Cached).Info("session verified")

	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		OK:         true,
		UserID:     session.UserID,
		User:       session.InitData.User,
		StartParam: session.InitData.StartParam,
		AuthDate:   session.InitData.AuthTime(),
		VerifiedAt: session.VerifiedAt,
		Cached:     session.Cached,
	})
}

func (s *Server) writeVerifyError(w http.ResponseWriter, r *http.Request, err error, elapsed time.Duration) {
	switch {
	case errors.Is(err, webapp.ErrRejected):
		metrics.RecordVerification("rejected", elapsed)
		s.logger.LogSecurityEvent(r.Context(), "session_rejected", map[string]interface{}{
			"error": err.Error(),
		})
		httputil.WriteError(w, r, svcerrors.Unauthorized("init data rejected"))
	case errors.Is(err, webapp.ErrVerifierUnavailable):
		metrics.RecordVerification("error", elapsed)
		s.logger.WithContext(r.Context()).WithError(err).Error("session verifier unavailable")
		httputil.WriteError(w, r, svcerrors.Unavailable("session verifier unavailable", err))
	default:
		// Anything else is a payload that failed to parse before it left the process.
		metrics.RecordVerification("rejected", elapsed)
		httputil.WriteError(w, r, svcerrors.InvalidFormat("init_data", err).WithDetails("reason", err.Error()))
	}
}

// HostState is the body of GET /api/host.
type HostState struct {
	ColorScheme webapp.ColorScheme `json:"color_scheme"`
	Theme       webapp.ThemeParams `json:"theme"`
	Viewport    webapp.Viewport    `json:"viewport"`
	MainButton  webapp.ButtonState `json:"main_button"`
}

func (s *Server) handleHostState(w http.ResponseWriter, r *http.Request) {
	if s.host == nil {
		httputil.WriteError(w, r, svcerrors.NotFound("host"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HostState{
		ColorScheme: s.host.ColorScheme(),
		Theme:       s.host.ThemeParams(),
		Viewport:    s.host.Viewport(),
		MainButton:  s.host.MainButton().State(),
	})
}
