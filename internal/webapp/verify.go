package webapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/miniapp_admin/internal/httputil"
)

var (
	// ErrRejected is returned when the trusted backend refuses a payload.
	ErrRejected = errors.New("init data rejected")
	// ErrVerifierUnavailable is returned when the trusted backend cannot be reached or
	// answers with a server error.
	ErrVerifierUnavailable = errors.New("init data verifier unavailable")
)

// Session is a launch payload that a trusted backend has accepted.
type Session struct {
	UserID     int64     `json:"user_id"`
	InitData   InitData  `json:"init_data"`
	VerifiedAt time.Time `json:"verified_at"`
	// Cached is set when the result came from a Cache rather than the backend.
	Cached bool `json:"-"`
}

// Verifier decides whether a raw initData payload is authentic.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Session, error)
}

// ForwardingVerifier sends the raw payload, unmodified, to a trusted backend that holds the
// bot token and performs the signature check. No signature math happens in this process.
type ForwardingVerifier struct {
	client *httputil.ServiceClient
	path   string
	now    func() time.Time
}

// NewForwardingVerifier creates a verifier posting to path on client's base URL.
func NewForwardingVerifier(client *httputil.ServiceClient, path string) *ForwardingVerifier {
	if path == "" {
		path = "/verify"
	}
	return &ForwardingVerifier{client: client, path: path, now: time.Now}
}

type verifyRequest struct {
	InitData string `json:"init_data"`
}

// Verify parses raw for shape, then asks the backend. The backend answers
// {"ok": bool, "user_id": number, "error": string}.
func (v *ForwardingVerifier) Verify(ctx context.Context, raw string) (*Session, error) {
	data, err := ParseInitData(raw)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Post(ctx, v.path, verifyRequest{InitData: raw})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	body, _, err := httputil.ReadAllWithLimit(resp.Body, 64<<10)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrVerifierUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	result := gjson.ParseBytes(body)
	if resp.StatusCode >= http.StatusBadRequest || !result.Get("ok").Bool() {
		reason := result.Get("error").String()
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	session := &Session{
		InitData:   data,
		VerifiedAt: v.now().UTC(),
	}
	if id := result.Get("user_id"); id.Exists() {
		session.UserID = id.Int()
	} else if data.User != nil {
		session.UserID = data.User.ID
	}
	return session, nil
}
