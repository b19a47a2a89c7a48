// Package webapp describes the capability object a mini-app host injects into an embedded
// web app: the launch session, theme, viewport, the main action button and host events.
//
// The host owns all of this state. An app reads it and requests changes through the
// operations below; effects are observed later through the event subscriptions, never
// through return values. Applications receive a Host explicitly (see shell.Options) so that
// tests and local development can substitute MemoryHost.
package webapp

import (
	"errors"
	"fmt"
)

// MaxSendDataSize is the largest payload SendData accepts.
const MaxSendDataSize = 4096

var (
	// ErrMissingField is returned when a required session or user field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidColor is returned for a theme color that is not #RRGGBB.
	ErrInvalidColor = errors.New("invalid theme color")
	// ErrEmptyPayload is returned by SendData for an empty payload.
	ErrEmptyPayload = errors.New("send data: empty payload")
	// ErrPayloadTooLarge is returned by SendData for payloads over MaxSendDataSize.
	ErrPayloadTooLarge = fmt.Errorf("send data: payload exceeds %d bytes", MaxSendDataSize)
	// ErrClosed is returned by SendData after the app has been closed.
	ErrClosed = errors.New("web app closed")
)

// EventKind identifies one of the host events an app can subscribe to.
type EventKind int

const (
	EventThemeChanged EventKind = iota + 1
	EventViewportChanged
	EventMainButtonClicked
)

func (k EventKind) String() string {
	switch k {
	case EventThemeChanged:
		return "themeChanged"
	case EventViewportChanged:
		return "viewportChanged"
	case EventMainButtonClicked:
		return "mainButtonClicked"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ViewportChangedEvent is delivered when the visible area changes. IsStateStable is false
// while the user is still dragging or an animation is running.
type ViewportChangedEvent struct {
	IsStateStable bool
}

// ThemeChangedHandler receives no payload; the new theme is read from Host.ThemeParams and
// Host.ColorScheme.
type ThemeChangedHandler func()

// ViewportChangedHandler receives the stability flag; the new height is read from
// Host.Viewport.
type ViewportChangedHandler func(ViewportChangedEvent)

// MainButtonClickedHandler receives no payload.
type MainButtonClickedHandler func()

// Subscription identifies one handler registration. Passing it to Host.Off removes exactly
// that registration; other handlers for the same event stay registered. A subscription
// issued by a different host is ignored.
type Subscription struct {
	host any
	kind EventKind
	id   uint64
}

// Kind returns the event the subscription was registered for.
func (s Subscription) Kind() EventKind {
	return s.kind
}

// Host is the capability object supplied by the host runtime.
type Host interface {
	// InitData returns the raw signed payload, to be forwarded unmodified to a trusted
	// server for verification.
	InitData() string
	// InitDataUnsafe returns the parsed, unverified session fields.
	InitDataUnsafe() InitData
	ColorScheme() ColorScheme
	ThemeParams() ThemeParams
	Viewport() Viewport
	MainButton() MainButton

	// Ready tells the host the app has loaded; the host hides its placeholder. Idempotent.
	Ready()
	// Expand asks for the maximum height. The result arrives as a viewport event.
	Expand()
	// Close terminates the app. No further interaction is possible afterwards.
	Close()
	// SendData sends 1..MaxSendDataSize bytes to the controlling bot and closes the app.
	// A nil error only means the host accepted the payload.
	SendData(data []byte) error

	OnThemeChanged(h ThemeChangedHandler) Subscription
	OnViewportChanged(h ViewportChangedHandler) Subscription
	OnMainButtonClicked(h MainButtonClickedHandler) Subscription
	// Off removes a registration. Unknown or already removed subscriptions are ignored.
	Off(sub Subscription)
}

// MainButton controls the host-rendered action button. Its state is read-only to the app
// and changes only through these mutators.
type MainButton interface {
	State() ButtonState
	SetText(text string)
	// OnClick is an alias for Host.OnMainButtonClicked.
	OnClick(h MainButtonClickedHandler) Subscription
	Show()
	Hide()
	Enable()
	Disable()
	// ShowProgress shows a loading indicator; the button stays enabled only if leaveActive.
	ShowProgress(leaveActive bool)
	// HideProgress removes the loading indicator and re-enables the button.
	HideProgress()
	// SetParams applies a partial update; unspecified fields keep their value.
	SetParams(p ButtonParams)
}
