package webapp

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// InitData is the session payload the host delivers at launch.
//
// None of these fields are authentic until the raw payload has been checked by a trusted
// server (see Verifier). Authorization decisions must not be made from them directly.
type InitData struct {
	QueryID    string `json:"query_id,omitempty"`
	User       *User  `json:"user,omitempty"`
	Receiver   *User  `json:"receiver,omitempty"`
	StartParam string `json:"start_param,omitempty"`
	// AuthDate is the Unix time at which the app was opened.
	AuthDate int64  `json:"auth_date"`
	Hash     string `json:"hash"`
}

// AuthTime returns AuthDate as a time.Time.
func (d InitData) AuthTime() time.Time {
	return time.Unix(d.AuthDate, 0).UTC()
}

// Validate checks that the required fields are present.
func (d InitData) Validate() error {
	if d.AuthDate <= 0 {
		return fmt.Errorf("%w: auth_date", ErrMissingField)
	}
	if strings.TrimSpace(d.Hash) == "" {
		return fmt.Errorf("%w: hash", ErrMissingField)
	}
	if d.User != nil {
		if err := d.User.Validate(); err != nil {
			return fmt.Errorf("user: %w", err)
		}
	}
	if d.Receiver != nil {
		if err := d.Receiver.Validate(); err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
	}
	return nil
}

// User describes the acting user or the chat partner of a session.
type User struct {
	ID           int64        `json:"id"`
	IsBot        bool         `json:"is_bot,omitempty"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name,omitempty"`
	Username     string       `json:"username,omitempty"`
	LanguageCode LanguageCode `json:"language_code,omitempty"`
	PhotoURL     string       `json:"photo_url,omitempty"`
}

// Validate checks the fields the host always sends for a user.
func (u User) Validate() error {
	if u.ID == 0 {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if u.FirstName == "" {
		return fmt.Errorf("%w: first_name", ErrMissingField)
	}
	return nil
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ColorScheme is the host's current light/dark mode.
type ColorScheme string

const (
	ColorSchemeLight ColorScheme = "light"
	ColorSchemeDark  ColorScheme = "dark"
)

// ThemeParams holds the host's theme colors in #RRGGBB form. An empty field means the host
// did not supply a value and the caller should fall back to its own default.
type ThemeParams struct {
	BgColor         string `json:"bg_color,omitempty" yaml:"bg_color"`
	TextColor       string `json:"text_color,omitempty" yaml:"text_color"`
	HintColor       string `json:"hint_color,omitempty" yaml:"hint_color"`
	LinkColor       string `json:"link_color,omitempty" yaml:"link_color"`
	ButtonColor     string `json:"button_color,omitempty" yaml:"button_color"`
	ButtonTextColor string `json:"button_text_color,omitempty" yaml:"button_text_color"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// WithDefaults returns p with every absent color taken from def.
func (p ThemeParams) WithDefaults(def ThemeParams) ThemeParams {
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return ThemeParams{
		BgColor:         pick(p.BgColor, def.BgColor),
		TextColor:       pick(p.TextColor, def.TextColor),
		HintColor:       pick(p.HintColor, def.HintColor),
		LinkColor:       pick(p.LinkColor, def.LinkColor),
		ButtonColor:     pick(p.ButtonColor, def.ButtonColor),
		ButtonTextColor: pick(p.ButtonTextColor, def.ButtonTextColor),
	}
}

// Validate rejects present colors that are not #RRGGBB.
func (p ThemeParams) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"bg_color", p.BgColor},
		{"text_color", p.TextColor},
		{"hint_color", p.HintColor},
		{"link_color", p.LinkColor},
		{"button_color", p.ButtonColor},
		{"button_text_color", p.ButtonTextColor},
	}
	for _, f := range fields {
		if f.value != "" && !hexColor.MatchString(f.value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidColor, f.name, f.value)
		}
	}
	return nil
}

// Viewport is the host-reported visible area of the app.
type Viewport struct {
	// Height follows gestures and animations in real time.
	Height float64 `json:"viewport_height"`
	// StableHeight only changes once the app has settled at its final size.
	StableHeight float64 `json:"viewport_stable_height"`
	IsExpanded   bool    `json:"is_expanded"`
}

// DefaultButtonText is the main button label before the app sets one.
const DefaultButtonText = "CONTINUE"

// ButtonState is the observable state of the host's main action button.
type ButtonState struct {
	Text      string `json:"text"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
	IsVisible bool   `json:"is_visible"`
	IsActive  bool   `json:"is_active"`
	// IsLoading is controlled by ShowProgress/HideProgress only.
	IsLoading bool `json:"is_loading"`
}

// NewButtonState returns the host's initial button state for theme.
func NewButtonState(theme ThemeParams) ButtonState {
	return ButtonState{
		Text:      DefaultButtonText,
		Color:     theme.ButtonColor,
		TextColor: theme.ButtonTextColor,
		IsActive:  true,
	}
}

// ButtonParams is a partial update of ButtonState. Nil fields are left unchanged.
type ButtonParams struct {
	Text      *string `json:"text,omitempty"`
	Color     *string `json:"color,omitempty"`
	TextColor *string `json:"text_color,omitempty"`
	IsVisible *bool   `json:"is_visible,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// String returns a pointer to s, for building ButtonParams.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building ButtonParams.
func Bool(b bool) *bool { return &b }

// Apply returns s with the non-nil fields of p applied.
func (p ButtonParams) Apply(s ButtonState) ButtonState {
	if p.Text != nil {
		if text := strings.TrimSpace(*p.Text); text != "" {
			s.Text = text
		}
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.TextColor != nil {
		s.TextColor = *p.TextColor
	}
	if p.IsVisible != nil {
		s.IsVisible = *p.IsVisible
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	return s
}
