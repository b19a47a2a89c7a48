package webapp

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryHostConfig configures a MemoryHost.
type MemoryHostConfig struct {
	// InitData is the raw launch payload. Empty means the app was opened without a session.
	InitData    string
	ColorScheme ColorScheme
	Theme       ThemeParams
	// Height is the initial visible height; MaxHeight is what Expand grows to.
	Height    float64
	MaxHeight float64
}

// MemoryHost is an in-process Host. It backs tests and the shell's simulated host mode,
// and lets callers drive host-side changes (theme switches, resizes, button presses).
//
// Handlers run synchronously on the goroutine that triggered the event, after the host
// lock has been released, so a handler may call back into the host.
type MemoryHost struct {
	mu sync.Mutex

	rawInitData string
	initData    InitData
	scheme      ColorScheme
	theme       ThemeParams
	viewport    Viewport
	maxHeight   float64
	button      ButtonState

	readyCalls int
	closed     bool
	sent       []byte

	nextID             uint64
	themeHandlers      map[uint64]ThemeChangedHandler
	viewportHandlers   map[uint64]ViewportChangedHandler
	mainButtonHandlers map[uint64]MainButtonClickedHandler
}

var _ Host = (*MemoryHost)(nil)

// NewMemoryHost creates a host from cfg. A non-empty InitData must parse.
func NewMemoryHost(cfg MemoryHostConfig) (*MemoryHost, error) {
	var data InitData
	if strings.TrimSpace(cfg.InitData) != "" {
		parsed, err := ParseInitData(cfg.InitData)
		if err != nil {
			return nil, err
		}
		data = parsed
	}
	if err := cfg.Theme.Validate(); err != nil {
		return nil, fmt.Errorf("memory host: %w", err)
	}

	scheme := cfg.ColorScheme
	if scheme == "" {
		scheme = ColorSchemeLight
	}
	maxHeight := cfg.MaxHeight
	if maxHeight < cfg.Height {
		maxHeight = cfg.Height
	}

	return &MemoryHost{
		rawInitData: cfg.InitData,
		initData:    data,
		scheme:      scheme,
		theme:       cfg.Theme,
		viewport: Viewport{
			Height:       cfg.Height,
			StableHeight: cfg.Height,
			IsExpanded:   cfg.Height >= maxHeight,
		},
		maxHeight:          maxHeight,
		button:             NewButtonState(cfg.Theme),
		themeHandlers:      make(map[uint64]ThemeChangedHandler),
		viewportHandlers:   make(map[uint64]ViewportChangedHandler),
		mainButtonHandlers: make(map[uint64]MainButtonClickedHandler),
	}, nil
}

func (h *MemoryHost) InitData() string {
	return h.rawInitData
}

func (h *MemoryHost) InitDataUnsafe() InitData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initData
}

func (h *MemoryHost) ColorScheme() ColorScheme {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scheme
}

func (h *MemoryHost) ThemeParams() ThemeParams {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.theme
}

func (h *MemoryHost) Viewport() Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewport
}

func (h *MemoryHost) MainButton() MainButton {
	return memoryButton{h: h}
}

func (h *MemoryHost) Ready() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.readyCalls++
}

func (h *MemoryHost) Expand() {
	h.mu.Lock()
	if h.closed || h.viewport.IsExpanded {
		h.mu.Unlock()
		return
	}
	h.viewport = Viewport{Height: h.maxHeight, StableHeight: h.maxHeight, IsExpanded: true}
	handlers := h.viewportHandlersLocked()
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ViewportChangedEvent{IsStateStable: true})
	}
}

func (h *MemoryHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *MemoryHost) SendData(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.closed:
		return ErrClosed
	case len(data) == 0:
		return ErrEmptyPayload
	case len(data) > MaxSendDataSize:
		return ErrPayloadTooLarge
	}
	h.sent = append([]byte(nil), data...)
	h.closed = true
	return nil
}

func (h *MemoryHost) OnThemeChanged(fn ThemeChangedHandler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.themeHandlers[h.nextID] = fn
	return Subscription{host: h, kind: EventThemeChanged, id: h.nextID}
}

func (h *MemoryHost) OnViewportChanged(fn ViewportChangedHandler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.viewportHandlers[h.nextID] = fn
	return Subscription{host: h, kind: EventViewportChanged, id: h.nextID}
}

func (h *MemoryHost) OnMainButtonClicked(fn MainButtonClickedHandler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.mainButtonHandlers[h.nextID] = fn
	return Subscription{host: h, kind: EventMainButtonClicked, id: h.nextID}
}

func (h *MemoryHost) Off(sub Subscription) {
	if sub.host != any(h) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch sub.kind {
	case EventThemeChanged:
		delete(h.themeHandlers, sub.id)
	case EventViewportChanged:
		delete(h.viewportHandlers, sub.id)
	case EventMainButtonClicked:
		delete(h.mainButtonHandlers, sub.id)
	}
}

// =============================================================================
// Host-side simulation
// =============================================================================

// SetTheme switches the theme and notifies theme handlers.
func (h *MemoryHost) SetTheme(theme ThemeParams, scheme ColorScheme) error {
	if err := theme.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.theme = theme
	h.scheme = scheme
	handlers := make([]ThemeChangedHandler, 0, len(h.themeHandlers))
	for _, fn := range h.themeHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

// Resize reports a new visible height. stable=false models a drag still in progress, which
// leaves StableHeight untouched.
func (h *MemoryHost) Resize(height float64, stable bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if height > h.maxHeight {
		height = h.maxHeight
	}
	h.viewport.Height = height
	if stable {
		h.viewport.StableHeight = height
		h.viewport.IsExpanded = height >= h.maxHeight
	}
	handlers := h.viewportHandlersLocked()
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ViewportChangedEvent{IsStateStable: stable})
	}
}

// ClickMainButton simulates a press. Presses on a hidden or inactive button are dropped.
func (h *MemoryHost) ClickMainButton() bool {
	h.mu.Lock()
	if h.closed || !h.button.IsVisible || !h.button.IsActive {
		h.mu.Unlock()
		return false
	}
	handlers := make([]MainButtonClickedHandler, 0, len(h.mainButtonHandlers))
	for _, fn := range h.mainButtonHandlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return true
}

// ReadyCalls returns how many times Ready was called.
func (h *MemoryHost) ReadyCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readyCalls
}

// Closed reports whether Close or a successful SendData ended the app.
func (h *MemoryHost) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// SentData returns the payload accepted by SendData, or nil.
func (h *MemoryHost) SentData() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.sent...)
}

func (h *MemoryHost) viewportHandlersLocked() []ViewportChangedHandler {
	handlers := make([]ViewportChangedHandler, 0, len(h.viewportHandlers))
	for _, fn := range h.viewportHandlers {
		handlers = append(handlers, fn)
	}
	return handlers
}

// =============================================================================
// Main button
// =============================================================================

type memoryButton struct {
	h *MemoryHost
}

func (b memoryButton) update(fn func(*ButtonState)) {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	if b.h.closed {
		return
	}
	fn(&b.h.button)
}

func (b memoryButton) State() ButtonState {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	return b.h.button
}

func (b memoryButton) SetText(text string) {
	b.SetParams(ButtonParams{Text: &text})
}

func (b memoryButton) OnClick(fn MainButtonClickedHandler) Subscription {
	return b.h.OnMainButtonClicked(fn)
}

func (b memoryButton) Show() {
	b.update(func(s *ButtonState) { s.IsVisible = true })
}

func (b memoryButton) Hide() {
	b.update(func(s *ButtonState) { s.IsVisible = false })
}

func (b memoryButton) Enable() {
	b.update(func(s *ButtonState) { s.IsActive = true })
}

func (b memoryButton) Disable() {
	b.update(func(s *ButtonState) { s.IsActive = false })
}

func (b memoryButton) ShowProgress(leaveActive bool) {
	b.update(func(s *ButtonState) {
		s.IsLoading = true
		s.IsActive = leaveActive
	})
}

func (b memoryButton) HideProgress() {
	b.update(func(s *ButtonState) {
		s.IsLoading = false
		s.IsActive = true
	})
}

func (b memoryButton) SetParams(p ButtonParams) {
	b.update(func(s *ButtonState) { *s = p.Apply(*s) })
}
