package webapp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T) *MemoryHost {
	t.Helper()
	host, err := NewMemoryHost(MemoryHostConfig{
		InitData: rawInitData(nil),
		Theme: ThemeParams{
			BgColor:         "#ffffff",
			ButtonColor:     "#2481cc",
			ButtonTextColor: "#ffffff",
		},
		Height:    400,
		MaxHeight: 800,
	})
	require.NoError(t, err)
	return host
}

func TestNewMemoryHost(t *testing.T) {
	host := newTestHost(t)

	assert.Equal(t, ColorSchemeLight, host.ColorScheme())
	assert.Equal(t, rawInitData(nil), host.InitData())
	assert.Equal(t, int64(279058397), host.InitDataUnsafe().User.ID)
	assert.Equal(t, Viewport{Height: 400, StableHeight: 400}, host.Viewport())

	state := host.MainButton().State()
	assert.Equal(t, DefaultButtonText, state.Text)
	assert.Equal(t, "#2481cc", state.Color)
	assert.Equal(t, "#ffffff", state.TextColor)
	assert.False(t, state.IsVisible)
	assert.True(t, state.IsActive)
	assert.False(t, state.IsLoading)
}

func TestNewMemoryHost_RejectsBadInput(t *testing.T) {
	_, err := NewMemoryHost(MemoryHostConfig{InitData: "hash=abc"})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewMemoryHost(MemoryHostConfig{Theme: ThemeParams{BgColor: "white"}})
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestMemoryHost_SetParamsLeavesOtherFields(t *testing.T) {
	host := newTestHost(t)
	button := host.MainButton()
	button.Show()
	button.Disable()
	before := button.State()

	button.SetParams(ButtonParams{Text: String("Pay")})

	after := button.State()
	assert.Equal(t, "Pay", after.Text)
	after.Text = before.Text
	assert.Equal(t, before, after)
}

func TestMemoryHost_ButtonMutators(t *testing.T) {
	host := newTestHost(t)
	button := host.MainButton()

	button.SetText("Add product")
	button.Show()
	assert.Equal(t, "Add product", button.State().Text)
	assert.True(t, button.State().IsVisible)

	button.SetText("   ")
	assert.Equal(t, "Add product", button.State().Text)

	button.ShowProgress(false)
	assert.True(t, button.State().IsLoading)
	assert.False(t, button.State().IsActive)

	button.HideProgress()
	assert.False(t, button.State().IsLoading)
	assert.True(t, button.State().IsActive)

	button.ShowProgress(true)
	assert.True(t, button.State().IsActive)

	button.SetParams(ButtonParams{Color: String("#000000"), IsVisible: Bool(false), IsActive: Bool(false)})
	state := button.State()
	assert.Equal(t, "#000000", state.Color)
	assert.False(t, state.IsVisible)
	assert.False(t, state.IsActive)
	assert.True(t, state.IsLoading)

	button.Enable()
	button.Hide()
	assert.True(t, button.State().IsActive)
	assert.False(t, button.State().IsVisible)
}

func TestMemoryHost_SubscriptionsAreIndependent(t *testing.T) {
	host := newTestHost(t)
	host.MainButton().Show()

	var first, second int
	subFirst := host.OnMainButtonClicked(func() { first++ })
	host.MainButton().OnClick(func() { second++ })

	require.True(t, host.ClickMainButton())
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	host.Off(subFirst)
	host.Off(subFirst)
	require.True(t, host.ClickMainButton())
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, EventMainButtonClicked, subFirst.Kind())
}

func TestMemoryHost_OffIgnoresOtherKinds(t *testing.T) {
	host := newTestHost(t)

	var themeCalls int
	themeSub := host.OnThemeChanged(func() { themeCalls++ })

	// Same id space, different kind: must not remove the theme handler.
	host.Off(Subscription{host: host, kind: EventViewportChanged, id: themeSub.id})

	require.NoError(t, host.SetTheme(ThemeParams{BgColor: "#000000"}, ColorSchemeDark))
	assert.Equal(t, 1, themeCalls)
	assert.Equal(t, ColorSchemeDark, host.ColorScheme())
	assert.Equal(t, "#000000", host.ThemeParams().BgColor)
}

func TestMemoryHost_OffIgnoresOtherHosts(t *testing.T) {
	a := newTestHost(t)
	b := newTestHost(t)

	subA := a.OnThemeChanged(func() {})
	var calls int
	b.OnThemeChanged(func() { calls++ })

	// Both hosts issued id 1; a's token must not remove b's handler.
	b.Off(subA)
	b.Off(Subscription{})

	require.NoError(t, b.SetTheme(ThemeParams{BgColor: "#000000"}, ColorSchemeDark))
	assert.Equal(t, 1, calls)
}

func TestMemoryHost_ClickIgnoredWhenHiddenOrInactive(t *testing.T) {
	host := newTestHost(t)
	var clicks int
	host.OnMainButtonClicked(func() { clicks++ })

	assert.False(t, host.ClickMainButton())

	host.MainButton().Show()
	host.MainButton().Disable()
	assert.False(t, host.ClickMainButton())
	assert.Equal(t, 0, clicks)
}

func TestMemoryHost_ExpandAndResize(t *testing.T) {
	host := newTestHost(t)

	var events []ViewportChangedEvent
	host.OnViewportChanged(func(e ViewportChangedEvent) {
		events = append(events, e)
		// Reading back from a handler must not deadlock.
		_ = host.Viewport()
	})

	host.Resize(500, false)
	assert.Equal(t, Viewport{Height: 500, StableHeight: 400}, host.Viewport())

	host.Expand()
	assert.Equal(t, Viewport{Height: 800, StableHeight: 800, IsExpanded: true}, host.Viewport())

	host.Expand()
	require.Len(t, events, 2)
	assert.False(t, events[0].IsStateStable)
	assert.True(t, events[1].IsStateStable)
}

func TestMemoryHost_ReadyIsIdempotent(t *testing.T) {
	host := newTestHost(t)
	host.Ready()
	host.Ready()
	assert.Equal(t, 2, host.ReadyCalls())
	assert.False(t, host.Closed())
}

func TestMemoryHost_SendData(t *testing.T) {
	host := newTestHost(t)

	assert.ErrorIs(t, host.SendData(nil), ErrEmptyPayload)
	assert.ErrorIs(t, host.SendData(bytes.Repeat([]byte("x"), MaxSendDataSize+1)), ErrPayloadTooLarge)
	assert.False(t, host.Closed())

	payload := bytes.Repeat([]byte("x"), MaxSendDataSize)
	require.NoError(t, host.SendData(payload))
	assert.True(t, host.Closed())
	assert.Equal(t, payload, host.SentData())

	assert.ErrorIs(t, host.SendData([]byte("again")), ErrClosed)
}

func TestMemoryHost_CloseStopsInteraction(t *testing.T) {
	host := newTestHost(t)
	host.Close()

	host.Ready()
	host.Expand()
	host.MainButton().Show()

	assert.Equal(t, 0, host.ReadyCalls())
	assert.False(t, host.Viewport().IsExpanded)
	assert.False(t, host.MainButton().State().IsVisible)
	assert.ErrorIs(t, host.SetTheme(ThemeParams{}, ColorSchemeDark), ErrClosed)
}

func TestThemeParams(t *testing.T) {
	theme := ThemeParams{BgColor: "#101010"}
	filled := theme.WithDefaults(ThemeParams{BgColor: "#ffffff", TextColor: "#000000"})
	assert.Equal(t, "#101010", filled.BgColor)
	assert.Equal(t, "#000000", filled.TextColor)
	assert.Empty(t, filled.LinkColor)

	assert.NoError(t, ThemeParams{}.Validate())
	assert.ErrorIs(t, ThemeParams{LinkColor: "#12345"}.Validate(), ErrInvalidColor)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "themeChanged", EventThemeChanged.String())
	assert.Equal(t, "viewportChanged", EventViewportChanged.String())
	assert.Equal(t, "mainButtonClicked", EventMainButtonClicked.String())
	assert.Equal(t, "EventKind(9)", EventKind(9).String())
}
