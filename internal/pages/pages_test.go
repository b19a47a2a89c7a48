package pages

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/miniapp_admin/internal/webapp"
	"github.com/R3E-Network/miniapp_admin/pkg/admin"
)

func newHost(t *testing.T, theme webapp.ThemeParams) *webapp.MemoryHost {
	t.Helper()
	v := url.Values{}
	v.Set("user", `{"id":1,"first_name":"Ada","last_name":"Lovelace","language_code":"pt-BR"}`)
	v.Set("auth_date", "1700000000")
	v.Set("hash", "abc")
	host, err := webapp.NewMemoryHost(webapp.MemoryHostConfig{
		InitData:    v.Encode(),
		ColorScheme: webapp.ColorSchemeDark,
		Theme:       theme,
		Height:      400,
		MaxHeight:   800,
	})
	require.NoError(t, err)
	return host
}

func TestRenderWithoutHost(t *testing.T) {
	set := NewSet(webapp.ThemeParams{})

	for _, c := range set.All() {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, c.Render(context.Background(), &buf, Request{}))
			out := buf.String()
			assert.Contains(t, out, `data-page="`+c.Name()+`"`)
			assert.Contains(t, out, "--tg-theme-bg-color: #ffffff")
			assert.Contains(t, out, `lang="en"`)
		})
	}
}

func TestRenderOrderIDVerbatim(t *testing.T) {
	set := NewSet(webapp.ThemeParams{})

	var buf bytes.Buffer
	err := set.AdminOrdersSingle.Render(context.Background(), &buf, Request{Params: map[string]string{"id": "0042"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Order #0042")

	buf.Reset()
	err = set.AdminOrdersSingle.Render(context.Background(), &buf, Request{Params: map[string]string{"id": "<b>"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Order #&lt;b&gt;")
}

func TestRenderUsesHostTheme(t *testing.T) {
	host := newHost(t, webapp.ThemeParams{BgColor: "#17212b"})
	set := NewSet(webapp.ThemeParams{TextColor: "#111111"})

	var buf bytes.Buffer
	require.NoError(t, set.Home.Render(context.Background(), &buf, Request{Host: host}))
	out := buf.String()

	assert.Contains(t, out, "--tg-theme-bg-color: #17212b")
	assert.Contains(t, out, "--tg-theme-text-color: #111111")
	assert.Contains(t, out, "--tg-theme-link-color: #2481cc")
	assert.Contains(t, out, `data-color-scheme="dark"`)
	assert.Contains(t, out, `lang="pt-BR"`)
	assert.Contains(t, out, "Signed in as Ada Lovelace")
}

func TestRenderConfiguresMainButton(t *testing.T) {
	host := newHost(t, webapp.ThemeParams{})
	set := NewSet(webapp.ThemeParams{})
	ctx := context.Background()

	require.NoError(t, set.ProductAdd.Render(ctx, &bytes.Buffer{}, Request{Host: host}))
	state := host.MainButton().State()
	assert.Equal(t, AddProductButtonText, state.Text)
	assert.True(t, state.IsVisible)
	assert.Equal(t, 1, host.ReadyCalls())

	require.NoError(t, set.ProductList.Render(ctx, &bytes.Buffer{}, Request{Host: host}))
	state = host.MainButton().State()
	assert.False(t, state.IsVisible)
	assert.Equal(t, AddProductButtonText, state.Text)
	assert.Equal(t, 2, host.ReadyCalls())
}

func TestRenderCancelled(t *testing.T) {
	host := newHost(t, webapp.ThemeParams{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewSet(webapp.ThemeParams{}).Home.Render(ctx, &buf, Request{Host: host})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
	assert.Equal(t, 0, host.ReadyCalls())
}

func TestProductAddRendersSubmission(t *testing.T) {
	set := NewSet(webapp.ThemeParams{})
	ctx := context.Background()

	var buf bytes.Buffer
	bad := Submit(admin.ProductForm{Name: "Mug", Price: "abc"})
	require.NoError(t, set.ProductAdd.Render(ctx, &buf, Request{Submission: bad}))
	out := buf.String()
	assert.Contains(t, out, `data-field="price"`)
	assert.Contains(t, out, `value="Mug"`)
	assert.NotContains(t, out, `data-result="accepted"`)

	buf.Reset()
	good := Submit(admin.ProductForm{Name: "Mug", Price: "9.99"})
	require.NoError(t, set.ProductAdd.Render(ctx, &buf, Request{Submission: good}))
	out = buf.String()
	assert.Contains(t, out, `data-result="accepted"`)
	assert.NotContains(t, out, `data-field=`)
	assert.NotContains(t, out, `value="Mug"`)
}

func TestProductAddMainButtonSubmitsForm(t *testing.T) {
	host := newHost(t, webapp.ThemeParams{})
	set := NewSet(webapp.ThemeParams{})
	page := set.ProductAdd.(*productAdd)
	ctx := context.Background()

	require.NoError(t, set.ProductAdd.Render(ctx, &bytes.Buffer{}, Request{Host: host}))
	require.True(t, host.ClickMainButton())

	last := page.last
	require.NotNil(t, last)
	assert.False(t, last.Valid())
	assert.Contains(t, last.Problems, "name")

	state := host.MainButton().State()
	assert.False(t, state.IsLoading)
	assert.True(t, state.IsActive)

	// The outcome is shown once, then the form starts over.
	var buf bytes.Buffer
	require.NoError(t, set.ProductAdd.Render(ctx, &buf, Request{Host: host}))
	assert.Contains(t, buf.String(), `data-field="name"`)
	assert.Nil(t, page.last)

	buf.Reset()
	require.NoError(t, set.ProductAdd.Render(ctx, &buf, Request{Host: host}))
	assert.NotContains(t, buf.String(), `data-field="name"`)
}

func TestProductAddSubscribesOnce(t *testing.T) {
	host := newHost(t, webapp.ThemeParams{})
	set := NewSet(webapp.ThemeParams{})
	page := set.ProductAdd.(*productAdd)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, set.ProductAdd.Render(ctx, &bytes.Buffer{}, Request{Host: host}))
	}

	var clicks int
	host.OnMainButtonClicked(func() { clicks++ })
	require.True(t, host.ClickMainButton())
	assert.Equal(t, 1, clicks)
	require.NotNil(t, page.last)

	// Re-rendered pages keep a single click handler.
	page.mu.Lock()
	page.last = nil
	page.mu.Unlock()
	host.Off(page.sub)
	require.True(t, host.ClickMainButton())
	assert.Nil(t, page.last)
}
