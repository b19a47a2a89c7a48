package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		routesJSON = false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	out, err := execute(t, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "/admin/orders/{id}")
	assert.Contains(t, out, "AdminOrdersSingle")
	assert.Contains(t, out, "GET,HEAD,POST")
}

func TestRoutesCommandJSON(t *testing.T) {
	out, err := execute(t, "routes", "--json")
	require.NoError(t, err)

	var routes []struct {
		Component string   `json:"component"`
		Methods   []string `json:"methods"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.Len(t, routes, 6)
	assert.Equal(t, "HomePage", routes[0].Component)
	assert.Equal(t, []string{"GET", "HEAD", "POST"}, routes[2].Methods)
}

func TestResolveCommand(t *testing.T) {
	out, err := execute(t, "resolve", "/admin/orders/42")
	require.NoError(t, err)
	assert.Contains(t, out, "AdminOrdersSingle")
	assert.Contains(t, out, `id = "42"`)

	_, err = execute(t, "resolve", "/nonexistent")
	assert.Error(t, err)
}

func TestNewSimulatedHost(t *testing.T) {
	hostInitData = ""
	hostScheme = "dark"
	t.Cleanup(func() { hostScheme = "light" })

	host, err := newSimulatedHost(webapp.ThemeParams{BgColor: "#17212b"})
	require.NoError(t, err)
	assert.Equal(t, webapp.ColorSchemeDark, host.ColorScheme())
	assert.Equal(t, "#17212b", host.ThemeParams().BgColor)
	assert.Equal(t, "Local", host.InitDataUnsafe().User.FirstName)

	hostScheme = "sepia"
	_, err = newSimulatedHost(webapp.ThemeParams{})
	assert.Error(t, err)
}
