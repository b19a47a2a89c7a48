// Command adminshell serves the mini-app admin shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/miniapp_admin/internal/config"
	"github.com/R3E-Network/miniapp_admin/internal/logging"
	"github.com/R3E-Network/miniapp_admin/internal/pages"
	"github.com/R3E-Network/miniapp_admin/internal/router"
	"github.com/R3E-Network/miniapp_admin/internal/shell"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

var (
	envFile string

	addr         string
	simulateHost bool
	hostInitData string
	hostScheme   string

	routesJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "adminshell",
	Short: "Product, category and order admin shell for mini-app hosts",
	Long: `adminshell serves the admin pages and the session verification API.

Session payloads (initData) are never checked locally; they are forwarded unmodified
to the backend configured with ADMIN_VERIFIER_URL.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin shell over HTTP",
	Long: `Serves the admin pages, /api/session/verify, /api/routes, /healthz and /metrics.

With --simulate-host every page is rendered against an in-process mini-app host, which is
useful for working on the pages outside a real host.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the page routes",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Show which page component a path resolves to",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ADMIN_ADDR)")
	serveCmd.Flags().BoolVar(&simulateHost, "simulate-host", false, "Render pages against an in-process mini-app host")
	serveCmd.Flags().StringVar(&hostInitData, "init-data", "", "Raw initData for the simulated host (default: a demo user)")
	serveCmd.Flags().StringVar(&hostScheme, "color-scheme", "light", "Color scheme of the simulated host (light or dark)")

	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "Print routes as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(resolveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	logger := logging.New(cfg.Service, cfg.LogLevel, cfg.LogFormat)

	verifier, closer, err := shell.NewVerifier(cfg.Verifier, logger)
	if err != nil {
		return fmt.Errorf("verifier: %w", err)
	}
	defer closer.Close()

	opts := shell.Options{Logger: logger, Verifier: verifier}
	if simulateHost {
		host, err := newSimulatedHost(cfg.Theme)
		if err != nil {
			return fmt.Errorf("simulated host: %w", err)
		}
		opts.Host = host
		logger.WithField("color_scheme", host.ColorScheme()).Info("rendering pages against a simulated host")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return shell.New(cfg, opts).Run(ctx)
}

func newSimulatedHost(theme webapp.ThemeParams) (*webapp.MemoryHost, error) {
	raw := hostInitData
	if raw == "" {
		v := url.Values{}
		v.Set("query_id", "local-simulation")
		v.Set("user", `{"id":1,"first_name":"Local","last_name":"Admin","language_code":"en"}`)
		v.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
		v.Set("hash", "unsigned")
		raw = v.Encode()
	}

	scheme := webapp.ColorScheme(hostScheme)
	if scheme != webapp.ColorSchemeLight && scheme != webapp.ColorSchemeDark {
		return nil, fmt.Errorf("unknown color scheme %q", hostScheme)
	}

	return webapp.NewMemoryHost(webapp.MemoryHostConfig{
		InitData:    raw,
		ColorScheme: scheme,
		Theme:       theme.WithDefaults(pages.DefaultTheme),
		Height:      600,
		MaxHeight:   900,
	})
}

func newTable() *router.Table {
	return router.NewTable(pages.NewSet(webapp.ThemeParams{}))
}

func runRoutes(cmd *cobra.Command, args []string) error {
	routes := newTable().Routes()
	out := cmd.OutOrStdout()

	if routesJSON {
		type routeJSON struct {
			Name      string   `json:"name"`
			Path      string   `json:"path"`
			Component string   `json:"component"`
			Methods   []string `json:"methods"`
		}
		list := make([]routeJSON, 0, len(routes))
		for _, r := range routes {
			list = append(list, routeJSON{Name: r.Name, Path: r.Path, Component: r.Component.Name(), Methods: r.Methods})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tMETHODS\tCOMPONENT")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Path, strings.Join(r.Methods, ","), r.Component.Name())
	}
	return w.Flush()
}

func runResolve(cmd *cobra.Command, args []string) error {
	m, ok := newTable().Resolve(args[0])
	if !ok {
		return fmt.Errorf("no route matches %q", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", args[0], m.Route.Component.Name(), m.Route.Name)
	for k, v := range m.Params {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s = %q\n", k, v)
	}
	return nil
}
