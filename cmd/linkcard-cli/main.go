package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/cookiestore"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/fetcher"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Config *config.Config

	// Store backs Cookies when no CookieStore is injected.
	Store *cookiestore.Store

	// Services for end-to-end testing. Left nil, they are built from Config.
	Cookies CookieStore
	Fetcher MetadataFetcher
}

// NewMain returns a new instance of Main with configuration from the
// environment.
func NewMain() *Main {
	return &Main{Config: config.Load()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Store != nil {
		return m.Store.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:              ctx,
		Stdout:           stdout,
		Stderr:           stderr,
		AffiliateTag:     m.Config.Affiliate.Tag,
		CookieExpiryDays: m.Config.Store.CookieExpiryDays,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("linkcard-cli"),
		kong.Description("Generate Amazon product link cards from the command line."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'linkcard-cli --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logCfg := config.LogConfig{Level: "warn", Format: "text"}
	if cli.Verbose {
		logCfg.Level = "debug"
	}
	slog.SetDefault(slog.New(logCfg.Handler(stderr)))

	command := kongCtx.Command()

	// validate works offline and needs nothing else.
	if strings.HasPrefix(command, "validate") {
		return kongCtx.Run()
	}

	if m.Cookies == nil {
		m.Store = cookiestore.New(m.Config.Store.Path)
		if err := m.Store.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set LINKCARD_STORE_PATH to use a different database path\n")
			return fmt.Errorf("failed to open cookie store at %q: %w", m.Config.Store.Path, err)
		}
		defer m.Close()
		m.Cookies = m.Store
	}
	deps.Cookies = m.Cookies

	if m.Fetcher == nil {
		opts := []engine.HTTPOption{engine.WithTimeout(m.Config.Fetch.Timeout)}
		if m.Config.Fetch.Proxy != "" {
			opts = append(opts, engine.WithProxy(m.Config.Fetch.Proxy))
		}
		m.Fetcher = fetcher.New(engine.NewHTTPEngine(opts...))
	}
	deps.Fetcher = m.Fetcher

	return kongCtx.Run()
}
