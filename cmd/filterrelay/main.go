// Package main runs the filter relay companion: a Playwright session attached
// to the host scheduler console that captures date bounds on the scheduled
// processes page and replays them into the filter forms of the processes and
// screenshots pages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/config"
	"github.com/rpaops/filterrelay/pkg/formsync"
	"github.com/rpaops/filterrelay/pkg/logging"
	"github.com/rpaops/filterrelay/pkg/pages"
	"github.com/rpaops/filterrelay/pkg/relay"
)

const version = "0.1.0"

// Env holds the FILTERRELAY_* environment overrides. They sit between the
// YAML profile and the command-line flags: profile < env < flags.
type Env struct {
	BaseURL   string `envconfig:"BASE_URL"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RedisDB   int    `envconfig:"REDIS_DB"`
	Headless  bool   `envconfig:"HEADLESS"`
}

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigFile  string
	BaseURL     string
	RedisAddr   string
	Headless    bool
	Replay      string
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("filterrelay v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("filterrelay failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags.
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to the YAML profile (selectors, timings, patterns)")
	flag.StringVar(&cli.BaseURL, "base-url", "", "Host console origin, e.g. https://console.example.com")
	flag.StringVar(&cli.RedisAddr, "redis", "", "Redis address for the relay slot (empty: in-process store)")
	flag.BoolVar(&cli.Headless, "headless", false, "Run the browser without a visible window")
	flag.StringVar(&cli.Replay, "replay", "", "Replay a range into the screenshots picker: \"start,end\"")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "FilterRelay - scheduler console filter companion\n\n")
		fmt.Fprintf(os.Stderr, "Usage: filterrelay [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Attach to the console and watch for menu actions\n")
		fmt.Fprintf(os.Stderr, "  filterrelay -base-url https://console.example.com\n\n")
		fmt.Fprintf(os.Stderr, "  # Share the relay slot with another session through Redis\n")
		fmt.Fprintf(os.Stderr, "  filterrelay -base-url https://console.example.com -redis localhost:6379\n\n")
		fmt.Fprintf(os.Stderr, "  # Drive the screenshots range picker once and exit\n")
		fmt.Fprintf(os.Stderr, "  filterrelay -base-url https://console.example.com -replay \"2026-02-16 10:00,2026-02-16 10:05\"\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	profile, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}

	var env Env
	if err := envconfig.Process("filterrelay", &env); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	applyOverrides(profile, &env, cli)

	if profile.Browser.BaseURL == "" {
		return fmt.Errorf("no console origin: set -base-url, FILTERRELAY_BASE_URL or browser.base_url")
	}

	logger, err := logging.NewLogger("main")
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Infof("filterrelay v%s starting, log file %s", version, logger.LogPath())

	store, cleanup, err := openStore(ctx, profile, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sweeper := relay.NewSweeper(store, logger)
	go sweeper.Run(ctx)

	manager := browser.NewManager()
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer manager.Close()

	session, err := manager.Launch(browser.SessionOptions{Headless: profile.Browser.Headless})
	if err != nil {
		return err
	}
	logger.Infof("console session up (headless=%v)", profile.Browser.Headless)

	bridge := formsync.NewAngularBridge(session)
	app := pages.NewApp(session, store, bridge, profile, logger)

	if cli.Replay != "" {
		return replayRange(ctx, session, app, profile, cli.Replay)
	}

	router, err := pages.NewRouter(session, profile, logger)
	if err != nil {
		return err
	}
	app.Bind(router)

	if err := session.Navigate(profile.Browser.BaseURL + profile.Pages.ScheduledPath); err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	if err := app.ExposeManualHook(ctx); err != nil {
		return fmt.Errorf("expose manual hook: %w", err)
	}
	if err := router.Start(ctx); err != nil {
		return err
	}

	logger.Infof("watching %s", profile.Browser.BaseURL)
	<-ctx.Done()
	return nil
}

// applyOverrides layers environment and flag values over the profile.
func applyOverrides(profile *config.Profile, env *Env, cli *CLIConfig) {
	if env.BaseURL != "" {
		profile.Browser.BaseURL = env.BaseURL
	}
	if env.RedisAddr != "" {
		profile.Redis.Addr = env.RedisAddr
	}
	if env.RedisDB != 0 {
		profile.Redis.DB = env.RedisDB
	}
	if env.Headless {
		profile.Browser.Headless = true
	}

	if cli.BaseURL != "" {
		profile.Browser.BaseURL = cli.BaseURL
	}
	if cli.RedisAddr != "" {
		profile.Redis.Addr = cli.RedisAddr
	}
	if cli.Headless {
		profile.Browser.Headless = true
	}
}

// openStore selects the relay backend: Redis when an address is configured,
// otherwise the in-process store.
func openStore(ctx context.Context, profile *config.Profile, logger *logging.Logger) (relay.Store, func(), error) {
	if profile.Redis.Addr == "" {
		logger.Infof("relay slot in process memory")
		return relay.NewMemoryStore(), func() {}, nil
	}

	store, err := relay.NewRedisStore(ctx, profile.Redis.Addr, profile.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect relay store: %w", err)
	}
	logger.Infof("relay slot on redis at %s", profile.Redis.Addr)
	return store, func() { store.Close() }, nil
}

// replayRange drives the screenshots range picker once with explicit bounds.
func replayRange(ctx context.Context, session *browser.Session, app *pages.App, profile *config.Profile, spec string) error {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("replay wants \"start,end\", got %q", spec)
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])

	target := profile.Browser.BaseURL + profile.Pages.ScreenshotsPath
	if err := session.Navigate(target); err != nil {
		return fmt.Errorf("open screenshots page: %w", err)
	}
	return app.ApplyRange(ctx, start, end)
}
