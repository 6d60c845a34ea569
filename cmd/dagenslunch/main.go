package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/dagenslunch/internal/app"
	"github.com/hyperifyio/dagenslunch/internal/ocr"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

type cliFlags struct {
	configPath string
	envFiles   string
	version    bool
	cfg        app.Config
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	f, set, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		os.Exit(exitConfig)
	}
	if f.version {
		fmt.Printf("dagenslunch %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		os.Exit(exitOK)
	}

	if err := app.LoadEnvFiles(splitList(f.envFiles)...); err != nil {
		log.Error().Err(err).Msg("load env files")
		os.Exit(exitConfig)
	}
	cfg, err := loadConfig(f, set)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(exitConfig)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

func parseFlags(args []string, out io.Writer) (cliFlags, map[string]bool, error) {
	var f cliFlags
	fs := flag.NewFlagSet("dagenslunch", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&f.configPath, "config", "", "Path to YAML or JSON config file with the restaurant list")
	fs.StringVar(&f.envFiles, "env", ".env", "Comma-separated dotenv files to load; later files override earlier ones")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")

	c := &f.cfg
	fs.StringVar(&c.OutputPath, "output", "dagens_lunch.html", "Path to write the HTML lunch page")
	fs.StringVar(&c.OutputPDFPath, "pdf", "", "Optional path to also write a PDF")
	fs.StringVar(&c.OutputMarkdownPath, "md", "", "Optional path to also write the page as Markdown")
	fs.StringVar(&c.Day, "day", "", "Weekday to render, e.g. 'onsdag'; default today")
	fs.StringVar(&c.UserAgent, "ua", "dagenslunch/1.0 (+https://github.com/hyperifyio/dagenslunch)", "User-Agent for page requests")
	fs.DurationVar(&c.FetchTimeout, "fetch.timeout", 30*time.Second, "Per-request timeout")
	fs.IntVar(&c.Concurrency, "fetch.concurrency", 4, "Restaurants fetched in parallel")
	fs.StringVar(&c.OCREngine, "ocr.engine", "", "OCR engine: tesseract, vision, none; empty picks automatically")
	fs.StringVar(&c.OCRLanguage, "ocr.lang", "swe", "Tesseract language")
	fs.StringVar(&c.TesseractPath, "ocr.tesseract", "", "Path to the tesseract binary")
	fs.StringVar(&c.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL for vision OCR")
	fs.StringVar(&c.LLMModel, "llm.model", "", "Vision model name")
	fs.StringVar(&c.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.StringVar(&c.CacheDir, "cache.dir", ".dagenslunch-cache", "Cache directory path")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&c.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&c.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&c.IgnoreRobots, "robots.ignore", false, "Do not consult robots.txt before fetching")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// flagFields copies an explicitly set flag's value onto the merged config.
var flagFields = map[string]func(dst, src *app.Config){
	"output":            func(d, s *app.Config) { d.OutputPath = s.OutputPath },
	"pdf":               func(d, s *app.Config) { d.OutputPDFPath = s.OutputPDFPath },
	"md":                func(d, s *app.Config) { d.OutputMarkdownPath = s.OutputMarkdownPath },
	"day":               func(d, s *app.Config) { d.Day = s.Day },
	"ua":                func(d, s *app.Config) { d.UserAgent = s.UserAgent },
	"fetch.timeout":     func(d, s *app.Config) { d.FetchTimeout = s.FetchTimeout },
	"fetch.concurrency": func(d, s *app.Config) { d.Concurrency = s.Concurrency },
	"ocr.engine":        func(d, s *app.Config) { d.OCREngine = s.OCREngine },
	"ocr.lang":          func(d, s *app.Config) { d.OCRLanguage = s.OCRLanguage },
	"ocr.tesseract":     func(d, s *app.Config) { d.TesseractPath = s.TesseractPath },
	"llm.base":          func(d, s *app.Config) { d.LLMBaseURL = s.LLMBaseURL },
	"llm.model":         func(d, s *app.Config) { d.LLMModel = s.LLMModel },
	"llm.key":           func(d, s *app.Config) { d.LLMAPIKey = s.LLMAPIKey },
	"cache.dir":         func(d, s *app.Config) { d.CacheDir = s.CacheDir },
	"cache.maxAge":      func(d, s *app.Config) { d.CacheMaxAge = s.CacheMaxAge },
	"cache.clear":       func(d, s *app.Config) { d.CacheClear = s.CacheClear },
	"cache.strictPerms": func(d, s *app.Config) { d.CacheStrictPerms = s.CacheStrictPerms },
	"robots.ignore":     func(d, s *app.Config) { d.IgnoreRobots = s.IgnoreRobots },
	"v":                 func(d, s *app.Config) { d.Verbose = s.Verbose },
}

// loadConfig merges file, environment and flags, in increasing precedence,
// then fills what is still unset from the flag defaults.
func loadConfig(f cliFlags, set map[string]bool) (app.Config, error) {
	var cfg app.Config
	if strings.TrimSpace(f.configPath) != "" {
		fc, err := app.LoadConfigFile(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	for name := range set {
		if apply, ok := flagFields[name]; ok {
			apply(&cfg, &f.cfg)
		}
	}

	d := f.cfg
	if cfg.OutputPath == "" {
		cfg.OutputPath = d.OutputPath
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = d.FetchTimeout
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = d.OCRLanguage
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = d.CacheDir
	}
	if len(cfg.Restaurants) == 0 {
		log.Info().Msg("no restaurants configured; using built-in list")
		cfg.Restaurants = app.DefaultRestaurants()
	}
	return cfg, app.ValidateConfig(cfg)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// exitCode maps run errors: configuration problems exit 2, everything else 1.
func exitCode(err error) int {
	if errors.Is(err, app.ErrNoSources) || errors.Is(err, ocr.ErrNoEngine) {
		return exitConfig
	}
	return exitFailure
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
