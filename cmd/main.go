// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"pii-redact/internal/config"
	"pii-redact/internal/engine"
	"pii-redact/internal/neural"
	"pii-redact/internal/observability"
	"pii-redact/internal/reviewer"
	"pii-redact/internal/session"
	"pii-redact/internal/tools"
	"pii-redact/internal/version"
	"pii-redact/internal/web"
)

func main() {
	// Optional .env next to the binary; flags and config still win.
	godotenv.Load()

	var (
		textFlag     = flag.String("text", "", "Text to process")
		fileFlag     = flag.String("file", "", "File to process (.txt, .csv, .log, .md, .docx, .xlsx, .pdf, .doc)")
		unredactFlag = flag.Bool("unredact", false, "Restore placeholders instead of redacting")
		analyzeFlag  = flag.Bool("analyze", false, "Report entities without modifying the input")
		sessionFlag  = flag.String("session", "", "Session id for -unredact")
		entitiesFlag = flag.String("entities", "", "Comma-separated entity types to restrict detection to")
		blackBoxFlag = flag.Bool("black-box", false, "PDF only: irreversible black-box redaction (no session)")
		serveFlag    = flag.Bool("serve", false, "Start the HTTP JSON server")
		portFlag     = flag.String("port", "8080", "HTTP server port")
		configFlag   = flag.String("config", "", "Path to config file")
		debugFlag    = flag.Bool("debug", false, "Enable debug output")
		noColorFlag  = flag.Bool("no-color", false, "Disable colored output")
		versionFlag  = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.String())
		return
	}

	if *noColorFlag || !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}

	cfg := config.LoadConfigOrDefault(*configFlag)
	if *debugFlag {
		cfg.Defaults.Debug = true
	}

	observer := observability.NewStandardObserver(observability.ObservabilityMetrics, os.Stderr)
	if cfg.Defaults.Debug {
		debugObs := observability.NewDebugObserver(os.Stderr)
		observer = debugObs.StandardObserver
		observer.DebugObserver = debugObs
	}

	eng, cleanup, err := buildEngine(cfg, observer)
	if err != nil {
		fatal("engine setup failed: %v", err)
	}
	defer cleanup()

	if *serveFlag {
		srv := web.NewServer(*portFlag, eng, observer)
		color.Green("pii-redact listening on :%s", *portFlag)
		if err := srv.Start(); err != nil {
			fatal("%v", err)
		}
		return
	}

	entityTypes := splitEntities(*entitiesFlag)
	ctx := context.Background()

	switch {
	case *fileFlag != "" && *unredactFlag:
		requireSession(*sessionFlag)
		fmt.Println(tools.UnredactFile(eng, observer, *fileFlag, *sessionFlag))
	case *fileFlag != "":
		fmt.Println(tools.RedactFile(ctx, eng, observer, *fileFlag, entityTypes, !*blackBoxFlag))
	case *textFlag != "" && *unredactFlag:
		requireSession(*sessionFlag)
		fmt.Println(tools.Unredact(eng, *textFlag, *sessionFlag))
	case *textFlag != "" && *analyzeFlag:
		fmt.Println(tools.Analyze(ctx, eng, *textFlag, entityTypes))
	case *textFlag != "":
		fmt.Println(tools.Redact(ctx, eng, *textFlag, entityTypes))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// buildEngine assembles the engine from configuration: session store,
// optional neural and reviewer layers, custom patterns.
func buildEngine(cfg *config.Config, observer *observability.StandardObserver) (*engine.Engine, func(), error) {
	ttl := time.Duration(cfg.Defaults.SessionTTLSeconds) * time.Second

	var store session.Store
	if cfg.Defaults.SessionStorePath != "" {
		durable, err := session.NewDurableStore(cfg.Defaults.SessionStorePath, ttl)
		if err != nil {
			return nil, nil, err
		}
		store = durable
	} else {
		store = session.NewMemoryStore(ttl)
	}

	opts := []engine.Option{
		engine.WithSessions(store),
		engine.WithObserver(observer),
		engine.WithScoreThreshold(cfg.Defaults.ScoreThreshold),
	}

	if cfg.Neural.Enabled {
		endpoint := envOr("REDACT_NEURAL_URL", cfg.Neural.Endpoint)
		opts = append(opts, engine.WithNeural(neural.New(endpoint, time.Duration(cfg.Neural.TimeoutSeconds)*time.Second, observer)))
	}
	if cfg.Reviewer.Enabled {
		endpoint := envOr("REDACT_LLM_URL", cfg.Reviewer.Endpoint)
		model := envOr("REDACT_LLM_MODEL", cfg.Reviewer.Model)
		opts = append(opts, engine.WithReviewer(reviewer.New(endpoint, model, time.Duration(cfg.Reviewer.TimeoutSeconds)*time.Second, observer)))
	}

	eng := engine.New(opts...)
	if len(cfg.Defaults.DisabledEntities) > 0 {
		eng.DisableEntities(cfg.Defaults.DisabledEntities)
	}
	for _, p := range cfg.CustomPatterns {
		if err := eng.Registry().AddPattern(p.Name, p.Pattern, p.Score); err != nil {
			return nil, nil, err
		}
	}

	return eng, func() { store.Close() }, nil
}

func splitEntities(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireSession(sessionID string) {
	if sessionID == "" {
		fatal("-unredact requires -session")
	}
}

func fatal(format string, args ...interface{}) {
	color.Red(format, args...)
	os.Exit(1)
}
