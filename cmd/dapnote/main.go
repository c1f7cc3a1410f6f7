// Package main is the dapnote CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dapnote/dapnote/internal/cli"
	"github.com/dapnote/dapnote/internal/config"
	"github.com/dapnote/dapnote/internal/corpus"
	"github.com/dapnote/dapnote/internal/models"
	"github.com/dapnote/dapnote/internal/ranker"
	"github.com/dapnote/dapnote/internal/retrieval"
	"github.com/dapnote/dapnote/internal/server"
	"github.com/dapnote/dapnote/internal/storage"
	"github.com/dapnote/dapnote/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/dapnote/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "dapnote server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "list":
		runList()
	case "rank":
		runRank()
	case "version", "--version", "-v":
		fmt.Printf("dapnote version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`dapnote - feedback entry retrieval with AI-assisted ranking

Usage:
  dapnote server [-config path] [-debug]     start the HTTP API server
  dapnote list [flags]                       list feedback entries
  dapnote rank [flags] <draft text>          rank entries by relevance to text
  dapnote version                            print version
  dapnote help                               print this help

The corpus source (published sheet URL or local file) and the ranking service
are configured in config.yaml; the ranking credential is read from the
environment variable named there.
`)
}

// buildSource constructs the corpus source from config. The returned cleanup
// stops any file watching; callers must invoke it on shutdown.
func buildSource(cfg *config.Config, logger *zap.Logger) (corpus.Source, func(), error) {
	if cfg.Source.Path != "" {
		fs := corpus.NewFileSource(cfg.Source.Path, logger)
		ctx, cancel := context.WithCancel(context.Background())
		if err := fs.Start(ctx); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("watch source file: %w", err)
		}
		return fs, func() { cancel(); fs.Stop() }, nil
	}
	if cfg.Source.URL != "" {
		return corpus.NewHTTPSource(cfg.Source.URL, cfg.Source.Timeout()), func() {}, nil
	}
	return nil, nil, errors.New("source.url or source.path must be configured")
}

// buildRanker constructs the ranker. Without a credential the ranker is still
// created, unconfigured, so listing and plain filtering keep working and rank
// requests get the specific "not configured" failure.
func buildRanker(cfg *config.Config, logger *zap.Logger) *ranker.Ranker {
	opts := []ranker.Option{
		ranker.WithTimeout(cfg.Ranking.Timeout()),
		ranker.WithLogger(logger),
	}
	completer, err := ranker.NewLLMCompleter(cfg.Ranking.BaseURL, cfg.Ranking.Model, cfg.Ranking.APIKey())
	if err != nil {
		if errors.Is(err, ranker.ErrNotConfigured) {
			logger.Info("ranking not configured", zap.String("api_key_env", cfg.Ranking.APIKeyEnv))
		} else {
			logger.Warn("ranking client init failed", zap.Error(err))
		}
		return ranker.New(nil, opts...)
	}
	return ranker.New(completer, opts...)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	source, cleanup, err := buildSource(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize source", zap.Error(err))
	}
	defer cleanup()

	var audit *storage.AuditLog
	if cfg.Storage.AuditDatabasePath != "" {
		audit, err = storage.NewAuditLog(cfg.Storage.AuditDatabasePath)
		if err != nil {
			logger.Fatal("Failed to open audit log", zap.Error(err))
		}
		defer audit.Close()
	}

	srv := server.NewServer(source, buildRanker(cfg, logger), audit, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read the source directly)")
	category := fs.String("category", "", "category facet (empty or All = no restriction)")
	query := fs.String("q", "", "substring filter (case-insensitive)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		response, err := listViaHTTP(*serverURL, *category, *query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteEntries(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct source access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	source, cleanup, err := buildSource(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize source", zap.Error(err))
	}
	defer cleanup()

	entries, err := corpus.Load(context.Background(), source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	if *category != "" || *query != "" {
		entries = retrieval.Filter(entries, *category, *query)
	}
	response := &models.ListResponse{Entries: entries, Total: len(entries)}
	if err := cli.WriteEntries(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printRankUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: dapnote rank [flags] <draft text>\n\n")
	fmt.Fprintf(fs.Output(), "Draft text is all remaining arguments joined by spaces. Multi-word text works with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The ranking service selects up to 5 entries whose problem statements are the
most relevant to the draft text, ordered by descending relevance.

Examples:
  dapnote rank the report buries its conclusion
  dapnote rank "발표 자료가 너무 길다"
  dapnote rank --output json draft feedback text
`)
}

// buildRankQuery joins all positional args with spaces so multi-word drafts
// work the same with or without shell quoting.
func buildRankQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// rankArgsReorder moves any flags (and their values) that appear after the
// draft text to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func rankArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runRank() {
	rankArgs := rankArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = rank directly without a server)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printRankUsage(fs) }
	_ = fs.Parse(rankArgs)

	if fs.NArg() < 1 {
		printRankUsage(fs)
		os.Exit(1)
	}
	query := buildRankQuery(fs.Args())
	if query == "" {
		printRankUsage(fs)
		os.Exit(1)
	}

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		response, err := rankViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRanked(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct ranking (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	source, cleanup, err := buildSource(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize source", zap.Error(err))
	}
	defer cleanup()

	entries, err := corpus.Load(context.Background(), source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	ranked, err := buildRanker(cfg, logger).Rank(context.Background(), query, entries)
	if err != nil {
		if errors.Is(err, ranker.ErrNotConfigured) {
			fmt.Fprintf(os.Stderr, "Ranking is not configured: set %s\n", cfg.Ranking.APIKeyEnv)
		} else {
			fmt.Fprintf(os.Stderr, "Rank failed: %v\n", err)
		}
		os.Exit(1)
	}
	response := &models.RankResponse{
		Entries:   ranked,
		Query:     query,
		QueryTime: time.Since(start).Milliseconds(),
	}
	if err := cli.WriteRanked(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "json":
		return cli.OutputJSON, nil
	case "text":
		return cli.OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func listViaHTTP(serverURL, category, query string) (*models.ListResponse, error) {
	u, err := url.Parse(serverURL + "/api/v1/entries")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if category != "" {
		q.Set("category", category)
	}
	if query != "" {
		q.Set("q", query)
	}
	u.RawQuery = q.Encode()

	resp, err := http.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func rankViaHTTP(serverURL, query string) (*models.RankResponse, error) {
	body, err := json.Marshal(models.RankRequest{Query: query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/rank", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}
