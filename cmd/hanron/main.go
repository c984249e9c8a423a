// Package main is the Hanron CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/claims"
	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/embedding"
	"github.com/hyperjump/hanron/internal/extract"
	"github.com/hyperjump/hanron/internal/indexer"
	"github.com/hyperjump/hanron/internal/llm"
	"github.com/hyperjump/hanron/internal/pipeline"
	"github.com/hyperjump/hanron/internal/report"
	"github.com/hyperjump/hanron/internal/retrieval"
	"github.com/hyperjump/hanron/internal/server"
	"github.com/hyperjump/hanron/internal/storage"
	"github.com/hyperjump/hanron/internal/watcher"
	"github.com/hyperjump/hanron/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/hanron/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// picks up the project's config.
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
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "analyze":
		runAnalyze()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("hanron version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired application stack.
type Components struct {
	Embedder embedding.Embedder
	LLM      llm.Client
	Indexer  *indexer.Indexer
	Pipeline *pipeline.Pipeline
}

// Close releases component resources in reverse dependency order.
func (c *Components) Close() {
	if c.Indexer != nil {
		_ = c.Indexer.Close()
	}
	if c.LLM != nil {
		_ = c.LLM.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.New(&cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	llmClient, err := llm.New(&cfg.Provider)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("initialize llm client: %w", err)
	}

	idx := indexer.NewIndexer(cfg, embedder, extract.NewExtractor(), logger)
	artifacts, err := pipeline.NewArtifacts(cfg.Storage.ReportsDir)
	if err != nil {
		embedder.Close()
		_ = llmClient.Close()
		return nil, err
	}
	p := pipeline.New(
		cfg,
		artifacts,
		extract.NewExtractor(),
		claims.NewExtractor(llmClient, &cfg.Claims, logger),
		claims.NewJudge(llmClient, &cfg.Claims, logger),
		retrieval.NewRetriever(idx, embedder, &cfg.Retrieval, logger),
		logger,
	)
	return &Components{
		Embedder: embedder,
		LLM:      llmClient,
		Indexer:  idx,
		Pipeline: p,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", true, "re-index on source document changes")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
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
		zap.String("config_path", resolvedPath),
		zap.String("provider", cfg.Provider.Name),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	idx := components.Indexer
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if *watch {
		watchSvc := watcher.New(cfg.Storage.SourceDir, func() {
			if _, err := idx.Index(context.Background(), cfg.Storage.SourceDir); err != nil {
				logger.Warn("re-index after source change failed", zap.Error(err))
			}
		}, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("source watcher unavailable", zap.Error(err))
		} else {
			defer watchSvc.Stop()
		}
	}

	srv := server.NewServer(components.Pipeline, idx, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	source := fs.String("source", "", "source directory (default: storage.source_dir)")
	_ = fs.Parse(os.Args[2:])

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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	dir := *source
	if dir == "" {
		dir = cfg.Storage.SourceDir
	}
	count, err := components.Indexer.Index(context.Background(), dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d chunks from %s\n", count, dir)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	reportPath := fs.String("report", "", "short report file to analyze (.pdf .txt .docx)")
	topK := fs.Int("top-k", 0, "evidence chunks per claim (default: retrieval.top_k)")
	maxClaims := fs.Int("max-claims", 0, "limit the number of analyzed claims")
	_ = fs.Parse(os.Args[2:])

	if *reportPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: hanron analyze -report <file>")
		os.Exit(1)
	}

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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Indexer.Index(ctx, cfg.Storage.SourceDir); err != nil {
		fmt.Fprintf(os.Stderr, "Evidence indexing failed: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read report: %v\n", err)
		os.Exit(1)
	}
	p := components.Pipeline
	uploaded, err := p.Upload(ctx, filepath.Base(*reportPath), data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Report %s: %d pages extracted\n", uploaded.ReportID, len(uploaded.Pages))

	claimsArt, _, err := p.ExtractClaims(ctx, uploaded.ReportID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Claim extraction failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Extracted %d claims\n", len(claimsArt.Claims))

	rpt, err := p.Analyze(ctx, uploaded.ReportID, *topK, *maxClaims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
	fmt.Print(report.RenderMarkdown(*rpt))
	fmt.Printf("\nArtifacts written to %s\n", cfg.Storage.ReportsDir)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	status := map[string]interface{}{
		"provider":         cfg.Provider.Name,
		"embed_model":      cfg.Provider.EmbedModel,
		"embed_dimensions": cfg.Provider.EmbedDimensions,
		"llm_model":        cfg.Provider.LLMModel,
		"collection_dir":   cfg.Storage.CollectionDir,
		"reports_dir":      cfg.Storage.ReportsDir,
		"chunks":           int64(0),
		"vectors":          0,
	}
	if _, statErr := os.Stat(cfg.Storage.CollectionDir); statErr == nil {
		coll, collErr := components.Indexer.Collection(ctx)
		if collErr == nil {
			if count, err := coll.Store.CountChunks(ctx); err == nil {
				status["chunks"] = count
			}
			status["vectors"] = coll.Vectors.Size()
		}
		if bytes, err := storage.DiskUsageBytes(cfg.Storage.CollectionDir); err == nil {
			status["disk_usage_bytes"] = bytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("provider:          %s (%s / %s, %d dims)\n",
			status["provider"], status["llm_model"], status["embed_model"], cfg.Provider.EmbedDimensions)
		fmt.Printf("collection_dir:    %s\n", status["collection_dir"])
		fmt.Printf("reports_dir:       %s\n", status["reports_dir"])
		fmt.Printf("chunks:            %v\n", status["chunks"])
		fmt.Printf("vectors:           %v\n", status["vectors"])
		if bytes, ok := status["disk_usage_bytes"]; ok {
			fmt.Printf("disk_usage_bytes:  %v\n", bytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hanron - Short-seller report rebuttal assistant

Usage:
  hanron server [flags]             Start the HTTP API server
  hanron index [flags]              Index internal evidence documents
  hanron analyze -report <file>     Run the full pipeline on one report
  hanron status [flags]             Show collection and provider status
  hanron version                    Show version
  hanron help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/hanron/config.yaml)
  --debug            Enable debug logging
  --watch            Re-index when source documents change (default: true)

Index Flags:
  --config string    Config file path
  --source string    Source directory override

Analyze Flags:
  --config string    Config file path
  --report string    Short report file (.pdf .txt .docx)
  --top-k int        Evidence chunks per claim
  --max-claims int   Limit the number of analyzed claims

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Examples:
  hanron server
  hanron index --source ./data/internal_docs
  hanron analyze --report short_report.pdf
  hanron status --output json`)
}
