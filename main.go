package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/JustAGhosT/codeflow-engine/internal/config"
	_ "github.com/JustAGhosT/codeflow-engine/internal/metrics" // Import for side effects
	"github.com/JustAGhosT/codeflow-engine/internal/patterns"
	"github.com/JustAGhosT/codeflow-engine/internal/splitter"
)

func main() {
	os.Exit(run())
}

// run holds the real entrypoint so deferred cleanup (logger sync,
// signal teardown) executes before the process exits.
func run() int {
	var (
		configPath  = flag.String("config", getEnvOrDefault("CODEFLOW_CONFIG", ""), "path to config file (yaml or json)")
		dryRun      = flag.Bool("dry-run", false, "report decisions without modifying files")
		jsonOut     = flag.Bool("json", false, "emit results as JSON")
		metricsAddr = flag.String("metrics-addr", getEnvOrDefault("CODEFLOW_METRICS_ADDR", ""), "address for the Prometheus metrics endpoint (empty disables)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: codeflow [flags] <file-or-dir> ...")
		flag.PrintDefaults()
		return 2
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return 1
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("Metrics server listening", zap.String("address", *metricsAddr))
			srv := &http.Server{
				Addr:         *metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	paths, err := collectGoFiles(flag.Args())
	if err != nil {
		logger.Error("Failed to collect input files", zap.Error(err))
		return 1
	}
	if len(paths) == 0 {
		logger.Warn("No Go files found in the given paths")
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := splitter.NewFileSplitter(cfg, nil, patterns.NewMemoryStore(logger), logger)

	if *dryRun {
		exitCode := 0
		for _, path := range paths {
			dec, err := engine.ShouldSplitFile(ctx, path)
			if err != nil {
				logger.Error("Dry run failed", zap.String("path", path), zap.Error(err))
				exitCode = 1
				continue
			}
			if *jsonOut {
				printJSON(map[string]any{
					"path":        path,
					"shouldSplit": dec.ShouldSplit,
					"strategy":    dec.Strategy.String(),
					"confidence":  dec.Confidence,
					"reasons":     dec.Reasoning,
				})
			} else {
				fmt.Printf("%s: split=%t strategy=%s confidence=%.2f (%s)\n",
					path, dec.ShouldSplit, dec.Strategy, dec.Confidence, strings.Join(dec.Reasoning, "; "))
			}
		}
		return exitCode
	}

	results, err := engine.SplitBatch(ctx, paths)
	if err != nil {
		logger.Error("Batch interrupted", zap.Error(err))
	}

	exitCode := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		if !res.Success {
			exitCode = 1
		}
		if *jsonOut {
			printJSON(res)
			continue
		}
		switch {
		case res.Success && len(res.Components) > 0:
			fmt.Printf("%s: split into %d components (%s, %.2fs)\n",
				res.Path, len(res.Components), res.Strategy, res.ProcessingTime.Seconds())
		case res.Success:
			fmt.Printf("%s: no split needed\n", res.Path)
		default:
			fmt.Printf("%s: failed: %s\n", res.Path, strings.Join(res.Errors, "; "))
		}
	}
	return exitCode
}

// collectGoFiles expands the arguments into a flat list of Go source
// files, walking directories and skipping vendor, testdata, and hidden
// or underscore-prefixed entries the Go toolchain would ignore.
func collectGoFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != arg && (name == "vendor" || name == "testdata" ||
					strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func printJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
