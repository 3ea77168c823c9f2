package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/config"
	"github.com/young1lin/aisearch/internal/handler"
	"github.com/young1lin/aisearch/internal/metrics"
	"github.com/young1lin/aisearch/internal/search"
	"github.com/young1lin/aisearch/pkg/logger"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
)

var (
	cfgFile string
	port    int
	showVer bool
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "aisearch",
	Short: "AI-assisted web search service",
	Long: `An HTTP service that classifies a search query with a language model,
fetches web and image results from the search provider in parallel and
returns them together with a short AI-generated summary.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			fmt.Printf("aisearch %s (built %s)\n", Version, BuildDate)
			return
		}

		cfg := loadConfig()
		defer logger.Sync()

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
		)

		startServer(cfg)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a single search and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if format != "json" && format != "markdown" {
			return fmt.Errorf("unknown format %q (want json or markdown)", format)
		}

		cfg := loadConfig()
		defer logger.Sync()

		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return errors.New("query must not be empty")
		}

		a := newApp(cfg, logger.Log)
		result, err := a.pipeline.Search(cmd.Context(), query)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "markdown" {
			fmt.Fprintln(out, search.FormatMarkdown(result.TextResults))
			return nil
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file path")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "v", false, "show version")
	searchCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or markdown")

	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, applies flag overrides and initializes the logger
func loadConfig() *config.Config {
	cfg := config.Load(cfgFile)

	// Override config with command line flags
	if port > 0 {
		cfg.Server.Port = port
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration loaded",
		zap.String("search_base_url", cfg.Search.BaseURL),
		zap.String("llm_base_url", cfg.LLM.BaseURL),
		zap.String("llm_model", cfg.LLM.Model),
	)
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration warning", zap.String("detail", w))
	}
	return cfg
}

func startServer(cfg *config.Config) {
	a := newApp(cfg, logger.Log)

	searchHandler := handler.NewSearchHandler(a.pipeline, a.status, metrics.Registry, logger.Named("http"))

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      searchHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Print startup info
	fmt.Printf(`
aisearch %s
  Server:  http://%s:%d
  Search:  http://%s:%d/v1/search
  Status:  http://%s:%d/status
  Metrics: http://%s:%d/metrics

`, Version,
		cfg.Server.Host, cfg.Server.Port,
		cfg.Server.Host, cfg.Server.Port,
		cfg.Server.Host, cfg.Server.Port,
		cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
