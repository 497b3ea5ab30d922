package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"ai-patient/internal/config"
	"ai-patient/internal/core"
	"ai-patient/internal/history"
	httpserver "ai-patient/internal/http"
	"ai-patient/internal/llm"
	"ai-patient/internal/logging"
	"ai-patient/internal/scenario"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "ai-patient",
		Short:         "Simulated patient API for nursing students",
		Long:          "Serves simulated patient conversations, physical exams, diagnostic tests and feedback backed by an OpenAI-compatible model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("addr", "", "listen address (env ADDR or PORT, default :8080)")
	flags.String("scenarios-dir", "", "directory of scenario YAML files (env SCENARIOS_DIR)")
	flags.String("model", "", "chat completion model (env OPENAI_MODEL)")
	flags.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	for key, name := range map[string]string{
		config.KeyAddr:         "addr",
		config.KeyScenariosDir: "scenarios-dir",
		config.KeyOpenAIModel:  "model",
		config.KeyLogLevel:     "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), v)
			},
		},
		&cobra.Command{
			Use:   "scenarios",
			Short: "Load the scenario directory and list what was found",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listScenarios(cmd, v)
			},
		},
	)
	return root
}

// loadDotEnv loads .env from the working directory.  Variables already in
// the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func serve(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	client, err := llm.New(cfg.LLMProvider, llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return err
	}

	scenarios, err := scenario.Load(cfg.ScenariosDir, logger)
	if err != nil {
		return err
	}
	logger.Info("scenarios loaded", slog.Int("count", scenarios.Len()), slog.String("dir", cfg.ScenariosDir))

	hist := history.NewStore(cfg.HistoryCap)
	srv := httpserver.NewServer(
		scenarios,
		core.NewChatService(client, scenarios, hist, logger),
		core.NewFeedbackService(client, logger),
		core.NewExamService(client, scenarios, logger),
		logger,
		httpserver.Options{
			CORSOrigins:    cfg.CORSOrigins,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.Addr),
			slog.String("provider", cfg.LLMProvider), slog.String("model", cfg.OpenAIModel))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func listScenarios(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	scenarios, err := scenario.Load(cfg.ScenariosDir, logger)
	if err != nil {
		return err
	}
	if scenarios.Len() == 0 {
		return errors.Errorf("no scenarios loaded from %s", cfg.ScenariosDir)
	}
	out := cmd.OutOrStdout()
	for _, s := range scenarios.List() {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Title)
	}
	return nil
}
