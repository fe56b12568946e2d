package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/config"
	"github.com/abhisek/lyfeline/internal/leaderboard"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/llm"
	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/mail"
	"github.com/abhisek/lyfeline/internal/progress"
	"github.com/abhisek/lyfeline/internal/quiz"
	"github.com/abhisek/lyfeline/internal/server"
	"github.com/abhisek/lyfeline/internal/shop"
)

// leaderboardSeed is how many profiles are loaded into Redis at startup.
const leaderboardSeed = 1000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides LYFELINE_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Env, logger.Options{
		DisableRedaction: cfg.Log.DisableRedaction,
		HashSalt:         cfg.Log.HashSalt,
	})
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store ready", "dialect", st.Dialect())

	provider, err := llm.NewProvider(ctx, cfg.LLM, st.LLMEvents(), log)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	gen := quiz.New(provider, quiz.Config{
		StructuredOutput: cfg.Quiz.StructuredOutput,
		MaxTokens:        cfg.Quiz.MaxTokens,
		Temperature:      cfg.Quiz.Temperature,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = leaderboard.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, leaderboard served from database", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	board := leaderboard.New(rdb, st)
	if board.Enabled() {
		n, err := board.Sync(ctx, leaderboardSeed)
		if err != nil {
			log.Warn("leaderboard sync failed", "error", err)
		} else {
			log.Info("leaderboard synced", "profiles", n)
		}
	}

	var receipts shop.ReceiptSender
	if cfg.Mail.ResendAPIKey != "" {
		sender, err := mail.NewResendSender(cfg.Mail.ResendAPIKey)
		if err != nil {
			return fmt.Errorf("mail: %w", err)
		}
		d := mail.NewDispatcher(sender, cfg.Mail.From, cfg.Mail.QueueSize, log.With("component", "mail"))
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := d.Close(closeCtx); err != nil {
				log.Warn("mail queue not drained", "error", err)
			}
		}()
		receipts = d
	} else {
		log.Info("RESEND_API_KEY not set, purchase receipts disabled")
	}

	catalog := lessons.Default()
	srv := server.New(server.Config{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	}, server.Deps{
		Profiles: st,
		Catalog:  catalog,
		Quiz:     gen,
		Progress: progress.NewService(st, catalog,
			progress.WithLeaderboard(board),
			progress.WithLogger(log.With("component", "progress"))),
		Shop:  shop.NewService(st, receipts, board, log.With("component", "shop")),
		Board: board,
		Log:   log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "llm_provider", cfg.LLM.Provider, "model", provider.ModelID())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
