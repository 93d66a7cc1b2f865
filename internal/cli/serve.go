package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/auth"
	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/db"
	"github.com/robalobadob/wordsearch/internal/httpserver"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

func newServeCmd(g *globalOpts) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			ctx := cmd.Context()
			if g.logLevel == "" && cfg.LogLevel != "" {
				logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
				if err != nil {
					return err
				}
				log.Logger = logger
				ctx = logger.WithContext(ctx)
			}
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

// runServe opens storage, loads the word bank and serves until ctx ends.
// Accounts and daily results always live in SQLite; the store backend
// only decides where games are kept.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := zerolog.Ctx(ctx)
	if cfg.Production {
		// Structured JSON for log shippers.
		l := zerolog.New(os.Stderr).Level(logger.GetLevel()).With().Timestamp().Logger()
		logger = &l
		log.Logger = l
	}

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn, assets.Migrations()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	st, err := openStore(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer st.Close()

	bank, err := words.Load(cfg.WordsFile)
	if err != nil {
		return err
	}

	srv := httpserver.New(httpserver.Deps{
		Store: st,
		DB:    conn,
		Auth: auth.NewService(conn, auth.Config{
			Secret:     cfg.JWTSecret,
			TTL:        cfg.JWTTTL(),
			CookieName: cfg.CookieName,
			Secure:     cfg.Production,
		}),
		Words:  bank,
		Config: cfg,
		Logger: logger,
	})

	logger.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreBackend).
		Int("words", bank.Len()).
		Msg("starting wordsearch server")
	return srv.Run(ctx, ":"+cfg.Port)
}

// openStore builds the configured game store.
func openStore(ctx context.Context, cfg config.Config, conn *sql.DB) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		st, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisTTL())
		if err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return st, nil
	default:
		return store.NewSQLiteStore(conn), nil
	}
}
