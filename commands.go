package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yanni/community/auth"
	"github.com/yanni/community/config"
	"github.com/yanni/community/routes"
	"github.com/yanni/community/services"
	"github.com/yanni/community/store"
	"github.com/yanni/community/utils"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			utils.Sugar.Info("migration complete")
			return nil
		},
	}
}

func newCreateUserCommand() *cobra.Command {
	var email, password, nickname string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an account from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			manager := store.NewManager(db, nil)
			return manager.Run(cmd.Context(), func(s *store.Session) error {
				u, err := s.Users().Register(store.Registration{
					Email:           email,
					Password:        password,
					PasswordConfirm: password,
					Nickname:        nickname,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user id=%d email=%s nickname=%s\n", u.ID, u.Email, u.Nickname)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "test@example.com", "account email")
	cmd.Flags().StringVar(&password, "password", "Test1234!", "account password")
	cmd.Flags().StringVar(&nickname, "nickname", "tester", "account nickname")
	return cmd
}

// bootstrap loads configuration, starts logging and opens the database.
func bootstrap() (config.AppConfig, *gorm.DB, error) {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func runServe() error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer utils.Logger.Sync()

	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	revocations := auth.NewRevocations(utils.NewRedis(cfg))
	guard := auth.NewGuard(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, revocations)
	manager := store.NewManager(db, guard)

	var dispatcher *services.Dispatcher
	if cfg.AIEnabled {
		dispatcher, err = newDispatcher(cfg, manager)
		if err != nil {
			return err
		}
	}

	r := routes.SetupRouter(routes.Deps{
		Config:     cfg,
		Manager:    manager,
		Guard:      guard,
		Dispatcher: dispatcher,
	})

	srv := utils.NewServer(":"+cfg.AppPort, r, time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	srv.OnShutdown(func(ctx context.Context) {
		if err := dispatcher.Wait(ctx); err != nil {
			utils.Logger.Warn("ai comment jobs still running at shutdown", zap.Error(err))
		}
	})
	srv.OnShutdown(func(context.Context) { closeDB(db) })

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return srv.ListenAndServe()
}

func newDispatcher(cfg config.AppConfig, manager *store.Manager) (*services.Dispatcher, error) {
	aiCfg, err := services.LoadAIConfig(cfg.AIConfigPath)
	if err != nil {
		utils.Logger.Warn("using default ai settings", zap.Error(err))
	}
	commenter := services.NewCommenter(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, aiCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	botID, err := services.EnsureBot(ctx, manager, cfg.BotEmail, cfg.BotNickname)
	if err != nil {
		return nil, fmt.Errorf("ensure ai bot user: %w", err)
	}
	return services.NewDispatcher(manager, commenter, botID), nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
