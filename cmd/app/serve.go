package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"telegram-imgbb-uploader/internal/application"
	"telegram-imgbb-uploader/internal/config"
	"telegram-imgbb-uploader/internal/infra/adapters/imgbb"
	tele "telegram-imgbb-uploader/internal/infra/adapters/telegram"
	httpapi "telegram-imgbb-uploader/internal/infra/http"
	"telegram-imgbb-uploader/internal/infra/i18n"
	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/metrics"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (long polling) and its liveness endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(parent context.Context, flags *rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(flags.configPath, flags.dev)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().
		Str("version", version).
		Bool("dev", cfg.Runtime.Dev).
		Str("imgbb_key", logging.Redact(cfg.ImgBB.APIKey, cfg.Runtime.Dev)).
		Msg("starting imgbb bot")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- ImgBB ----
	host, err := imgbb.NewAdapter(&cfg.ImgBB, logger)
	if err != nil {
		return fmt.Errorf("imgbb: %w", err)
	}
	facade := application.NewRelayFacade(host, translator, cfg.Bot.MaxFileBytes, logger)

	// ---- Telegram ----
	bot, err := tele.NewRealTelegramBotAdapter(cfg, facade, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if err := bot.SetMenuCommands(ctx); err != nil {
		logger.Warn().Err(err).Msg("set bot commands failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := bot.StartPolling(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if cfg.HTTP.Port > 0 {
		srv := httpapi.NewServer("liveness", cfg.HTTP.Port, httpapi.LivenessRouter(cfg.HTTP.Body, logger), logger)
		g.Go(func() error { return srv.Run(gctx) })
	}
	if cfg.Metrics.Port > 0 {
		srv := httpapi.NewServer("metrics", cfg.Metrics.Port, httpapi.MetricsRouter(), logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	err = g.Wait()
	logger.Info().Err(err).Msg("shutdown complete")
	return err
}
