package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alias1177/MatchScout/internal/app"
	"github.com/Alias1177/MatchScout/internal/config"
	"github.com/Alias1177/MatchScout/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	app.SetupLogger(cfg.LogLevel)

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on account")

	var history telegram.HistoryReader
	if a.History != nil {
		history = a.History
	}
	bot := telegram.New(api, a.Reports, history)
	bot.SetReportTimeout(cfg.ReportTimeout())

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	log.Info().Msg("Bot is now running. Press CTRL-C to exit.")
	bot.Run(ctx, updates)

	api.StopReceivingUpdates()
	log.Info().Msg("Bot stopped")
}
