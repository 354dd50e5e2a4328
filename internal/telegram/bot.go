// Package telegram exposes scout reports through a Telegram bot.
package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Alias1177/MatchScout/internal/database"
	"github.com/Alias1177/MatchScout/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender is the part of tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ReportService generates reports.
type ReportService interface {
	Teams() []string
	Generate(ctx context.Context, teamA, teamB string) (*models.ScoutReport, error)
}

// HistoryReader lists served reports.
type HistoryReader interface {
	RecentReports(ctx context.Context, limit int) ([]database.ReportSummary, error)
}

const welcomeText = `Welcome to the Match Scout bot!

/teams - list the known teams
/predict Team A vs Team B - scout report for a match
/predict - pick both teams from a menu
/history - latest reports`

var vsPattern = regexp.MustCompile(`(?i)\s+(?:vs\.?|v\.?)\s+`)

// ParseMatchup splits "Team A vs Team B".
func ParseMatchup(args string) (string, string, bool) {
	parts := vsPattern.Split(strings.TrimSpace(args), 2)
	if len(parts) != 2 {
		return "", "", false
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// Bot handles updates. Menu selections are kept per chat.
type Bot struct {
	api           Sender
	reports       ReportService
	history       HistoryReader
	logger        zerolog.Logger
	reportTimeout time.Duration

	mu    sync.Mutex
	picks map[int64]string // chat -> team A chosen from the menu
}

// New creates a bot. history may be nil.
func New(api Sender, reports ReportService, history HistoryReader) *Bot {
	return &Bot{
		api:           api,
		reports:       reports,
		history:       history,
		logger:        log.With().Str("component", "telegram").Logger(),
		reportTimeout: 2 * time.Minute,
		picks:         make(map[int64]string),
	}
}

// SetReportTimeout bounds each report request. Non-positive values are ignored.
func (b *Bot) SetReportTimeout(d time.Duration) {
	if d > 0 {
		b.reportTimeout = d
	}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		b.send(chatID, "Send /predict Team A vs Team B, or /start for help.")
		return
	}

	command, args, _ := strings.Cut(text, " ")
	// "/predict@MyBot" in group chats
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start", "/help":
		b.send(chatID, welcomeText)
	case "/teams":
		b.send(chatID, "Known teams:\n"+strings.Join(b.reports.Teams(), "\n"))
	case "/predict":
		if strings.TrimSpace(args) == "" {
			b.sendTeamMenu(chatID, "Select the first team:", "a", "")
			return
		}
		teamA, teamB, ok := ParseMatchup(args)
		if !ok {
			b.send(chatID, "Usage: /predict Team A vs Team B")
			return
		}
		b.sendReport(ctx, chatID, teamA, teamB)
	case "/history":
		b.sendHistory(ctx, chatID)
	default:
		b.send(chatID, "Unknown command. Send /start for help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Acknowledge the callback query
	b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	side, idx, ok := strings.Cut(callback.Data, "_")
	if !ok {
		return
	}
	teams := b.reports.Teams()
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(teams) {
		b.send(chatID, "That menu is out of date, send /predict again.")
		return
	}
	team := teams[i]

	switch side {
	case "a":
		b.mu.Lock()
		b.picks[chatID] = team
		b.mu.Unlock()
		b.sendTeamMenu(chatID, fmt.Sprintf("%s vs ... select the opponent:", team), "b", team)
	case "b":
		b.mu.Lock()
		teamA, ok := b.picks[chatID]
		delete(b.picks, chatID)
		b.mu.Unlock()
		if !ok {
			b.send(chatID, "Select the first team again with /predict.")
			return
		}
		b.sendReport(ctx, chatID, teamA, team)
	}
}

// sendTeamMenu lists the teams as buttons, two per row, skipping exclude.
func (b *Bot) sendTeamMenu(chatID int64, text, side, exclude string) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, team := range b.reports.Teams() {
		if team == exclude {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(team, fmt.Sprintf("%s_%d", side, i)))
		if len(row) == 2 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	if len(keyboard) == 0 {
		b.send(chatID, "No teams available.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send menu")
	}
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, teamA, teamB string) {
	b.send(chatID, fmt.Sprintf("Crunching numbers for %s vs %s...", teamA, teamB))

	ctx, cancel := context.WithTimeout(ctx, b.reportTimeout)
	defer cancel()
	report, err := b.reports.Generate(ctx, teamA, teamB)
	if err != nil {
		b.logger.Warn().Err(err).Str("team_a", teamA).Str("team_b", teamB).Msg("Report failed")
		b.send(chatID, "Could not build the report: "+err.Error())
		return
	}
	b.send(chatID, FormatReport(report))
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64) {
	if b.history == nil {
		b.send(chatID, "Report history is not enabled.")
		return
	}
	reports, err := b.history.RecentReports(ctx, 5)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to load history")
		b.send(chatID, "Could not load the history right now.")
		return
	}
	if len(reports) == 0 {
		b.send(chatID, "No reports yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Latest reports:\n")
	for _, r := range reports {
		sb.WriteString(fmt.Sprintf("%s  %s vs %s: %.0f%% / %.0f%% / %.0f%%\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.TeamA, r.TeamB,
			r.Probabilities.TeamAWin()*100, r.Probabilities.Draw()*100, r.Probabilities.TeamBWin()*100))
	}
	b.send(chatID, sb.String())
}

// FormatReport renders a report as a plain text message.
func FormatReport(r *models.ScoutReport) string {
	p := r.Prediction.Probabilities
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %s vs %s\n\n", r.Prediction.TeamA, r.Prediction.TeamB))
	sb.WriteString(fmt.Sprintf("%s win: %.1f%%\nDraw: %.1f%%\n%s win: %.1f%%\n\n",
		r.Prediction.TeamA, p.TeamAWin()*100, p.Draw()*100, r.Prediction.TeamB, p.TeamBWin()*100))
	sb.WriteString("PERCENTS\n" + r.Percents + "\n\n")
	sb.WriteString("INSIGHT\n" + r.Insight + "\n\n")
	sb.WriteString("REASONING\n" + r.Reasoning)
	if r.Degraded {
		sb.WriteString("\n\n(AI commentary unavailable, statistical forecast only)")
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
