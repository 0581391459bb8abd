package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-imgbb-uploader/internal/application"
	"telegram-imgbb-uploader/internal/config"
	"telegram-imgbb-uploader/internal/domain/ports/adapter"
	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botClient is the subset of *tgbotapi.BotAPI the adapter uses.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RealTelegramBotAdapter long-polls updates and routes each message through the dispatch table.
type RealTelegramBotAdapter struct {
	bot    botClient
	cfg    config.BotConfig
	facade *application.RelayFacade

	download *http.Client
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zerolog.Logger
	routes   []route

	mu            sync.Mutex
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.Config, facade *application.RelayFacade, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", scrub(err))
	}
	bot.Debug = cfg.Runtime.Dev
	return newAdapter(bot, cfg, facade, logger)
}

func newAdapter(bot botClient, cfg *config.Config, facade *application.RelayFacade, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if facade == nil {
		return nil, errors.New("relay facade is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r := &RealTelegramBotAdapter{
		bot:      bot,
		cfg:      cfg.Bot,
		facade:   facade,
		download: &http.Client{Timeout: cfg.Bot.DownloadTimeout},
		sleep:    sleepCtx,
		log:      logger,
	}
	r.routes = r.buildRoutes()
	return r, nil
}

// StartPolling blocks until ctx is cancelled or the update channel closes.
// Each update runs on its own goroutine, so a handler sitting out a flood
// wait never holds up the others.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = r.cfg.PollTimeout
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelPolling = cancel
	r.mu.Unlock()
	defer cancel()

	pool := worker.NewPool(r.log)
	pool.Start(ctx)
	defer pool.Stop()

	r.log.Info().Int("poll_timeout", r.cfg.PollTimeout).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if err := pool.Submit(ctx, func(ctx context.Context) error { return r.HandleUpdate(ctx, up) }); err != nil {
				r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

type statusKey struct{}

// statusSlot holds the status message posted for the current update, if any.
type statusSlot struct {
	msg *tgbotapi.Message
}

func rememberStatus(ctx context.Context, status tgbotapi.Message) {
	if slot, ok := ctx.Value(statusKey{}).(*statusSlot); ok {
		slot.msg = &status
	}
}

// HandleUpdate processes one update. Any panic is recovered here and
// answered with the generic error text, replacing the status message when
// one was already posted.
func (r *RealTelegramBotAdapter) HandleUpdate(ctx context.Context, update tgbotapi.Update) (err error) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}

	slot := &statusSlot{}
	ctx = context.WithValue(ctx, statusKey{}, slot)
	ctx = logging.WithTraceID(ctx, ulid.Make().String())
	ctx = logging.WithChatID(ctx, msg.Chat.ID)
	if msg.From != nil {
		ctx = logging.WithTgID(ctx, msg.From.ID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.With(ctx, r.log).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("update handler panicked")
			text := r.facade.Text("error")
			if slot.msg != nil {
				_ = r.editStatus(ctx, *slot.msg, application.Reply{Text: text})
			} else {
				_, _ = r.replyTo(ctx, msg, text)
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return r.dispatch(ctx, msg)
}

// SendMessage implements adapter.TelegramBotAdapter.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.send(ctx, msg)
	return err
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.SwitchQuery is set, the button opens the inline share picker
// - Else btn.Data (or btn.Text) is sent back as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := keyboard(rows); ok {
		msg.ReplyMarkup = kb
	}
	_, err := r.send(ctx, msg)
	return err
}

func keyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.SwitchQuery != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonSwitch(label, btn.SwitchQuery))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}

// replyTo answers msg in its chat, quoting it.
func (r *RealTelegramBotAdapter) replyTo(ctx context.Context, msg *tgbotapi.Message, text string) (tgbotapi.Message, error) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyToMessageID = msg.MessageID
	return r.send(ctx, out)
}

// editStatus rewrites a previously sent status message.
func (r *RealTelegramBotAdapter) editStatus(ctx context.Context, status tgbotapi.Message, reply application.Reply) error {
	edit := tgbotapi.NewEditMessageText(status.Chat.ID, status.MessageID, reply.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = reply.DisablePreview
	if kb, ok := keyboard(reply.Rows); ok {
		edit.ReplyMarkup = &kb
	}
	_, err := r.send(ctx, edit)
	return err
}

// send delivers c, honoring one flood-wait cooldown before a single resend.
// Only the calling handler sleeps.
func (r *RealTelegramBotAdapter) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := r.bot.Send(c)
	if err == nil {
		return m, nil
	}
	wait := retryAfter(err)
	if wait <= 0 {
		return m, scrub(err)
	}
	if err := r.cooldown(ctx, wait); err != nil {
		return m, err
	}
	m, err = r.bot.Send(c)
	return m, scrub(err)
}
