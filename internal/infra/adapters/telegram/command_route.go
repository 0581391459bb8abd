package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-imgbb-uploader/internal/application"
	"telegram-imgbb-uploader/internal/domain"
	"telegram-imgbb-uploader/internal/domain/model"
	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/metrics"
)

type messageHandler func(ctx context.Context, message *tgbotapi.Message) error

// route pairs a predicate with its handler. Routes are tried in order; first match wins.
type route struct {
	name   string
	match  func(message *tgbotapi.Message) bool
	handle messageHandler
}

func (r *RealTelegramBotAdapter) buildRoutes() []route {
	return []route{
		{name: "start", match: isCommand("start"), handle: r.handleStartCommand},
		{name: "help", match: isCommand("help"), handle: r.handleHelpCommand},
		{name: "photo", match: hasPhoto, handle: r.handleImage},
		{name: "document", match: hasDocument, handle: r.handleImage},
		{name: "text", match: hasText, handle: r.handleFallback},
	}
}

func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, message *tgbotapi.Message) error {
	for _, rt := range r.routes {
		if rt.match(message) {
			metrics.IncTelegramUpdate(rt.name)
			return rt.handle(ctx, message)
		}
	}
	return nil
}

func isCommand(name string) func(*tgbotapi.Message) bool {
	return func(m *tgbotapi.Message) bool { return m.IsCommand() && m.Command() == name }
}

func hasPhoto(m *tgbotapi.Message) bool    { return len(m.Photo) > 0 }
func hasDocument(m *tgbotapi.Message) bool { return m.Document != nil }
func hasText(m *tgbotapi.Message) bool     { return m.Text != "" }

// SetMenuCommands publishes the command list shown in Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Welcome message"},
		tgbotapi.BotCommand{Command: "help", Description: "How to upload an image"},
	)
	_, err := r.bot.Request(cfg)
	return scrub(err)
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	name := ""
	if message.From != nil {
		name = message.From.FirstName
	}
	_, err := r.replyTo(ctx, message, r.facade.HandleStart(name).Text)
	return err
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	_, err := r.replyTo(ctx, message, r.facade.HandleHelp().Text)
	return err
}

func (r *RealTelegramBotAdapter) handleFallback(ctx context.Context, message *tgbotapi.Message) error {
	if message.IsCommand() {
		return r.handleHelpCommand(ctx, message)
	}
	_, err := r.replyTo(ctx, message, r.facade.Text("fallback"))
	return err
}

// handleImage runs the pipeline: checks → download → upload → reply.
// Non-image documents and oversized files are rejected before any download.
func (r *RealTelegramBotAdapter) handleImage(ctx context.Context, message *tgbotapi.Message) error {
	l := logging.With(ctx, r.log)

	att, err := attachmentOf(message)
	if err != nil {
		metrics.IncRejection("not_image")
		_, err := r.replyTo(ctx, message, r.facade.Text("not_image"))
		return err
	}
	if att.size > r.cfg.MaxFileBytes {
		metrics.IncRejection("too_large")
		l.Info().Int64("declared_size", att.size).Msg("attachment over size limit")
		_, err := r.replyTo(ctx, message, r.facade.Text("too_large", r.facade.MaxFileSize()))
		return err
	}
	status, err := r.replyTo(ctx, message, r.facade.Text("downloading"))
	if err != nil {
		return err
	}
	if status.Chat == nil {
		status.Chat = message.Chat
	}
	rememberStatus(ctx, status)

	data, err := r.fetch(ctx, att)
	if err != nil {
		l.Warn().Err(err).Str("file_id", att.fileID).Msg("attachment download failed")
		return r.editStatus(ctx, status, r.failureReply(err))
	}

	payload := model.NewImagePayload(data, filenameFor(message, data), mimeTypeOf(data, att.mimeType))
	if err := r.editStatus(ctx, status, application.Reply{Text: r.facade.Text("uploading")}); err != nil {
		l.Debug().Err(err).Msg("status edit failed")
	}

	reply := r.facade.HandleImage(ctx, payload)
	return r.editStatus(ctx, status, reply)
}

func (r *RealTelegramBotAdapter) failureReply(err error) application.Reply {
	var rl *rateLimitedError
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return application.Reply{Text: r.facade.Text("too_large", r.facade.MaxFileSize())}
	case errors.As(err, &rl):
		return application.Reply{Text: r.facade.Text("rate_limited", int(rl.wait.Seconds()))}
	default:
		return application.Reply{Text: r.facade.Text("error")}
	}
}
