package application

import (
	"context"
	"html"
	"strings"
	"time"

	"telegram-imgbb-uploader/internal/domain/model"
	"telegram-imgbb-uploader/internal/domain/ports/adapter"
	"telegram-imgbb-uploader/internal/infra/i18n"
	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/metrics"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Reply is a rendered bot response in Telegram HTML.
type Reply struct {
	Text           string
	Rows           [][]adapter.InlineButton
	DisablePreview bool
}

// RelayFacade sits between the Telegram adapter and the image host.
// It keeps no per-user state; every call is independent.
type RelayFacade struct {
	host         adapter.ImageHost
	t            *i18n.Translator
	maxFileBytes int64
	log          *zerolog.Logger
}

func NewRelayFacade(host adapter.ImageHost, translator *i18n.Translator, maxFileBytes int64, logger *zerolog.Logger) *RelayFacade {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RelayFacade{host: host, t: translator, maxFileBytes: maxFileBytes, log: logger}
}

func (f *RelayFacade) HandleStart(firstName string) Reply {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return Reply{Text: f.t.T("start", html.EscapeString(name))}
}

func (f *RelayFacade) HandleHelp() Reply {
	return Reply{Text: f.t.T("help", f.MaxFileSize())}
}

// MaxFileSize is the configured ceiling in human form, e.g. "10 MiB".
func (f *RelayFacade) MaxFileSize() string {
	return humanize.IBytes(uint64(f.maxFileBytes))
}

// Text returns a plain notice for key.
func (f *RelayFacade) Text(key string, args ...interface{}) string {
	return f.t.T(key, args...)
}

// HandleImage uploads payload and renders the outcome. Failure detail is logged, never shown.
func (f *RelayFacade) HandleImage(ctx context.Context, payload model.ImagePayload) Reply {
	l := logging.With(ctx, f.log)

	start := time.Now()
	out := f.host.Upload(ctx, payload)
	elapsed := time.Since(start)
	metrics.ObserveUpload(out.OK, string(out.Kind), len(payload.Data), elapsed)

	if out.OK {
		l.Info().
			Str("filename", payload.Filename).
			Int64("size", payload.Size).
			Dur("duration", elapsed).
			Msg("image uploaded")
	} else {
		l.Warn().
			Err(out.Err()).
			Str("kind", string(out.Kind)).
			Str("filename", payload.Filename).
			Int64("size", payload.Size).
			Dur("duration", elapsed).
			Msg("image upload failed")
	}
	return FormatOutcome(f.t, out)
}
