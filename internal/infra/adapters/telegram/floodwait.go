package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-imgbb-uploader/internal/domain"
	"telegram-imgbb-uploader/internal/infra/logging"
	"telegram-imgbb-uploader/internal/infra/metrics"
)

// retryAfter extracts the flood-wait cooldown from a Bot API error (HTTP 429).
func retryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}
	var pe *tgbotapi.Error
	if errors.As(err, &pe) && pe != nil && pe.RetryAfter > 0 {
		return time.Duration(pe.RetryAfter) * time.Second
	}
	var ve tgbotapi.Error
	if errors.As(err, &ve) && ve.RetryAfter > 0 {
		return time.Duration(ve.RetryAfter) * time.Second
	}
	return 0
}

// rateLimitedError reports a flood wait that could not be sat out.
type rateLimitedError struct {
	wait  time.Duration
	cause error
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("%v: retry after %s: %v", domain.ErrRateLimited, e.wait, e.cause)
}

func (e *rateLimitedError) Unwrap() error { return domain.ErrRateLimited }

func (r *RealTelegramBotAdapter) cooldown(ctx context.Context, wait time.Duration) error {
	metrics.IncFloodWait()
	logging.With(ctx, r.log).Warn().Dur("retry_after", wait).Msg("telegram flood wait")
	if err := r.sleep(ctx, wait); err != nil {
		return &rateLimitedError{wait: wait, cause: err}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// scrub drops the request URL from transport errors; Bot API URLs embed the token.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
