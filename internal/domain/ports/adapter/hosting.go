package adapter

import (
	"context"

	"telegram-imgbb-uploader/internal/domain/model"
)

// ImageHost uploads a single image and reports the normalized outcome.
// Implementations never return a Go error: every failure is folded into the outcome.
type ImageHost interface {
	Upload(ctx context.Context, payload model.ImagePayload) model.UploadOutcome
}
