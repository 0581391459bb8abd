package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-imgbb-uploader/internal/domain"
)

const defaultExt = ".jpg"

type attachment struct {
	fileID   string
	mimeType string
	size     int64
	name     string
}

// attachmentOf picks the image carried by message: the largest photo size,
// or a document whose declared MIME type is image/*.
func attachmentOf(message *tgbotapi.Message) (attachment, error) {
	if len(message.Photo) > 0 {
		p := largestPhoto(message.Photo)
		return attachment{fileID: p.FileID, mimeType: "image/jpeg", size: int64(p.FileSize)}, nil
	}
	if d := message.Document; d != nil {
		if !strings.HasPrefix(strings.ToLower(d.MimeType), "image/") {
			return attachment{}, fmt.Errorf("%w: %q", domain.ErrNotImage, d.MimeType)
		}
		return attachment{fileID: d.FileID, mimeType: d.MimeType, size: int64(d.FileSize), name: d.FileName}, nil
	}
	return attachment{}, domain.ErrNotImage
}

// largestPhoto returns the size variant with the most pixels. Telegram sends
// them ascending, but ties and odd orderings happen.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height ||
			(s.Width*s.Height == best.Width*best.Height && s.FileSize > best.FileSize) {
			best = s
		}
	}
	return best
}

// fetch resolves the attachment to a download URL and reads at most
// MaxFileBytes from it.
func (r *RealTelegramBotAdapter) fetch(ctx context.Context, att attachment) ([]byte, error) {
	link, err := r.bot.GetFileDirectURL(att.fileID)
	if wait := retryAfter(err); wait > 0 {
		if err := r.cooldown(ctx, wait); err != nil {
			return nil, err
		}
		link, err = r.bot.GetFileDirectURL(att.fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get file: %v", domain.ErrTransport, scrub(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, scrub(err))
	}
	resp, err := r.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, scrub(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: file download status %d", domain.ErrTransport, resp.StatusCode)
	}

	limit := r.cfg.MaxFileBytes
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, scrub(err))
	}
	if int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// filenameFor builds img_<userID>_<unix date><ext>, the extension taken from
// the content itself.
func filenameFor(message *tgbotapi.Message, data []byte) string {
	var id int64
	switch {
	case message.From != nil:
		id = message.From.ID
	case message.Chat != nil:
		id = message.Chat.ID
	}
	return fmt.Sprintf("img_%d_%d%s", id, message.Date, extensionOf(data))
}

func extensionOf(data []byte) string {
	m := mimetype.Detect(data)
	if strings.HasPrefix(m.String(), "image/") && m.Extension() != "" {
		return m.Extension()
	}
	return defaultExt
}

func mimeTypeOf(data []byte, declared string) string {
	m := mimetype.Detect(data)
	if strings.HasPrefix(m.String(), "image/") {
		return m.String()
	}
	if declared != "" {
		return declared
	}
	return "image/jpeg"
}
