package adapter

import "context"

// InlineButton is one button of an inline keyboard.
// URL opens a link, SwitchQuery opens the inline-share picker, Data sends a callback.
type InlineButton struct {
	Text        string
	Data        string
	URL         string
	SwitchQuery string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}
