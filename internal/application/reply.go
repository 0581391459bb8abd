package application

import (
	"html"
	"strings"

	"telegram-imgbb-uploader/internal/domain/model"
	"telegram-imgbb-uploader/internal/domain/ports/adapter"
	"telegram-imgbb-uploader/internal/infra/i18n"
)

// FormatOutcome renders an upload outcome for the user.
// Failures get the generic text only; the reason stays in the logs.
func FormatOutcome(t *i18n.Translator, out model.UploadOutcome) Reply {
	if !out.OK {
		return Reply{Text: t.T("failed")}
	}

	parts := []string{
		t.T("success_header"),
		t.T("success_direct", html.EscapeString(out.DirectURL)),
	}
	var links []string
	if out.ThumbnailURL != "" {
		links = append(links, t.T("success_thumb", html.EscapeString(out.ThumbnailURL)))
	}
	if out.ViewerURL != "" {
		links = append(links, t.T("success_viewer", html.EscapeString(out.ViewerURL)))
	}
	if out.DeleteURL != "" {
		links = append(links, t.T("success_delete", html.EscapeString(out.DeleteURL)))
	}
	if len(links) > 0 {
		parts = append(parts, strings.Join(links, "\n"))
	}

	return Reply{
		Text: strings.Join(parts, "\n\n"),
		Rows: [][]adapter.InlineButton{
			{{Text: t.T("button_open"), URL: out.DirectURL}},
			{{Text: t.T("button_share"), SwitchQuery: out.DirectURL}},
		},
		DisablePreview: true,
	}
}
