//go:build !integration

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_ExposesRegisteredCollectors(t *testing.T) {
	MustRegister()
	MustRegister() // idempotent

	ObserveUpload(true, "", 1024, 120*time.Millisecond)
	ObserveUpload(false, "Transport", 0, time.Second)
	IncTelegramUpdate("photo")
	IncRejection("not_image")
	IncFloodWait()
	SetBuildInfo("v1.0.0", "abc")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	for _, want := range []string{
		`imgbb_uploads_total{kind="",success="true"} 1`,
		`imgbb_uploads_total{kind="transport",success="false"} 1`,
		`telegram_updates_received_total{route="photo"} 1`,
		`telegram_rejections_total{reason="not_image"} 1`,
		`build_info{commit="abc",version="v1.0.0"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
