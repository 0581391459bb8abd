package imgbb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"telegram-imgbb-uploader/internal/config"
	"telegram-imgbb-uploader/internal/domain"
	"telegram-imgbb-uploader/internal/domain/model"
	"telegram-imgbb-uploader/internal/domain/ports/adapter"
	"telegram-imgbb-uploader/internal/infra/logging"

	"github.com/rs/zerolog"
)

const (
	EncodingBase64    = "base64"
	EncodingMultipart = "multipart"

	maxExcerptBytes  = 256
	maxResponseBytes = 1 << 20
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ImageHost = (*Adapter)(nil)

// Adapter uploads images to the ImgBB v1 API.
// POST https://api.imgbb.com/1/upload, form fields key, image, name; optional ?expiration=<sec>.
// It holds no per-request state and is safe for concurrent use.
type Adapter struct {
	apiKey     string
	endpoint   string
	encoding   string
	expiration int
	client     *http.Client
	log        *zerolog.Logger
}

func NewAdapter(cfg *config.ImgBBConfig, logger *zerolog.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("imgbb config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("imgbb api key empty")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = config.DefaultImgBBEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid imgbb endpoint: %w", err)
	}
	encoding := strings.ToLower(cfg.Encoding)
	if encoding == "" {
		encoding = EncodingBase64
	}
	if encoding != EncodingBase64 && encoding != EncodingMultipart {
		return nil, fmt.Errorf("unsupported imgbb encoding %q", cfg.Encoding)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Adapter{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		encoding:   encoding,
		expiration: cfg.Expiration,
		client:     &http.Client{Timeout: timeout},
		log:        logger,
	}, nil
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		URL       string `json:"url"`
		URLViewer string `json:"url_viewer"`
		DeleteURL string `json:"delete_url"`
		Thumb     struct {
			URL string `json:"url"`
		} `json:"thumb"`
	} `json:"data"`
	// error is usually {"message": "..."} but older responses carry a bare string
	Error json.RawMessage `json:"error"`
}

// Upload sends payload to ImgBB in a single POST. It never retries.
func (a *Adapter) Upload(ctx context.Context, payload model.ImagePayload) model.UploadOutcome {
	if payload.Empty() {
		return model.Failure(model.KindValidation, domain.ErrEmptyImage.Error())
	}
	l := logging.With(ctx, a.log)
	defer logging.TraceDuration(l, "ImgBB.Upload")()

	body, contentType, err := a.encode(payload)
	if err != nil {
		return model.Failure(model.KindValidation, "encode image: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.uploadURL(), body)
	if err != nil {
		return model.Failure(model.KindTransport, "network error: "+err.Error())
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return model.Failure(model.KindTransport, "network error: "+describe(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.Failure(model.KindTransport, "network error: "+describe(err))
	}
	if resp.StatusCode != http.StatusOK {
		return model.Failure(model.KindTransport, fmt.Sprintf("http status %d: %s", resp.StatusCode, excerpt(raw)))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Failure(model.KindTransport, "network error: decode response: "+err.Error())
	}
	if !out.Success {
		return model.Failure(model.KindProvider, providerMessage(out.Error))
	}
	if out.Data == nil || out.Data.URL == "" {
		return model.Failure(model.KindProvider, "upload failed: response has no data.url")
	}

	l.Debug().
		Str("filename", payload.Filename).
		Int64("size", payload.Size).
		Str("url", out.Data.URL).
		Msg("imgbb upload ok")
	return model.Success(out.Data.URL, out.Data.Thumb.URL, out.Data.URLViewer, out.Data.DeleteURL)
}

func (a *Adapter) uploadURL() string {
	if a.expiration <= 0 {
		return a.endpoint
	}
	u, err := url.Parse(a.endpoint)
	if err != nil {
		return a.endpoint
	}
	q := u.Query()
	q.Set("expiration", strconv.Itoa(a.expiration))
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *Adapter) encode(p model.ImagePayload) (io.Reader, string, error) {
	name := displayName(p.Filename)
	if a.encoding == EncodingMultipart {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("key", a.apiKey); err != nil {
			return nil, "", err
		}
		if name != "" {
			if err := mw.WriteField("name", name); err != nil {
				return nil, "", err
			}
		}
		filename := p.Filename
		if filename == "" {
			filename = "image"
		}
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.Data); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	form := url.Values{}
	form.Set("key", a.apiKey)
	form.Set("image", base64.StdEncoding.EncodeToString(p.Data))
	if name != "" {
		form.Set("name", name)
	}
	return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil
}

// displayName is the stored-name field: the filename without directory or extension.
func displayName(filename string) string {
	base := path.Base(strings.TrimSpace(filename))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func providerMessage(raw json.RawMessage) string {
	if len(raw) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Message) != "" {
			return strings.TrimSpace(obj.Message)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return "upload failed"
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxExcerptBytes {
		cut := maxExcerptBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// describe strips the request URL from transport errors.
func describe(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "timeout: " + ue.Err.Error()
		}
		return ue.Err.Error()
	}
	return err.Error()
}
