package callflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultEndpoint = "http://www.websequencediagrams.com/"
	DefaultStyle    = "roundgreen"
	DefaultFormat   = "png"
	DefaultTimeout  = 20 * time.Second

	maxImageBytes = 32 << 20
)

var (
	ErrRenderFailed = errors.New("callflow: render failed")
	ErrNoImage      = errors.New("callflow: render response has no image")
)

// Renderer turns a sequence diagram script into image bytes.
type Renderer interface {
	Render(ctx context.Context, script string) ([]byte, error)
}

// WebSeqConfig configures a WebSeqRenderer.
type WebSeqConfig struct {
	Endpoint string
	Style    string
	Format   string
	Timeout  time.Duration
}

// WebSeqRenderer renders scripts through a websequencediagrams-compatible
// service: a form POST returns an image path that is then downloaded.
type WebSeqRenderer struct {
	cfg    WebSeqConfig
	client *http.Client
}

type renderResponse struct {
	Img    string   `json:"img"`
	Errors []string `json:"errors"`
}

// NewWebSeqRenderer fills defaults and builds a renderer.
func NewWebSeqRenderer(cfg WebSeqConfig) *WebSeqRenderer {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(cfg.Endpoint, "/") {
		cfg.Endpoint += "/"
	}
	if cfg.Style == "" {
		cfg.Style = DefaultStyle
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &WebSeqRenderer{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Render submits script and downloads the resulting image.
func (r *WebSeqRenderer) Render(ctx context.Context, script string) ([]byte, error) {
	form := url.Values{
		"message":    {script},
		"apiVersion": {"1"},
		"format":     {r.cfg.Format},
		"style":      {r.cfg.Style},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRenderFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := r.do(req)
	if err != nil {
		return nil, err
	}
	var resp renderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRenderFailed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRenderFailed, strings.Join(resp.Errors, "; "))
	}
	if resp.Img == "" {
		return nil, ErrNoImage
	}

	imgURL := r.cfg.Endpoint + strings.TrimPrefix(resp.Img, "/")
	log.Debug().Msgf("callflow.WebSeqRenderer.Render fetch img=%s", imgURL)
	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build image request: %v", ErrRenderFailed, err)
	}
	return r.do(imgReq)
}

func (r *WebSeqRenderer) do(req *http.Request) ([]byte, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRenderFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status=%d", ErrRenderFailed, req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
