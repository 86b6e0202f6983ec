// Package paddle talks to a PaddleOCR sidecar over HTTP.
//
// The sidecar wraps a PaddleOCR instance and exposes its two entry points:
//
//	POST /ocr      -> result of ocr.ocr(image)
//	POST /predict  -> result of ocr.predict(image)
//
// Both accept {"image": "<base64 png>"} or {"path": "/local/file.png"} and
// answer with the engine's result serialized as JSON. The shape of that JSON
// depends on the PaddleOCR version installed in the sidecar, so responses
// are decoded into untyped values and left to ocr.Normalize.
package paddle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/facturaIA/ocr-chat-service/internal/ocr"
)

// Client implements ocr.Engine and ocr.Predictor.
type Client struct {
	baseURL    string
	lang       string
	httpClient *http.Client
}

// Options configures the client.
type Options struct {
	BaseURL string
	Lang    string
	Timeout time.Duration
}

// New creates a sidecar client. Defaults: http://127.0.0.1:8866, "en", 60s.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://127.0.0.1:8866"
	}
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		lang:       opts.Lang,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

func (c *Client) Name() string { return "paddleocr" }

// OCR calls the primary entry point.
func (c *Client) OCR(ctx context.Context, in ocr.Input) (any, error) {
	return c.call(ctx, "/ocr", in)
}

// Predict calls the alternate entry point.
func (c *Client) Predict(ctx context.Context, in ocr.Input) (any, error) {
	return c.call(ctx, "/predict", in)
}

type request struct {
	Image string `json:"image,omitempty"`
	Path  string `json:"path,omitempty"`
	Lang  string `json:"lang"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) call(ctx context.Context, endpoint string, in ocr.Input) (any, error) {
	body := request{Lang: c.lang}
	if in.IsPath() {
		body.Path = in.Path
	} else {
		data, err := ocr.EncodePNG(in.Image)
		if err != nil {
			return nil, err
		}
		body.Image = base64.StdEncoding.EncodeToString(data)
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to paddleocr failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("paddleocr %s returned %d: %s", endpoint, resp.StatusCode, eb.Error)
		}
		return nil, fmt.Errorf("paddleocr %s returned %d: %s", endpoint, resp.StatusCode, truncate(string(raw), 300))
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
