package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"OrdersParser/internal/config"
	"OrdersParser/internal/domain"
	"OrdersParser/internal/ports"
)

const searchFields = "files(id,name,webViewLink)"

// Client talks to the Drive v3 REST API: name searches over the artwork
// store and shipping label uploads.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	uploadURL   string
	token       string
	labelFolder string
	labelsDir   string
	timeout     time.Duration
	maxAttempts int
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

var (
	_ ports.FileStore     = (*Client)(nil)
	_ ports.LabelUploader = (*Client)(nil)
)

// NewClient creates a Drive client. labelsDir holds locally bought labels.
func NewClient(cfg config.DriveConfig, labelsDir string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		uploadURL:   strings.TrimRight(cfg.UploadURL, "/"),
		token:       cfg.AccessToken,
		labelFolder: cfg.LabelFolder,
		labelsDir:   labelsDir,
		timeout:     timeout,
		maxAttempts: attempts,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:      logger.With("component", "drive"),
	}
}

type fileResource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebViewLink string `json:"webViewLink"`
}

type fileList struct {
	Files []fileResource `json:"files"`
}

// Search lists files matching the query. A 404 or an empty list is not an error.
func (c *Client) Search(ctx context.Context, query domain.FileQuery) ([]domain.CandidateFile, error) {
	params := url.Values{}
	params.Set("q", query.String())
	params.Set("spaces", "drive")
	params.Set("fields", searchFields)
	reqURL := c.baseURL + "/files?" + params.Encode()

	body, status, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	var list fileList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode file list: %w", err)
	}
	out := make([]domain.CandidateFile, 0, len(list.Files))
	for _, f := range list.Files {
		out = append(out, domain.CandidateFile{ID: f.ID, Name: f.Name, Link: f.WebViewLink})
	}
	c.logger.Debug("drive search", "query", query.String(), "hits", len(out))
	return out, nil
}

// UploadLabel uploads {labelsDir}/{orderID}.pdf into the label folder and
// removes the local copy once the upload succeeded.
func (c *Client) UploadLabel(ctx context.Context, orderID string) (string, error) {
	path, err := labelPath(c.labelsDir, orderID)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrLabelNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read label %s: %w", path, err)
	}

	meta := map[string]any{"name": filepath.Base(path)}
	if c.labelFolder != "" {
		meta["parents"] = []string{c.labelFolder}
	}
	reqURL := c.uploadURL + "/files?uploadType=multipart&fields=id,webViewLink"

	body, status, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		payload, contentType, err := multipartBody(meta, content)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, payload)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("upload label %s: %w", orderID, err)
	}
	if status == http.StatusNotFound {
		return "", fmt.Errorf("upload label %s: %w: folder not found", orderID, domain.ErrFileStoreUnavailable)
	}

	var created fileResource
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode uploaded label: %w", err)
	}
	if err := os.Remove(path); err != nil {
		c.logger.Warn("remove uploaded label", "path", path, "error", err)
	}
	c.logger.Info("label uploaded", "order_id", orderID, "file_id", created.ID)
	return created.WebViewLink, nil
}

// do executes a request with rate limiting, a per-attempt timeout and
// retries on network errors, 429 and 5xx. It returns the body of a 2xx or
// 404 response.
func (c *Client) do(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.attempt(ctx, build)
		if err == nil {
			return body, status, nil
		}
		if !errors.Is(err, domain.ErrTransient) {
			return nil, status, err
		}
		lastErr = err
		c.logger.Warn("drive request failed", "attempt", attempt, "error", err)

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(exponentialBackoff(attempt)):
			}
		}
	}
	return nil, 0, lastErr
}

func (c *Client) attempt(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "OrdersParser/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w: %v", domain.ErrFileStoreUnavailable, domain.ErrTransient, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w: read body: %v", domain.ErrFileStoreUnavailable, domain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300, resp.StatusCode == http.StatusNotFound:
		return body, resp.StatusCode, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, resp.StatusCode, fmt.Errorf("%w: %w: status %d", domain.ErrFileStoreUnavailable, domain.ErrTransient, resp.StatusCode)
	default:
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d: %s", domain.ErrFileStoreUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// labelPath resolves the local label, rejecting ids that would escape dir.
func labelPath(dir, orderID string) (string, error) {
	id := strings.TrimSpace(orderID)
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid order id %q for label lookup", orderID)
	}
	return filepath.Join(dir, id+".pdf"), nil
}

func multipartBody(meta map[string]any, content []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", fmt.Errorf("encode metadata: %w", err)
	}
	part, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(metaJSON); err != nil {
		return nil, "", err
	}

	part, err = w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/pdf"}})
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, "multipart/related; boundary=" + w.Boundary(), nil
}
