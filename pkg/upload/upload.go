// Package upload posts a produced dataset file to a collector endpoint as
// a multipart form.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/oauth2"
)

const (
	// FieldName is the multipart form field carrying the file.
	FieldName = "file"
	// DefaultTimeout bounds a whole upload when Config.Timeout is zero.
	DefaultTimeout = 5 * time.Minute

	maxBodyExcerpt = 4 << 10
)

// Sentinel errors.
var (
	ErrNoEndpoint      = errors.New("upload endpoint is not set")
	ErrInvalidEndpoint = errors.New("upload endpoint must be an http or https URL")
	ErrNotAFile        = errors.New("not a regular file")
	ErrRejected        = errors.New("upload rejected")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload rejected with status %d: %s", e.StatusCode, e.Body)
}

// Is matches ErrRejected.
func (e *StatusError) Is(target error) bool { return target == ErrRejected }

// Config configures an Uploader.
type Config struct {
	Endpoint string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
	// Client is the base HTTP client. Nil means http.DefaultClient.
	Client *http.Client
}

// Result describes a successful upload.
type Result struct {
	StatusCode int
	Body       string
	Bytes      int64
	Elapsed    time.Duration
}

// Uploader sends files to one endpoint.
type Uploader struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// New validates cfg and builds an Uploader.
func New(cfg Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	base := cfg.Client
	if base == nil {
		base = http.DefaultClient
	}

	client := &http.Client{Transport: base.Transport, Timeout: cfg.Timeout}

	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		client.Timeout = cfg.Timeout
	}

	return &Uploader{endpoint: cfg.Endpoint, client: client, logger: cfg.Logger}, nil
}

// UploadFile posts the file at path under the form field "file".
func (u *Uploader) UploadFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat upload file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	u.logger.InfoContext(ctx, "uploading", "file", path, "size", humanize.Bytes(uint64(info.Size())), "endpoint", u.endpoint)

	start := time.Now()

	result, err := u.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}

	result.Bytes = info.Size()
	result.Elapsed = time.Since(start)

	u.logger.InfoContext(ctx, "upload complete", "status", result.StatusCode, "elapsed", result.Elapsed.Round(time.Millisecond))

	return result, nil
}

// Upload streams r as a multipart file named name.
func (u *Uploader) Upload(ctx context.Context, name string, r io.Reader) (*Result, error) {
	body, contentType := multipartBody(name, r)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	excerpt, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	text := strings.TrimSpace(string(excerpt))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: text}
	}

	return &Result{StatusCode: resp.StatusCode, Body: text}, nil
}

// multipartBody streams a single-file form through a pipe.
func multipartBody(name string, r io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(FieldName, name)
		if err == nil {
			_, err = io.Copy(part, r)
		}

		if err == nil {
			err = mw.Close()
		}

		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}
