package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	pdlog "github.com/nao1215/pydistro/internal/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Download describes one completed HTTP download.
type Download struct {
	// URL is the requested URL.
	URL string

	// Path is the cache file the body was written to.
	Path string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Bytes is the number of bytes written after transcoding.
	Bytes int64

	// FetchedAt is when the body was stored.
	FetchedAt time.Time
}

// Recorder receives every completed download. It is used for the run history.
type Recorder interface {
	RecordFetch(ctx context.Context, d Download) error
}

// Fetcher keeps cache files fresh.
// A Fetcher is not safe for concurrent use; the scraper is sequential.
type Fetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	limiter   *rate.Limiter
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
	recorder  Recorder
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for downloads.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = h
	}
}

// WithDelay spaces requests at least d apart. Zero disables spacing.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			f.limiter = rate.NewLimiter(rate.Inf, 0)
		}
	}
}

// WithTimeout bounds each request. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithClock replaces time.Now for freshness decisions.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithRecorder reports each download to r.
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) {
		f.recorder = r
	}
}

// New creates a Fetcher. Without options it uses http.DefaultClient,
// no extra headers, no delay and the wall clock.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		headers: map[string]string{},
		limiter: rate.NewLimiter(rate.Inf, 0),
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// EnsureFresh makes sure path holds a copy of url downloaded today.
//
// Parent directories are created first. If path is missing, or was last
// modified on an earlier local calendar date, url is downloaded into it.
// A file modified today is left untouched and no request is made.
// The returned flag reports whether a download happened.
//
// The response status is not checked: whatever body the server sends is
// stored, and a non-2xx status is only logged. Transport errors are returned.
func (f *Fetcher) EnsureFresh(ctx context.Context, url, path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, fmt.Errorf("failed to create cache directory for %s: %w", path, err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !IsStale(info.ModTime(), f.now()) {
			f.logger.Debug("using cached file", "path", path)
			return false, nil
		}
		f.logger.Debug("cached file is stale", "path", path, "modified", info.ModTime())
	case errors.Is(err, fs.ErrNotExist):
	default:
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := f.download(ctx, url, path); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting to fetch %s: %w", url, err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	f.logger.Debug("fetching", "url", url, pdlog.Headers(f.headers))

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("unexpected status, storing body anyway", "url", url, "status", resp.StatusCode)
	}

	body := decodeBody(resp)
	n, err := writeFile(path, body)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", url, err)
	}

	d := Download{
		URL:        url,
		Path:       path,
		StatusCode: resp.StatusCode,
		Bytes:      n,
		FetchedAt:  f.now(),
	}
	f.logger.Debug("stored", "url", url, "path", path, "bytes", n)

	if f.recorder != nil {
		if err := f.recorder.RecordFetch(ctx, d); err != nil {
			f.logger.Warn("failed to record download", "url", url, "error", err)
		}
	}
	return nil
}

// decodeBody returns a reader yielding the body as UTF-8.
// Text responses are decoded from the declared or sniffed charset; anything
// else, or a body whose charset cannot be determined, is passed through.
func decodeBody(resp *http.Response) io.Reader {
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(strings.ToLower(ct), "text/") {
		return resp.Body
	}
	r, err := charset.NewReader(resp.Body, ct)
	if err != nil {
		return resp.Body
	}
	return r
}

// writeFile stores r at path through a temporary file in the same directory,
// so a failed download never leaves a truncated cache entry behind.
func writeFile(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return n, nil
}

// IsStale reports whether a file modified at modTime must be downloaded again at now.
// Only local calendar dates are compared: anything written today is fresh.
func IsStale(modTime, now time.Time) bool {
	return day(modTime).Before(day(now))
}

func day(t time.Time) time.Time {
	local := t.In(time.Local)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
