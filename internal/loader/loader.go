package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-formmessages/pkg/fetch"
)

// DefaultMaxBytes caps template bodies when no limit is configured.
const DefaultMaxBytes int64 = 1 << 20

// ErrTooLarge is returned when a template body exceeds the configured limit.
var ErrTooLarge = errors.New("loader: template exceeds size limit")

// Kind identifies the transport an identifier resolves through.
type Kind string

const (
	KindFile Kind = "file"
	KindFS   Kind = "fs"
	KindURL  Kind = "url"
	KindS3   Kind = "s3"
)

// Loader implements fetch.Fetcher by delegating to file, fs.FS, HTTP or S3
// strategies. Construction helpers live in the top-level formmessages package.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
	s3        fetch.S3API
	maxBytes  int64
}

// Ensure the implementation satisfies the public interface.
var _ fetch.Fetcher = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options fetch.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	maxBytes := options.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
		s3:        options.S3,
		maxBytes:  maxBytes,
	}
}

// Classify reports which transport id resolves through and the location
// handed to that transport.
func (l *Loader) Classify(id string) (Kind, string) {
	id = strings.TrimSpace(id)
	lower := strings.ToLower(id)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindURL, id
	case strings.HasPrefix(lower, "s3://"):
		return KindS3, id[len("s3://"):]
	case strings.HasPrefix(lower, "fs:"):
		return KindFS, strings.TrimPrefix(id[len("fs:"):], "/")
	case strings.HasPrefix(lower, "file://"):
		return KindFile, id[len("file://"):]
	}
	if l.fs != nil && !filepath.IsAbs(id) {
		return KindFS, path.Clean(filepath.ToSlash(id))
	}
	return KindFile, id
}

// Fetch resolves id and returns the template body.
func (l *Loader) Fetch(ctx context.Context, id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("loader: identifier is required")
	}

	var (
		data []byte
		err  error
	)

	kind, location := l.Classify(id)
	switch kind {
	case KindFile:
		data, err = loadFile(ctx, location, l.maxBytes)
	case KindFS:
		data, err = loadFromFS(ctx, l.fs, location, l.maxBytes)
	case KindURL:
		if !l.allowHTTP {
			return nil, errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, location, l.timeout, l.maxBytes)
	case KindS3:
		data, err = loadS3(ctx, l.s3, location, l.maxBytes)
	default:
		err = errors.New("loader: unsupported identifier kind")
	}
	if err != nil {
		return nil, fmt.Errorf("loader: %s %q: %w", kind, location, err)
	}
	return data, nil
}
