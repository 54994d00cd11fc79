package fetch

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Fetcher retrieves the raw body of a template identified by id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, id string) ([]byte, error)

// Fetch delegates to the underlying function.
func (fn FetcherFunc) Fetch(ctx context.Context, id string) ([]byte, error) {
	return fn(ctx, id)
}

// LoaderOptions configure the built-in transports used to resolve template
// identifiers. See the root package NewLoader for construction.
type LoaderOptions struct {
	// FileSystem resolves relative identifiers and `fs:` identifiers. When nil
	// relative identifiers are read from the operating system.
	FileSystem fs.FS

	// HTTPClient allows callers to inject custom HTTP behaviour (timeouts,
	// proxies). Nil means HTTP identifiers are rejected unless
	// AllowHTTPFallback is true.
	HTTPClient *http.Client

	// AllowHTTPFallback enables HTTP loading with a default client when no
	// client is supplied.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations.
	RequestTimeout time.Duration

	// S3 resolves `s3://bucket/key` identifiers. Nil disables S3 identifiers.
	S3 S3API

	// MaxBytes caps the size of a single template body. Zero applies the
	// default limit.
	MaxBytes int64
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// NewLoaderOptions applies options on top of the defaults.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	opts := LoaderOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

// WithFileSystem injects an fs.FS implementation for relative identifiers.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote templates.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables HTTP loading using a default client and assigns an
// optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// WithS3 enables `s3://bucket/key` identifiers through the supplied client.
func WithS3(client S3API) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.S3 = client
	}
}

// WithMaxBytes caps template body sizes.
func WithMaxBytes(limit int64) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.MaxBytes = limit
	}
}
