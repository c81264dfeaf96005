package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// ErrNoThumbnail is returned when none of the candidate images exists.
var ErrNoThumbnail = errors.New("no thumbnail available")

const (
	// DefaultThumbnailTemplate is the high quality still every video has.
	DefaultThumbnailTemplate = "https://i.ytimg.com/vi/%s/hqdefault.jpg"

	defaultProbeTimeout = 5 * time.Second
)

// DefaultProbeSizes lists image names from best to worst.
var DefaultProbeSizes = []string{"maxresdefault", "sddefault", "hqdefault"}

// TemplateResolver builds the reference from the video id without any I/O.
type TemplateResolver struct {
	// Template is a format string with a single %s verb for the id.
	Template string
}

// Resolve implements ThumbnailResolver.
func (r TemplateResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("empty video ID: %w", ErrNoThumbnail)
	}
	tmpl := r.Template
	if tmpl == "" {
		tmpl = DefaultThumbnailTemplate
	}
	return fmt.Sprintf(tmpl, videoID), nil
}

// ProbeResolver issues HEAD requests for each size in turn and returns the
// first image that exists.
type ProbeResolver struct {
	HTTPClient *http.Client
	// BaseURL defaults to https://i.ytimg.com/vi.
	BaseURL string
	// Sizes defaults to DefaultProbeSizes.
	Sizes []string
}

// NewProbeResolver returns a ProbeResolver with a short per-request timeout.
func NewProbeResolver(httpClient *http.Client) *ProbeResolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &ProbeResolver{HTTPClient: httpClient}
}

// Resolve implements ThumbnailResolver.
func (r *ProbeResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", fmt.Errorf("empty video ID: %w", ErrNoThumbnail)
	}

	base := r.BaseURL
	if base == "" {
		base = "https://i.ytimg.com/vi"
	}
	sizes := r.Sizes
	if len(sizes) == 0 {
		sizes = DefaultProbeSizes
	}
	httpClient := r.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var lastErr error
	for _, size := range sizes {
		ref := fmt.Sprintf("%s/%s/%s.jpg", base, videoID, size)

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
		if err != nil {
			return "", fmt.Errorf("failed to build probe request: %w", err)
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return ref, nil
		}
		lastErr = fmt.Errorf("probe %s: status %d", size, resp.StatusCode)
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrNoThumbnail, videoID, lastErr)
	}
	return "", fmt.Errorf("%w for %s", ErrNoThumbnail, videoID)
}

// CachedResolver memoizes successful resolutions in a fixed size LRU cache.
// Failures are not cached.
type CachedResolver struct {
	next  ThumbnailResolver
	cache *lru.Cache[string, string]
}

// NewCachedResolver wraps next with a cache holding up to size references.
func NewCachedResolver(next ThumbnailResolver, size int) (*CachedResolver, error) {
	if next == nil {
		return nil, fmt.Errorf("cached resolver requires an underlying resolver")
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
	}
	return &CachedResolver{next: next, cache: cache}, nil
}

// Resolve implements ThumbnailResolver. The LRU cache is safe for
// concurrent use, so one CachedResolver can serve a whole Pool.
func (r *CachedResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	if ref, ok := r.cache.Get(videoID); ok {
		log.Debug().Str("video_id", videoID).Msg("Using cached thumbnail")
		return ref, nil
	}
	ref, err := r.next.Resolve(ctx, videoID)
	if err != nil {
		return "", err
	}
	r.cache.Add(videoID, ref)
	return ref, nil
}

// Len returns the number of cached references.
func (r *CachedResolver) Len() int {
	return r.cache.Len()
}

var (
	_ ThumbnailResolver = TemplateResolver{}
	_ ThumbnailResolver = (*ProbeResolver)(nil)
	_ ThumbnailResolver = (*CachedResolver)(nil)
	_ ThumbnailResolver = ResolverFunc(nil)
)
