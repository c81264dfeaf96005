package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/researchaccelerator-hub/innertube-miner/enrich"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// DataAPIConfig configures a DataAPIResolver.
type DataAPIConfig struct {
	APIKey string
	// Endpoint overrides the API base URL.
	Endpoint string
	// HTTPClient replaces the transport. It takes precedence over APIKey.
	HTTPClient *http.Client
}

// DataAPIResolver resolves thumbnails through the YouTube Data API, picking
// the largest size the video snippet advertises.
type DataAPIResolver struct {
	mu      sync.RWMutex
	service *ytapi.Service
	config  DataAPIConfig
}

// NewDataAPIResolver creates a resolver. Connect must be called before use.
func NewDataAPIResolver(config DataAPIConfig) (*DataAPIResolver, error) {
	if config.APIKey == "" && config.HTTPClient == nil {
		return nil, fmt.Errorf("YouTube API key is required")
	}
	return &DataAPIResolver{config: config}, nil
}

// Connect creates the YouTube service.
func (r *DataAPIResolver) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.service != nil {
		return nil
	}

	log.Info().Msg("Connecting to YouTube Data API")

	opts := []option.ClientOption{option.WithAPIKey(r.config.APIKey)}
	if r.config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(r.config.HTTPClient))
	}
	if r.config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(r.config.Endpoint))
	}

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	r.service = service
	log.Info().Msg("Connected to YouTube Data API successfully")
	return nil
}

// Disconnect drops the YouTube service.
func (r *DataAPIResolver) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.service = nil
	return nil
}

// Resolve implements enrich.ThumbnailResolver.
func (r *DataAPIResolver) Resolve(ctx context.Context, videoID string) (string, error) {
	r.mu.RLock()
	service := r.service
	r.mu.RUnlock()

	if service == nil {
		return "", fmt.Errorf("YouTube client not connected")
	}
	if err := validateVideoID(videoID); err != nil {
		return "", fmt.Errorf("invalid video ID: %w", err)
	}

	response, err := service.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video from YouTube API: %w", err)
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return "", fmt.Errorf("%w: video not found on YouTube: %s", enrich.ErrNoThumbnail, videoID)
	}

	ref := bestThumbnail(response.Items[0].Snippet.Thumbnails)
	if ref == "" {
		return "", fmt.Errorf("%w for %s", enrich.ErrNoThumbnail, videoID)
	}
	return ref, nil
}

// bestThumbnail returns the URL of the largest thumbnail present.
func bestThumbnail(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*ytapi.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

var _ enrich.ThumbnailResolver = (*DataAPIResolver)(nil)
