package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/researchaccelerator-hub/innertube-miner/config"
	"github.com/researchaccelerator-hub/innertube-miner/enrich"
	"github.com/rs/zerolog/log"
)

// NewThumbnailResolver creates the resolver selected by cfg.Mode. It returns
// a nil resolver for mode "none". httpClient is only used for probing.
// Resolvers that do I/O are wrapped in an LRU cache when cfg.CacheSize is
// positive. The returned function releases the resolver and is never nil.
func NewThumbnailResolver(ctx context.Context, cfg config.EnrichmentConfig, httpClient *http.Client) (enrich.ThumbnailResolver, func(), error) {
	var resolver enrich.ThumbnailResolver
	closeFn := func() {}

	switch cfg.Mode {
	case config.ThumbnailModeNone:
		return nil, closeFn, nil
	case config.ThumbnailModeTemplate, "":
		return enrich.TemplateResolver{Template: cfg.Template}, closeFn, nil
	case config.ThumbnailModeProbe:
		resolver = enrich.NewProbeResolver(httpClient)
	case config.ThumbnailModeDataAPI:
		dataAPI, err := NewDataAPIResolver(DataAPIConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, nil, err
		}
		if err := dataAPI.Connect(ctx); err != nil {
			return nil, nil, err
		}
		resolver = dataAPI
		closeFn = func() {
			if err := dataAPI.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to disconnect YouTube Data API resolver")
			}
		}
	default:
		return nil, nil, fmt.Errorf("unsupported thumbnail mode: %s", cfg.Mode)
	}

	if cfg.CacheSize <= 0 {
		return resolver, closeFn, nil
	}

	cached, err := enrich.NewCachedResolver(resolver, cfg.CacheSize)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Debug().
		Str("mode", cfg.Mode).
		Int("cache_size", cfg.CacheSize).
		Msg("Thumbnail resolver cache enabled")
	return cached, closeFn, nil
}
