// Package enrich resolves per-video attributes that are not carried by the
// mined document, such as the preferred thumbnail reference.
package enrich

import (
	"context"
	"runtime"

	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a Pool is created with a non-positive limit.
const DefaultConcurrency = 8

// ThumbnailResolver returns the thumbnail reference of a single video.
type ThumbnailResolver interface {
	Resolve(ctx context.Context, videoID string) (string, error)
}

// ResolverFunc adapts a plain function to ThumbnailResolver.
type ResolverFunc func(ctx context.Context, videoID string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, videoID string) (string, error) {
	return f(ctx, videoID)
}

// Pool runs a resolver over many videos with a bounded number of resolutions
// in flight.
type Pool struct {
	resolver    ThumbnailResolver
	concurrency int
}

// NewPool returns a pool that runs at most concurrency resolutions at once.
func NewPool(resolver ThumbnailResolver, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = min(DefaultConcurrency, runtime.NumCPU()*2)
	}
	return &Pool{resolver: resolver, concurrency: concurrency}
}

// Concurrency returns the in-flight limit.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Apply returns a copy of videos with ThumbnailRef replaced by the resolved
// reference. A failed resolution leaves that video's ThumbnailRef absent and
// does not affect the others. Order is preserved.
func (p *Pool) Apply(ctx context.Context, videos []youtube.Video) []youtube.Video {
	out := make([]youtube.Video, len(videos))
	copy(out, videos)
	if p == nil || p.resolver == nil || len(out) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range out {
		g.Go(func() error {
			ref, err := p.resolver.Resolve(gctx, out[i].ID)
			if err != nil {
				log.Debug().
					Err(err).
					Str("video_id", out[i].ID).
					Msg("Thumbnail resolution failed")
				out[i] = out[i].WithThumbnail(nil)
				return nil
			}
			out[i] = out[i].WithThumbnail(youtube.StringPtr(ref))
			return nil
		})
	}

	// Workers never return errors; a failure only clears one reference.
	_ = g.Wait()

	return out
}
