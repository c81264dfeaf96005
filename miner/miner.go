// Package miner turns watch pages and playlists into canonical records by
// combining the transport, the pagination engine and thumbnail enrichment.
package miner

import (
	"context"
	"errors"
	"fmt"

	"github.com/researchaccelerator-hub/innertube-miner/client"
	"github.com/researchaccelerator-hub/innertube-miner/common"
	"github.com/researchaccelerator-hub/innertube-miner/config"
	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/enrich"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
	"github.com/researchaccelerator-hub/innertube-miner/paginate"
	"github.com/rs/zerolog"
)

// WatchURLPrefix is prepended to a video ID to form its public URL.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// ErrVideoRequired is returned for mixes whose seed video cannot be derived
// from the list ID.
var ErrVideoRequired = errors.New("mix playlists require a video ID")

// Miner serves video and playlist requests. It holds no per-request state,
// so one Miner may serve concurrent requests.
type Miner struct {
	source     client.PageSource
	pool       *enrich.Pool
	pagination config.PaginationConfig
}

// New creates a miner. A nil pool leaves thumbnails as found in the documents.
func New(source client.PageSource, pagination config.PaginationConfig, pool *enrich.Pool) *Miner {
	return &Miner{
		source:     source,
		pool:       pool,
		pagination: pagination,
	}
}

// VideoInfo mines the watch page of videoID: the subject video's details and
// up to the configured cap of related videos, following watch-next
// continuations.
func (m *Miner) VideoInfo(ctx context.Context, videoID string) (*youtube.VideoInfo, error) {
	ctx = common.WithRequestLogger(ctx, common.GenerateRequestID())
	logger := zerolog.Ctx(ctx)

	logger.Info().Str("video_id", videoID).Msg("Mining video info")

	doc, err := m.source.WatchPage(ctx, videoID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watch page: %w", err)
	}

	info := videoDetails(doc, videoID, m.pagination.MaxDepth)

	related, err := paginate.Collect(ctx, relatedRoot(doc), m.source.Next, m.options(logger, videoID))
	if err != nil {
		return nil, fmt.Errorf("failed to collect related videos: %w", err)
	}

	if m.pool != nil {
		subject := m.pool.Apply(ctx, []youtube.Video{{ID: videoID}})
		info.ThumbnailRef = subject[0].ThumbnailRef
		related = m.pool.Apply(ctx, related)
	}
	info.Related = related

	logger.Info().
		Str("video_id", videoID).
		Int("related_count", len(related)).
		Msg("Video info mined")
	return info, nil
}

// relatedRoot narrows a watch page to its related list. The primary column
// comes first in document order and carries the comments continuation, which
// would otherwise be followed instead of the related one.
func relatedRoot(doc document.Node) document.Node {
	if secondary, ok := document.Dig(doc, "contents", "twoColumnWatchNextResults", "secondaryResults"); ok && document.Searchable(secondary) {
		return secondary
	}
	return doc
}

func (m *Miner) options(logger *zerolog.Logger, exclude ...string) paginate.Options {
	return paginate.Options{
		Cap:         m.pagination.Cap,
		MaxAttempts: m.pagination.MaxAttempts,
		MaxDepth:    m.pagination.MaxDepth,
		ExcludeIDs:  exclude,
		Logger:      logger,
	}
}
