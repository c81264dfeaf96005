package miner

import (
	"context"
	"fmt"
	"math"

	"github.com/researchaccelerator-hub/innertube-miner/client"
	"github.com/researchaccelerator-hub/innertube-miner/common"
	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
	"github.com/researchaccelerator-hub/innertube-miner/normalize"
	"github.com/researchaccelerator-hub/innertube-miner/paginate"
	"github.com/rs/zerolog"
)

// browsePrefix turns a playlist ID into its browse ID.
const browsePrefix = "VL"

// Playlist mines the items of listID. Mixes are read from the watch page of
// videoID, which defaults to the video the mix was seeded from; other lists
// are browsed and their continuations followed.
func (m *Miner) Playlist(ctx context.Context, listID, videoID string) (*youtube.Playlist, error) {
	if err := client.ValidatePlaylistID(listID); err != nil {
		return nil, fmt.Errorf("invalid playlist ID: %w", err)
	}

	ctx = common.WithRequestLogger(ctx, common.GenerateRequestID())
	logger := zerolog.Ctx(ctx)

	logger.Info().
		Str("list_id", listID).
		Str("video_id", videoID).
		Msg("Mining playlist")

	var (
		playlist *youtube.Playlist
		err      error
	)
	if client.IsMixPlaylist(listID) {
		playlist, err = m.mix(ctx, logger, listID, videoID)
	} else {
		playlist, err = m.browse(ctx, logger, listID)
	}
	if err != nil {
		return nil, err
	}

	if m.pool != nil {
		playlist.Items = m.pool.Apply(ctx, playlist.Items)
	}

	logger.Info().
		Str("list_id", listID).
		Int("item_count", len(playlist.Items)).
		Msg("Playlist mined")
	return playlist, nil
}

func (m *Miner) mix(ctx context.Context, logger *zerolog.Logger, listID, videoID string) (*youtube.Playlist, error) {
	if videoID == "" {
		videoID = mixSeed(listID)
		if videoID == "" {
			return nil, ErrVideoRequired
		}
	}

	doc, err := m.source.WatchPage(ctx, videoID, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watch page: %w", err)
	}

	playlist := &youtube.Playlist{ID: listID, Items: []youtube.Video{}}

	panel, ok := document.Dig(doc, "contents", "twoColumnWatchNextResults", "playlist", "playlist")
	if !ok || !document.Searchable(panel) {
		logger.Warn().Str("list_id", listID).Msg("Watch page carries no playlist panel")
		return playlist, nil
	}

	if title, ok := document.Dig(panel, "title"); ok {
		if text, ok := document.ResolveText(title); ok {
			playlist.Title = &text
		}
	}

	entries, _ := document.Dig(panel, "contents")
	if !document.Searchable(entries) {
		return playlist, nil
	}

	// The panel holds the whole mix; it is neither paginated nor capped.
	opts := m.options(logger)
	opts.Cap = math.MaxInt
	opts.MaxAttempts = 0
	opts.Normalize = normalize.PlaylistItem

	items, err := paginate.Collect(ctx, entries, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect mix items: %w", err)
	}
	playlist.Items = items
	return playlist, nil
}

func (m *Miner) browse(ctx context.Context, logger *zerolog.Logger, listID string) (*youtube.Playlist, error) {
	doc, err := m.source.Browse(ctx, browsePrefix+listID)
	if err != nil {
		return nil, fmt.Errorf("failed to browse playlist: %w", err)
	}

	playlist := &youtube.Playlist{ID: listID, Title: playlistTitle(doc, m.pagination.MaxDepth)}

	opts := m.options(logger)
	opts.Normalize = normalize.PlaylistItem

	items, err := paginate.Collect(ctx, doc, m.source.BrowseContinuation, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect playlist items: %w", err)
	}
	playlist.Items = items
	return playlist, nil
}

// mixSeed returns the video a mix was generated from, or "" when listID does
// not embed one.
func mixSeed(listID string) string {
	seed := listID[len("RD"):]
	if client.ValidateVideoID(seed) != nil {
		return ""
	}
	return seed
}

func playlistTitle(doc document.Node, maxDepth int) *string {
	if title, ok := document.DigString(doc, "metadata", "playlistMetadataRenderer", "title"); ok && title != "" {
		return &title
	}
	if maxDepth <= 0 {
		maxDepth = document.DefaultMaxDepth
	}
	for _, m := range document.FindByKey(doc, "playlistHeaderRenderer", maxDepth) {
		header, _ := m.Get("playlistHeaderRenderer")
		node, ok := document.Dig(header, "title")
		if !ok {
			continue
		}
		if text, ok := document.ResolveText(node); ok && text != "" {
			return &text
		}
	}
	return nil
}
