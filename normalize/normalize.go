// Package normalize turns renderer nodes of unknown shape into canonical
// video records.
//
// Dispatch is driven by field names, never by renderer type: every logical
// attribute has an ordered list of candidate fields and the first one that
// resolves wins. A node carrying videoId and a resolvable title is a video no
// matter which renderer family it came from. The candidate order was taken
// from observed payloads and must be kept as is.
package normalize

import (
	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
)

// Candidate field lists, in priority order.
var (
	titleFields     = []string{"title", "headline"}
	viewFields      = []string{"viewCountText", "shortViewCountText"}
	publishedFields = []string{"publishedTimeText"}
	authorFields    = []string{"shortBylineText", "longBylineText", "ownerText"}
)

const (
	idField            = "videoId"
	lengthField        = "lengthText"
	lengthSecondsField = "lengthSeconds"
	overlaysField      = "thumbnailOverlays"
	timeStatusField    = "thumbnailOverlayTimeStatusRenderer"
	channelIDField     = "channelId"
)

// Video normalizes a video renderer (compact, grid, rich, with-context, ...).
// It returns false when the node does not yield both an id and a title.
func Video(m *document.Mapping) (youtube.Video, bool) {
	v, authorNode, ok := base(m)
	if !ok {
		return youtube.Video{}, false
	}

	v.Duration = firstPresent(
		func() (string, bool) { return document.ResolveField(m, lengthField) },
		func() (string, bool) { return overlayDuration(m) },
	)
	v.ViewCountText = firstText(m, viewFields)
	v.PublishedText = firstText(m, publishedFields)
	v.Author.ID = firstPresent(
		func() (string, bool) { return browseID(authorNode) },
		func() (string, bool) { return document.DigString(m, channelIDField) },
		func() (string, bool) { return document.DigString(m, "navigationEndpoint", "browseEndpoint", "browseId") },
	)

	return v, true
}

// PlaylistItem normalizes playlist panel and playlist row renderers. Unlike
// Video it falls back to lengthSeconds for the duration and only takes the
// author id from the byline itself.
func PlaylistItem(m *document.Mapping) (youtube.Video, bool) {
	v, authorNode, ok := base(m)
	if !ok {
		return youtube.Video{}, false
	}

	v.Duration = firstPresent(
		func() (string, bool) { return document.ResolveField(m, lengthField) },
		func() (string, bool) { return lengthSeconds(m) },
	)
	v.ViewCountText = firstText(m, viewFields)
	v.PublishedText = firstText(m, publishedFields)
	v.Author.ID = firstPresent(func() (string, bool) { return browseID(authorNode) })

	return v, true
}

// base resolves the attributes shared by every renderer family and returns
// the byline node the author name came from.
func base(m *document.Mapping) (youtube.Video, document.Node, bool) {
	if m == nil {
		return youtube.Video{}, nil, false
	}

	id, ok := document.DigString(m, idField)
	if !ok || id == "" {
		return youtube.Video{}, nil, false
	}

	title, ok := resolveTitle(m)
	if !ok {
		return youtube.Video{}, nil, false
	}

	v := youtube.Video{
		ID:           id,
		Title:        title,
		ThumbnailRef: thumbnail(m),
	}

	for _, field := range authorFields {
		node, present := m.Get(field)
		if !present {
			continue
		}
		if name, ok := document.ResolveText(node); ok {
			v.Author.Name = youtube.StringPtr(name)
			return v, node, true
		}
	}

	return v, nil, true
}

// resolveTitle skips empty candidates: the title is mandatory and must be
// non-empty.
func resolveTitle(m *document.Mapping) (string, bool) {
	for _, field := range titleFields {
		if s, ok := document.ResolveField(m, field); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func firstText(m *document.Mapping, fields []string) *string {
	for _, field := range fields {
		if s, ok := document.ResolveField(m, field); ok {
			return youtube.StringPtr(s)
		}
	}
	return nil
}

func firstPresent(candidates ...func() (string, bool)) *string {
	for _, candidate := range candidates {
		if s, ok := candidate(); ok {
			return youtube.StringPtr(s)
		}
	}
	return nil
}

// overlayDuration returns the time-status text of the first overlay that
// carries one.
func overlayDuration(m *document.Mapping) (string, bool) {
	node, ok := m.Get(overlaysField)
	if !ok {
		return "", false
	}
	overlays, ok := node.(document.Sequence)
	if !ok {
		return "", false
	}
	for _, overlay := range overlays {
		text, ok := document.Dig(overlay, timeStatusField, "text")
		if !ok {
			continue
		}
		if s, ok := document.ResolveText(text); ok {
			return s, true
		}
	}
	return "", false
}

// browseID finds the channel browse id attached to a byline text node,
// either on one of its runs or on the node itself.
func browseID(n document.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if runs, ok := document.Dig(n, "runs"); ok {
		if seq, ok := runs.(document.Sequence); ok {
			for _, run := range seq {
				if id, ok := document.DigString(run, "navigationEndpoint", "browseEndpoint", "browseId"); ok && id != "" {
					return id, true
				}
			}
		}
	}
	if id, ok := document.DigString(n, "navigationEndpoint", "browseEndpoint", "browseId"); ok && id != "" {
		return id, true
	}
	return "", false
}

// thumbnail picks the last entry of thumbnail.thumbnails, which InnerTube
// orders from smallest to largest.
func thumbnail(m *document.Mapping) *string {
	node, ok := document.Dig(m, "thumbnail", "thumbnails")
	if !ok {
		return nil
	}
	thumbs, ok := node.(document.Sequence)
	if !ok {
		return nil
	}
	for i := len(thumbs) - 1; i >= 0; i-- {
		if url, ok := document.DigString(thumbs[i], "url"); ok && url != "" {
			return youtube.StringPtr(url)
		}
	}
	return nil
}
