package miner

import (
	"strings"
	"unicode/utf8"

	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
)

const (
	defaultTitle       = "Untitled"
	defaultChannelName = "Unknown"

	// Shorter runs are labels and buttons, not descriptions.
	minDescriptionRunes = 51
	maxDescriptionRunes = 1000
)

// videoDetails extracts the subject video of a watch page.
func videoDetails(doc document.Node, videoID string, maxDepth int) *youtube.VideoInfo {
	if maxDepth <= 0 {
		maxDepth = document.DefaultMaxDepth
	}

	info := &youtube.VideoInfo{
		ID:      videoID,
		Title:   defaultTitle,
		URL:     WatchURLPrefix + videoID,
		Related: []youtube.Video{},
	}

	primary := primaryInfo(doc, maxDepth)
	if primary != nil {
		if title, ok := document.ResolveField(primary, "title"); ok && title != "" {
			info.Title = title
		}
		info.PublishedText = firstField(primary, "dateText", "publishDate")
	}

	info.ViewCountText = viewCount(doc, maxDepth)
	info.Author = owner(doc, primary, maxDepth)
	info.Description = description(doc, maxDepth)
	return info
}

// primaryInfo returns the first node whose title resolves and that also
// carries a view count or a date.
func primaryInfo(doc document.Node, maxDepth int) *document.Mapping {
	for _, m := range document.FindByKey(doc, "title", maxDepth) {
		title, ok := document.ResolveField(m, "title")
		if !ok || title == "" {
			continue
		}
		if m.Has("viewCount") || m.Has("dateText") {
			return m
		}
	}
	return nil
}

func viewCount(doc document.Node, maxDepth int) *string {
	for _, m := range document.FindByKey(doc, "viewCount", maxDepth) {
		if text, ok := document.ResolveField(m, "viewCount"); ok && text != "" {
			return &text
		}
		node, ok := document.Dig(m, "viewCount", "videoViewCountRenderer", "viewCount")
		if !ok {
			continue
		}
		if text, ok := document.ResolveText(node); ok && text != "" {
			return &text
		}
	}
	return nil
}

// owner reads the channel from the primary node's owner, falling back to the
// first videoOwnerRenderer on the page.
func owner(doc document.Node, primary *document.Mapping, maxDepth int) youtube.Author {
	var renderer document.Node
	if primary != nil {
		renderer, _ = document.Dig(primary, "owner", "videoOwnerRenderer")
	}
	if renderer == nil {
		if found := document.FindByKey(doc, "videoOwnerRenderer", maxDepth); len(found) > 0 {
			renderer, _ = found[0].Get("videoOwnerRenderer")
		}
	}

	author := youtube.Author{Name: youtube.StringPtr(defaultChannelName)}
	if renderer == nil {
		return author
	}

	if title, ok := document.Dig(renderer, "title"); ok {
		if name, ok := document.ResolveText(title); ok && name != "" {
			author.Name = &name
		}
	}
	if id, ok := document.DigString(renderer, "navigationEndpoint", "browseEndpoint", "browseId"); ok && id != "" {
		author.ID = &id
	}
	return author
}

// description prefers the structured attributed description and otherwise
// takes the longest run sequence on the page.
func description(doc document.Node, maxDepth int) string {
	for _, m := range document.FindByKey(doc, "attributedDescription", maxDepth) {
		if content, ok := document.DigString(m, "attributedDescription", "content"); ok && content != "" {
			return truncate(content, maxDescriptionRunes)
		}
	}

	var best string
	bestLen := 0
	for _, m := range document.FindByKey(doc, "runs", maxDepth) {
		text := joinRuns(m)
		n := utf8.RuneCountInString(text)
		if n >= minDescriptionRunes && n > bestLen {
			best, bestLen = text, n
		}
	}
	return truncate(best, maxDescriptionRunes)
}

func joinRuns(m *document.Mapping) string {
	v, _ := m.Get("runs")
	runs, ok := v.(document.Sequence)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, run := range runs {
		if s, ok := document.DigString(run, "text"); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func firstField(m *document.Mapping, keys ...string) *string {
	for _, key := range keys {
		if text, ok := document.ResolveField(m, key); ok && text != "" {
			return &text
		}
	}
	return nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
