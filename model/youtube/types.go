// Package youtube contains the canonical records mined from InnerTube documents
package youtube

// Author identifies the channel that published a video.
// Nil fields were not present in the source node.
type Author struct {
	Name *string `json:"name"`
	ID   *string `json:"channelId"`
}

// Video is the shape-independent record produced from any video or playlist
// renderer. ID and Title are always non-empty; every other field is nil when
// the source node did not carry it.
type Video struct {
	ID            string  `json:"videoId"`
	Title         string  `json:"title"`
	ThumbnailRef  *string `json:"thumbnail"`
	Duration      *string `json:"duration"`
	ViewCountText *string `json:"views"`
	PublishedText *string `json:"publishedDate"`
	Author        Author  `json:"channel"`
}

// WithThumbnail returns a copy of v whose ThumbnailRef is ref. A nil ref
// marks the thumbnail as absent.
func (v Video) WithThumbnail(ref *string) Video {
	v.ThumbnailRef = ref
	return v
}

// VideoInfo describes a watch page: the subject video and the related
// videos listed next to it.
type VideoInfo struct {
	ID            string  `json:"videoId"`
	Title         string  `json:"title"`
	ThumbnailRef  *string `json:"thumbnail"`
	ViewCountText *string `json:"views"`
	PublishedText *string `json:"publishedDate"`
	Author        Author  `json:"channel"`
	Description   string  `json:"description"`
	URL           string  `json:"url"`
	Related       []Video `json:"relatedVideos"`
}

// Playlist is an ordered list of playlist items.
type Playlist struct {
	ID    string  `json:"playlistId"`
	Title *string `json:"title"`
	Items []Video `json:"items"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
