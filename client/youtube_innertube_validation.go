package client

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	// YouTube video IDs are 11 characters
	videoIDLength = 11

	// Playlist IDs vary by kind; mixes embed a video ID after RD
	minPlaylistIDLength = 2
	maxPlaylistIDLength = 128

	mixPlaylistPrefix = "RD"
)

// Regular expressions for validation
var (
	// Video ID: 11 alphanumeric/underscore/dash characters
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

	// Playlist ID: alphanumeric/underscore/dash characters
	playlistIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateVideoID validates a YouTube video ID format
func ValidateVideoID(videoID string) error {
	return validateVideoID(videoID)
}

// ValidatePlaylistID validates a YouTube playlist ID format
func ValidatePlaylistID(listID string) error {
	return validatePlaylistID(listID)
}

// IsMixPlaylist reports whether listID names an auto-generated mix. Mixes
// cannot be browsed and are only reachable through a watch page.
func IsMixPlaylist(listID string) bool {
	return strings.HasPrefix(listID, mixPlaylistPrefix)
}

// validateVideoID validates a YouTube video ID format
// Video IDs are 11 alphanumeric characters with underscore and dash allowed
func validateVideoID(videoID string) error {
	if videoID == "" {
		return fmt.Errorf("video ID cannot be empty")
	}

	if len(videoID) != videoIDLength {
		return fmt.Errorf("video ID must be %d characters, got %d: %s",
			videoIDLength, len(videoID), videoID)
	}

	if !videoIDPattern.MatchString(videoID) {
		return fmt.Errorf("invalid video ID format (must be 11 alphanumeric/underscore/dash chars): %s",
			videoID)
	}

	return nil
}

// validatePlaylistID validates a YouTube playlist ID format
// Accepts PL, UU, OL, RD and other prefixes; only length and charset are checked
func validatePlaylistID(listID string) error {
	if listID == "" {
		return fmt.Errorf("playlist ID cannot be empty")
	}

	if len(listID) < minPlaylistIDLength || len(listID) > maxPlaylistIDLength {
		return fmt.Errorf("playlist ID must be between %d and %d characters, got %d: %s",
			minPlaylistIDLength, maxPlaylistIDLength, len(listID), listID)
	}

	if !playlistIDPattern.MatchString(listID) {
		return fmt.Errorf("invalid playlist ID format (must be alphanumeric/underscore/dash chars): %s",
			listID)
	}

	return nil
}
