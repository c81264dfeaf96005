package client

import (
	"context"

	"github.com/researchaccelerator-hub/innertube-miner/document"
)

// PageSource retrieves raw InnerTube documents.
type PageSource interface {
	// Connect prepares the underlying transport
	Connect(ctx context.Context) error

	// Disconnect releases the underlying transport
	Disconnect(ctx context.Context) error

	// WatchPage returns the initial data of a watch page; listID may be empty
	WatchPage(ctx context.Context, videoID, listID string) (document.Node, error)

	// Next returns the watch-next continuation page behind token
	Next(ctx context.Context, token string) (document.Node, error)

	// Browse returns the browse page of browseID
	Browse(ctx context.Context, browseID string) (document.Node, error)

	// BrowseContinuation returns the browse continuation page behind token
	BrowseContinuation(ctx context.Context, token string) (document.Node, error)
}
