// Package paginate drives the fetch and merge cycle over continuation pages
// and collects the videos found on them.
package paginate

import (
	"context"
	"fmt"

	"github.com/researchaccelerator-hub/innertube-miner/document"
	"github.com/researchaccelerator-hub/innertube-miner/model/youtube"
	"github.com/researchaccelerator-hub/innertube-miner/normalize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FetchFunc retrieves the page behind a continuation token. Any error ends
// pagination; it is never retried.
type FetchFunc func(ctx context.Context, token string) (document.Node, error)

// NormalizeFunc turns a candidate node into a video, or reports false.
type NormalizeFunc func(m *document.Mapping) (youtube.Video, bool)

// State is the position of a Controller in its lifecycle.
type State int

const (
	StateInit State = iota
	StateFetching
	StateMerging
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetching:
		return "fetching"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StopReason explains why a Controller reached a terminal state.
type StopReason string

const (
	StopNone              StopReason = ""
	StopCapReached        StopReason = "cap_reached"
	StopNoToken           StopReason = "no_token"
	StopAttemptsExhausted StopReason = "attempts_exhausted"
	StopFetchFailed       StopReason = "fetch_failed"
	StopUnusableDocument  StopReason = "unusable_document"
)

// Options configures one pagination run.
type Options struct {
	// Cap is the maximum number of videos collected.
	Cap int
	// MaxAttempts bounds the number of continuation fetches.
	MaxAttempts int
	// ExcludeIDs are never collected, typically the subject video itself.
	ExcludeIDs []string
	// MaxDepth bounds every document search. Zero means document.DefaultMaxDepth.
	MaxDepth int
	// CandidateKey selects candidate nodes. Empty means "videoId".
	CandidateKey string
	// Normalize converts candidates. Nil means normalize.Video.
	Normalize NormalizeFunc
	// Logger receives state transitions. Nil means the global logger.
	Logger *zerolog.Logger
}

// Controller is the per-request pagination state machine. All of its state
// (accumulator, attempt counter, current page) is private to one request.
type Controller struct {
	fetch    FetchFunc
	opts     Options
	acc      *Accumulator
	doc      document.Node
	state    State
	attempts int
	reason   StopReason
	log      zerolog.Logger
}

// NewController prepares a controller for the given first page. It returns
// document.ErrMalformed when the page cannot be searched.
func NewController(initial document.Node, fetch FetchFunc, opts Options) (*Controller, error) {
	if !document.Searchable(initial) {
		return nil, fmt.Errorf("initial page: %w", document.ErrMalformed)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = document.DefaultMaxDepth
	}
	if opts.CandidateKey == "" {
		opts.CandidateKey = "videoId"
	}
	if opts.Normalize == nil {
		opts.Normalize = normalize.Video
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Controller{
		fetch: fetch,
		opts:  opts,
		acc:   NewAccumulator(opts.Cap, opts.ExcludeIDs...),
		doc:   initial,
		state: StateInit,
		log:   logger.With().Str("component", "paginate").Logger(),
	}, nil
}

// Run mines the first page and then follows continuation tokens one page at
// a time until the cap is reached, no token is found, the attempt budget is
// spent or a fetch fails. Whatever was collected is returned in every case.
// Calling Run again after it finished returns the same result.
func (c *Controller) Run(ctx context.Context) []youtube.Video {
	if c.state == StateDone || c.state == StateAborted {
		return c.acc.Items()
	}

	c.merge(c.doc)

	for {
		token, ok := c.next()
		if !ok {
			break
		}

		c.attempts++
		c.transition(StateFetching)
		c.log.Debug().Int("attempt", c.attempts).Msg("Fetching continuation page")

		if c.fetch == nil {
			c.abort(StopFetchFailed, fmt.Errorf("no fetch function"))
			break
		}
		page, err := c.fetch(ctx, token)
		if err != nil {
			c.abort(StopFetchFailed, err)
			break
		}
		if !document.Searchable(page) {
			c.abort(StopUnusableDocument, document.ErrMalformed)
			break
		}

		c.doc = page
		c.merge(page)
	}

	c.log.Info().
		Str("state", c.state.String()).
		Str("reason", string(c.reason)).
		Int("attempts", c.attempts).
		Int("collected", c.acc.Len()).
		Msg("Pagination finished")

	return c.acc.Items()
}

// next decides whether another page should be fetched and returns its
// token. It moves the controller to StateDone when it should not.
func (c *Controller) next() (string, bool) {
	if c.acc.Full() {
		c.finish(StopCapReached)
		return "", false
	}
	if c.attempts >= c.opts.MaxAttempts {
		c.finish(StopAttemptsExhausted)
		return "", false
	}
	token, ok := FindToken(c.doc, c.opts.MaxDepth)
	if !ok {
		c.finish(StopNoToken)
		return "", false
	}
	return token, true
}

// merge feeds every candidate of page through the normalizer into the
// accumulator.
func (c *Controller) merge(page document.Node) {
	c.transition(StateMerging)

	candidates := document.FindByKey(page, c.opts.CandidateKey, c.opts.MaxDepth)
	added := 0
	for _, m := range candidates {
		if c.acc.Full() {
			break
		}
		v, ok := c.opts.Normalize(m)
		if !ok {
			continue
		}
		if c.acc.Insert(v) {
			added++
		}
	}

	c.log.Debug().
		Int("candidates", len(candidates)).
		Int("added", added).
		Int("collected", c.acc.Len()).
		Msg("Merged page")
}

func (c *Controller) transition(to State) {
	c.state = to
}

func (c *Controller) finish(reason StopReason) {
	c.reason = reason
	c.transition(StateDone)
}

func (c *Controller) abort(reason StopReason, err error) {
	c.reason = reason
	c.transition(StateAborted)
	c.log.Warn().
		Err(err).
		Int("attempt", c.attempts).
		Int("collected", c.acc.Len()).
		Msg("Continuation fetch failed, keeping partial results")
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Reason returns why the controller stopped, or StopNone while it runs.
func (c *Controller) Reason() StopReason { return c.reason }

// Attempts returns the number of continuation fetches issued.
func (c *Controller) Attempts() int { return c.attempts }

// Collect runs a controller built from initial, fetch and opts.
// Only document.ErrMalformed is returned as an error.
func Collect(ctx context.Context, initial document.Node, fetch FetchFunc, opts Options) ([]youtube.Video, error) {
	c, err := NewController(initial, fetch, opts)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx), nil
}

// CollectWithPagination collects up to limit videos from initial and the
// pages behind its continuation tokens, issuing at most maxAttempts fetches.
func CollectWithPagination(ctx context.Context, initial document.Node, fetch FetchFunc, limit, maxAttempts int, excludeIDs ...string) ([]youtube.Video, error) {
	return Collect(ctx, initial, fetch, Options{
		Cap:         limit,
		MaxAttempts: maxAttempts,
		ExcludeIDs:  excludeIDs,
	})
}
