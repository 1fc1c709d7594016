package pixeldust

import (
	"context"
	"sync/atomic"
)

// Navigator tracks the latest top-level navigation of one browsing context.
// Earlier navigations are never interrupted; their results are discarded
// once a newer one has started.
type Navigator struct {
	fetcher *Fetcher
	latest  atomic.Uint64
}

// NewNavigator returns a navigator driving f.
func (f *Fetcher) NewNavigator() *Navigator { return &Navigator{fetcher: f} }

// Navigate loads rawURL. If another Navigate began before this one finished,
// the result is dropped and *ErrSuperseded is returned.
func (n *Navigator) Navigate(ctx context.Context, rawURL string) (*FetchedResponse, error) {
	id := n.latest.Add(1)

	resp, err := n.fetcher.Navigate(ctx, rawURL)

	if latest := n.latest.Load(); latest != id {
		n.fetcher.log.Debug().Uint64("navigation", id).Uint64("latest", latest).Str("url", rawURL).Msg("discarding superseded navigation")
		return nil, &ErrSuperseded{ID: id, Latest: latest}
	}

	return resp, err
}

// Current returns the id of the most recent navigation.
func (n *Navigator) Current() uint64 { return n.latest.Load() }
