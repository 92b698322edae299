// Package listing owns the page/rows/filter state behind every console
// table. One Controller serves one list view; there is no cross-view
// coordination.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// ErrStale reports that a response arrived for a superseded refresh and
// was discarded. Not an error for the user, only for the caller that
// raced.
var ErrStale = errors.New("listing: stale response superseded")

// DefaultPerPage is used when options do not configure a page size.
const DefaultPerPage = 10

// FetchFunc retrieves one page for the controller's current query.
type FetchFunc[T any] func(ctx context.Context, q upstream.ListQuery) (upstream.PageEnvelope[T], error)

// Options configures a Controller.
type Options struct {
	// DefaultPerPage is the page size Reset restores.
	DefaultPerPage int
	// LockedFilters pins filters to the session's access scope. Locked
	// keys ignore SetFilter and survive Reset with their pinned value.
	LockedFilters map[string]string
}

// Controller holds list state and refreshes it against the upstream API.
// Safe for concurrent use; a newer refresh always wins over an older
// in-flight one.
type Controller[T any] struct {
	mu         sync.Mutex
	page       int
	perPage    int
	filters    map[string]string
	lastPage   int // 0 until the first envelope arrives
	generation uint64
	cancel     context.CancelFunc
	current    upstream.PageEnvelope[T]
	fetch      FetchFunc[T]
	opts       Options
}

// NewController builds a Controller starting at page 1 with the default
// page size and any locked scope filters applied.
func NewController[T any](fetch FetchFunc[T], opts Options) *Controller[T] {
	if opts.DefaultPerPage <= 0 {
		opts.DefaultPerPage = DefaultPerPage
	}
	c := &Controller[T]{
		page:    1,
		perPage: opts.DefaultPerPage,
		filters: make(map[string]string),
		fetch:   fetch,
		opts:    opts,
	}
	for k, v := range opts.LockedFilters {
		if v != "" {
			c.filters[k] = v
		}
	}
	return c
}

// Page returns the current page number.
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PerPage returns the current page size.
func (c *Controller[T]) PerPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perPage
}

// LastPage returns the last known page count, 0 before the first fetch.
func (c *Controller[T]) LastPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPage
}

// Current returns the most recently applied envelope.
func (c *Controller[T]) Current() upstream.PageEnvelope[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// GoToPage moves to page n. Out-of-range requests are no-ops: clamping
// happens here, never on the server.
func (c *Controller[T]) GoToPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		return
	}
	if c.lastPage > 0 && n > c.lastPage {
		return
	}
	c.page = n
}

// FirstPage jumps to page 1.
func (c *Controller[T]) FirstPage() { c.GoToPage(1) }

// PrevPage steps one page back.
func (c *Controller[T]) PrevPage() {
	c.GoToPage(c.Page() - 1)
}

// NextPage steps one page forward.
func (c *Controller[T]) NextPage() {
	c.GoToPage(c.Page() + 1)
}

// LastKnownPage jumps to the last page reported by the backend.
func (c *Controller[T]) LastKnownPage() {
	c.GoToPage(c.LastPage())
}

// ChangeRowsPerPage updates the page size and returns to page 1.
func (c *Controller[T]) ChangeRowsPerPage(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perPage = n
	c.page = 1
}

// SetFilter updates one filter value. Locked scope filters are pinned
// and ignore updates. Setting an empty value clears the filter, which
// omits it from the transmitted query.
func (c *Controller[T]) SetFilter(key, value string) {
	if key == "" {
		return
	}
	if _, locked := c.opts.LockedFilters[key]; locked {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		delete(c.filters, key)
		return
	}
	c.filters[key] = value
}

// Filter returns the current value of a filter.
func (c *Controller[T]) Filter(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters[key]
}

// Reset restores page 1, the default page size, and clears filters.
// Locked scope filters come back pinned to their scope value, not empty.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = 1
	c.perPage = c.opts.DefaultPerPage
	c.filters = make(map[string]string)
	for k, v := range c.opts.LockedFilters {
		if v != "" {
			c.filters[k] = v
		}
	}
}

// Query snapshots the current list query.
func (c *Controller[T]) Query() upstream.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T]) snapshotLocked() upstream.ListQuery {
	filters := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = v
	}
	return upstream.ListQuery{Page: c.page, PerPage: c.perPage, Filters: filters}
}

// Refresh fetches the current query. Starting a refresh cancels any
// in-flight one; if another refresh supersedes this one before its
// response lands, the response is dropped and ErrStale returned so an
// older page can never overwrite newer state.
func (c *Controller[T]) Refresh(ctx context.Context) (upstream.PageEnvelope[T], error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	query := c.snapshotLocked()
	c.mu.Unlock()

	envelope, err := c.fetch(fetchCtx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		var zero upstream.PageEnvelope[T]
		return zero, ErrStale
	}
	cancel()
	c.cancel = nil
	if err != nil {
		var zero upstream.PageEnvelope[T]
		return zero, err
	}
	c.lastPage = envelope.Meta.LastPage
	if c.lastPage > 0 && c.page > c.lastPage {
		c.page = c.lastPage
	}
	c.current = envelope
	return envelope, nil
}
