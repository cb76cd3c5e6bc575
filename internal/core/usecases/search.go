package usecases

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

// DefaultDebounce is the search quiescence window.
const DefaultDebounce = 500 * time.Millisecond

// SearchResult is the outcome of one search request.
type SearchResult struct {
	Seq        uint64                   `json:"seq"`
	Query      string                   `json:"query"`
	Candidates []domain.SearchCandidate `json:"candidates"`
	Stale      bool                     `json:"stale"`
}

// SearchOptions configures a LocationSearch.
type SearchOptions struct {
	// Debounce is the quiet window before a typed query is sent. Zero or
	// negative selects DefaultDebounce.
	Debounce time.Duration
	Limit    int
	// OnResults runs after a response becomes the visible list.
	OnResults func(ctx context.Context, res SearchResult)
	// OnSelect runs after a candidate is chosen.
	OnSelect func(ctx context.Context, c domain.SearchCandidate)
}

// LocationSearch is the per-session address search box. Requests carry a
// sequence number; only the response to the most recently issued request is
// ever shown.
type LocationSearch struct {
	base     context.Context
	geocoder ports.Geocoder
	opts     SearchOptions
	debounce *Debouncer

	mu         sync.Mutex
	issued     uint64
	query      string
	candidates []domain.SearchCandidate
}

// NewLocationSearch creates a search box. Debounced requests run on base,
// which should live as long as the session.
func NewLocationSearch(base context.Context, geocoder ports.Geocoder, opts SearchOptions) *LocationSearch {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	s := &LocationSearch{
		base:       base,
		geocoder:   geocoder,
		opts:       opts,
		candidates: []domain.SearchCandidate{},
	}
	s.debounce = NewDebouncer(opts.Debounce, func(q string) {
		s.Search(s.base, q)
	})
	return s
}

// Input records a keystroke. Non-empty queries are sent after the debounce
// window; an empty query clears the list immediately with no request.
func (s *LocationSearch) Input(query string) {
	if strings.TrimSpace(query) == "" {
		s.debounce.Cancel()
		s.Search(s.base, "")
		return
	}
	s.debounce.Push(query)
}

// Search issues a request immediately. Geocoder errors produce an empty list
// and a warning; they are never returned.
func (s *LocationSearch) Search(ctx context.Context, query string) SearchResult {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	candidates := []domain.SearchCandidate{}
	if query != "" {
		found, err := s.geocoder.Search(ctx, query, s.opts.Limit)
		if err != nil {
			logging.FromContext(ctx).Warn("location search failed",
				slog.String("query", query),
				slog.Any("error", err),
			)
		} else if found != nil {
			candidates = found
		}
	}

	res := SearchResult{Seq: seq, Query: query, Candidates: candidates}

	s.mu.Lock()
	if seq != s.issued {
		s.mu.Unlock()
		res.Stale = true
		metrics.SearchStaleDiscarded.Inc()
		return res
	}
	s.query = query
	s.candidates = candidates
	s.mu.Unlock()

	if s.opts.OnResults != nil {
		s.opts.OnResults(ctx, res)
	}
	return res
}

// Candidates returns the visible query and list.
func (s *LocationSearch) Candidates() (string, []domain.SearchCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SearchCandidate, len(s.candidates))
	copy(out, s.candidates)
	return s.query, out
}

// Select picks a visible candidate, clears the list and discards any request
// still in flight.
func (s *LocationSearch) Select(ctx context.Context, id string) (domain.SearchCandidate, error) {
	s.mu.Lock()
	var (
		chosen domain.SearchCandidate
		found  bool
	)
	for _, c := range s.candidates {
		if c.ID == id {
			chosen, found = c, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return domain.SearchCandidate{}, domain.ErrCandidateNotFound
	}
	s.issued++
	s.query = ""
	s.candidates = []domain.SearchCandidate{}
	s.mu.Unlock()

	s.debounce.Cancel()
	if s.opts.OnSelect != nil {
		s.opts.OnSelect(ctx, chosen)
	}
	return chosen, nil
}

// Close stops the debounce timer.
func (s *LocationSearch) Close() {
	s.debounce.Stop()
}
