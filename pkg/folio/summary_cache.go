package folio

import "sync"

// summaryCache memoises portfolio summaries until a write touches the portfolio.
// Each portfolio carries a generation that invalidate bumps; a summary computed
// from reads that started before the bump is never stored.
type summaryCache struct {
	mu          sync.RWMutex
	entries     map[string]PortfolioSummary
	generations map[string]uint64
}

func newSummaryCache() *summaryCache {
	return &summaryCache{
		entries:     make(map[string]PortfolioSummary),
		generations: make(map[string]uint64),
	}
}

// get returns the cached summary, or the current generation to pass to set.
func (c *summaryCache) get(portfolioID string) (PortfolioSummary, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[portfolioID]
	if !ok {
		return PortfolioSummary{}, c.generations[portfolioID], false
	}
	return copySummary(s), 0, true
}

// set stores s only if no invalidation happened since generation was read.
func (c *summaryCache) set(portfolioID string, generation uint64, s PortfolioSummary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[portfolioID] != generation {
		return false
	}
	c.entries[portfolioID] = copySummary(s)
	return true
}

func (c *summaryCache) invalidate(portfolioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, portfolioID)
	c.generations[portfolioID]++
}

func (c *summaryCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copySummary(s PortfolioSummary) PortfolioSummary {
	if s.BestPerformer != nil {
		best := *s.BestPerformer
		s.BestPerformer = &best
	}
	if s.WorstPerformer != nil {
		worst := *s.WorstPerformer
		s.WorstPerformer = &worst
	}
	return s
}
