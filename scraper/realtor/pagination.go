package realtor

import "fmt"

const (
	DefaultMinAgentsPerPage = 1
	DefaultMaxPages         = 50
)

// PaginationPolicy decides whether another results page should be requested.
// It does not rely on next-page markers in the markup, only on page yield and
// caps.
type PaginationPolicy struct {
	// MinAgentsPerPage is the yield below which a page is treated as the last.
	// Values below one are treated as one, so an empty page always stops.
	MinAgentsPerPage int
	// MaxPages bounds the page loop. Zero or negative disables the guard.
	MaxPages int
}

// NewPaginationPolicy returns the default policy.
func NewPaginationPolicy() PaginationPolicy {
	return PaginationPolicy{
		MinAgentsPerPage: DefaultMinAgentsPerPage,
		MaxPages:         DefaultMaxPages,
	}
}

// ShouldContinue reports whether page+1 should be fetched.
func (p PaginationPolicy) ShouldContinue(page, agentsOnPage, totalAgents int, maxAgents *int) bool {
	return p.StopReason(page, agentsOnPage, totalAgents, maxAgents) == ""
}

// StopReason explains why pagination stops, or returns "" to continue.
func (p PaginationPolicy) StopReason(page, agentsOnPage, totalAgents int, maxAgents *int) string {
	if maxAgents != nil && totalAgents >= *maxAgents {
		return fmt.Sprintf("reached max agents (%d)", *maxAgents)
	}
	minPerPage := p.MinAgentsPerPage
	if minPerPage < 1 {
		minPerPage = 1
	}
	if agentsOnPage < minPerPage {
		if agentsOnPage == 0 {
			return "no agents on page"
		}
		return fmt.Sprintf("page yielded %d agents, below minimum %d", agentsOnPage, minPerPage)
	}
	if p.MaxPages > 0 && page >= p.MaxPages {
		return fmt.Sprintf("reached max pages (%d)", p.MaxPages)
	}
	return ""
}
