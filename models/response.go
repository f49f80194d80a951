package models

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageRequest is offset/limit pagination. It is not a stable snapshot: concurrent inserts
// may shift page boundaries.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// Skip returns the number of documents before the page.
func (p PageRequest) Skip() int64 {
	n := p.Normalize()
	return int64((n.Page - 1) * n.Limit)
}

// PagedResult wraps one page of a listing.
type PagedResult struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int64       `json:"total"`
}
