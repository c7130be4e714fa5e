package pagination

const (
	// DefaultPerPage is the standard page size when a limit is not provided.
	DefaultPerPage = 25
	// MaxPerPage caps how many rows any listing can request.
	MaxPerPage = 100
)

// Params holds page/per-page inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps the inputs to sane defaults.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return p.Normalize().PerPage
}

// Meta describes a returned page for list envelopes.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta computes page metadata from a total row count.
func NewMeta(params Params, total int64) Meta {
	n := params.Normalize()
	pages := int(total) / n.PerPage
	if int(total)%n.PerPage != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Meta{
		Page:       n.Page,
		PerPage:    n.PerPage,
		TotalRows:  total,
		TotalPages: pages,
	}
}
