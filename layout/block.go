// Package layout holds the block model of an exported document and the
// page-break planner that decides where pages are cut.
//
// The planner never measures anything itself. It consumes block positions
// and heights reported by a rendering surface and only computes where the
// breaks fall, which spacers push content to the next page and where a table
// header has to be repeated.
package layout

// Role tags a block with its function in the document.
type Role string

const (
	RoleContent           Role = "content"
	RoleSectionTitle      Role = "section-title"
	RoleForcedBreakAnchor Role = "forced-break-anchor"
	RoleRepeatableHeader  Role = "repeatable-header"
	// RoleSpacer blocks are synthesized by the planner, never authored.
	RoleSpacer Role = "spacer"
)

// BreakPolicy controls how the planner may move a block.
type BreakPolicy string

const (
	// BreakAllow lets a block be pushed to the next page as a whole.
	BreakAllow BreakPolicy = "allow"
	// BreakForceNewPage starts the block on a fresh page unless it already
	// sits at the top of one.
	BreakForceNewPage BreakPolicy = "force-new-page-unless-at-top"
)

// Block is an atomic unit of the document: it is never split across pages.
type Block struct {
	ID     string      `json:"id"`
	Role   Role        `json:"role"`
	Policy BreakPolicy `json:"policy"`

	// TopPx is relative to the document origin, not the viewport.
	TopPx    float64 `json:"topPx"`
	HeightPx float64 `json:"heightPx"`

	// RepeatHeader marks a table row that must be preceded by the header
	// cluster when it opens a page.
	RepeatHeader bool `json:"repeatHeader,omitempty"`

	// Origin is the ID of the block a synthesized header was copied from.
	Origin string `json:"origin,omitempty"`

	HTML   string   `json:"-"`
	Text   string   `json:"text,omitempty"`
	Images []string `json:"images,omitempty"`
}

// BottomPx returns the lower edge of the block.
func (b Block) BottomPx() float64 {
	return b.TopPx + b.HeightPx
}

// Synthesized reports whether the planner created the block.
func (b Block) Synthesized() bool {
	return b.Role == RoleSpacer || b.Origin != ""
}

// Kind names the document template a Document was assembled from.
type Kind string

const (
	KindDetail    Kind = "detail"
	KindPriceList Kind = "price-list"
)

// Document is the ordered block sequence of one export call plus the page
// geometry it is laid out against. It lives only for the duration of that
// call.
type Document struct {
	Kind     Kind     `json:"kind"`
	Title    string   `json:"title"`
	Geometry Geometry `json:"geometry"`
	Blocks   []Block  `json:"blocks"`

	// HeightPx is the full document height as last measured or planned.
	HeightPx float64 `json:"heightPx"`
}

// Clone returns a copy whose block slice can be modified independently.
func (d Document) Clone() Document {
	c := d
	c.Blocks = append([]Block(nil), d.Blocks...)
	return c
}

// Images returns every image URL referenced by the document, in order.
func (d Document) Images() []string {
	var urls []string
	for _, b := range d.Blocks {
		urls = append(urls, b.Images...)
	}
	return urls
}
