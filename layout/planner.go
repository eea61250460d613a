package layout

import (
	"cmp"
	"fmt"
	"slices"
)

// Break records one page break inserted by the planner.
type Break struct {
	// Before is the ID of the block pushed to the next page.
	Before string
	// Page is the 1-based page the block now opens.
	Page     int
	SpacerPx float64
	Forced   bool
	// Header reports whether a header cluster was repeated after the spacer.
	Header bool
}

// Plan is the outcome of planning a document.
type Plan struct {
	Document Document
	Breaks   []Break

	// Overflow lists blocks taller than one page body, counting the header
	// cluster for rows that repeat it. They are left in place and will run
	// past the page boundary in the raster.
	Overflow []string

	Pages int
}

// Planner computes page breaks for measured documents.
//
// Planning is a single forward fold: each block's adjusted top is its
// measured top plus the height of everything the planner inserted before it,
// so no re-layout is needed between insertions.
type Planner struct {
	geo Geometry
}

// NewPlanner returns a planner for the given page geometry.
func NewPlanner(g Geometry) *Planner {
	if g.TopTolerancePx == 0 {
		g.TopTolerancePx = DefaultTopTolerancePx
	}
	return &Planner{geo: g}
}

// Geometry returns the geometry the planner cuts against.
func (p *Planner) Geometry() Geometry {
	return p.geo
}

// Plan returns doc with spacers and repeated headers inserted so that no
// block straddles a page boundary and every force-break block opens a page.
// Planning an already planned document inserts nothing.
func (p *Planner) Plan(doc Document) Plan {
	g := p.geo
	blocks := slices.Clone(doc.Blocks)
	slices.SortStableFunc(blocks, func(a, b Block) int {
		return cmp.Compare(a.TopPx, b.TopPx)
	})

	var (
		plan     Plan
		out      = make([]Block, 0, len(blocks))
		header   []Block
		headerPx float64
		closed   bool
		offset   float64
		lastDown float64
	)

	for _, b := range blocks {
		switch {
		case b.Role == RoleRepeatableHeader && b.Origin == "" && !closed:
			header = append(header, b)
			headerPx += b.HeightPx
		case len(header) > 0:
			closed = true
		}

		top := b.TopPx + offset
		if b.Synthesized() {
			b.TopPx = top
			out = append(out, b)
			lastDown = max(lastDown, b.BottomPx())
			continue
		}

		idx := g.PageIndex(top)
		within := top - float64(idx)*g.PageHeightPx
		oversized := b.HeightPx > g.BodyHeightPx()
		// A repeating row must also fit beneath its header cluster.
		if b.RepeatHeader && len(header) > 0 && headerPx+b.HeightPx > g.BodyHeightPx() {
			oversized = true
		}
		if oversized {
			plan.Overflow = append(plan.Overflow, b.ID)
		}

		forced := b.Policy == BreakForceNewPage && within > g.MarginTopPx+g.TopTolerancePx
		overflows := !oversized && top+b.HeightPx > g.BottomLimit(idx)

		if forced || overflows {
			next := g.NextPageTop(idx)
			spacer := Block{
				ID:       "spacer-" + b.ID,
				Role:     RoleSpacer,
				Policy:   BreakAllow,
				TopPx:    top,
				HeightPx: next - top,
			}
			out = append(out, spacer)
			offset += spacer.HeightPx
			top = next

			brk := Break{Before: b.ID, Page: idx + 2, SpacerPx: spacer.HeightPx, Forced: forced}
			if b.RepeatHeader && len(header) > 0 {
				for _, h := range header {
					h.Origin = h.ID
					h.ID = fmt.Sprintf("%s@p%d", h.ID, idx+2)
					h.TopPx = top
					out = append(out, h)
					top += h.HeightPx
					offset += h.HeightPx
				}
				brk.Header = true
			}
			plan.Breaks = append(plan.Breaks, brk)
		}

		b.TopPx = top
		out = append(out, b)
		lastDown = max(lastDown, b.BottomPx())
	}

	planned := doc
	planned.Geometry = g
	planned.Blocks = out
	planned.HeightPx = doc.HeightPx + offset
	if planned.HeightPx < lastDown+g.MarginBottomPx {
		planned.HeightPx = lastDown + g.MarginBottomPx
	}

	plan.Document = planned
	plan.Pages = g.PageCount(planned.HeightPx)
	return plan
}
