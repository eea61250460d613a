package assemble

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

// Labels printed by the assembled documents.
const (
	DetailSubtitle   = "Detail Produk"
	AttachmentsTitle = "Lampiran"
	PriceListTitle   = "Daftar Harga"
)

// imagesPerRow is how many attachment images share one block.
const imagesPerRow = 2

// Assemble builds the document for whichever payload kind p carries.
func Assemble(p Payload, g layout.Geometry) (layout.Document, error) {
	switch {
	case p.Item != nil:
		return Detail(*p.Item, g)
	case p.List != nil:
		return PriceList(*p.List, g)
	default:
		return layout.Document{}, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
}

// Detail builds the single-item document: header, summary, one block per
// top-level description node and, if the item has attachments, a section
// that always opens a fresh page with two images per row.
func Detail(it Item, g layout.Geometry) (layout.Document, error) {
	if err := it.Validate(); err != nil {
		return layout.Document{}, err
	}

	doc := layout.Document{Kind: layout.KindDetail, Title: it.Name, Geometry: g}
	add := func(b layout.Block) {
		if b.Role == "" {
			b.Role = layout.RoleContent
		}
		if b.Policy == "" {
			b.Policy = layout.BreakAllow
		}
		doc.Blocks = append(doc.Blocks, b)
	}

	name := html.EscapeString(it.Name)
	add(layout.Block{
		ID:   "header",
		HTML: `<div class="sheet-header"><h1>` + name + `</h1><p class="sheet-subtitle">` + DetailSubtitle + `</p></div>`,
		Text: it.Name + "\n" + DetailSubtitle,
	})

	add(summaryBlock(it))

	for i, f := range SplitMarkup(it.Description) {
		add(layout.Block{
			ID:     fmt.Sprintf("desc-%d", i),
			HTML:   `<div class="sheet-desc">` + f.HTML + `</div>`,
			Text:   f.Text,
			Images: f.Images,
		})
	}

	if len(it.Images) > 0 {
		add(layout.Block{
			ID:     "attachments-title",
			Role:   layout.RoleSectionTitle,
			Policy: layout.BreakForceNewPage,
			HTML:   `<h2 class="sheet-section-title">` + AttachmentsTitle + `</h2>`,
			Text:   AttachmentsTitle,
		})
		for i, pair := range chunk(it.Images, imagesPerRow) {
			var sb strings.Builder
			sb.WriteString(`<div class="sheet-attachments">`)
			for _, src := range pair {
				sb.WriteString(`<figure><img src="` + html.EscapeString(src) + `" alt=""></figure>`)
			}
			sb.WriteString(`</div>`)
			add(layout.Block{
				ID:     fmt.Sprintf("attachments-%d", i),
				HTML:   sb.String(),
				Images: pair,
			})
		}
	}
	return doc, nil
}

// summaryBlock is the two-column block: image on the left, pricing and
// quantity on the right.
func summaryBlock(it Item) layout.Block {
	var (
		sb     strings.Builder
		text   []string
		images []string
	)
	sb.WriteString(`<div class="sheet-summary"><div class="sheet-summary-image">`)
	if it.Image != "" {
		sb.WriteString(`<img src="` + html.EscapeString(it.Image) + `" alt="">`)
		images = append(images, it.Image)
	}
	sb.WriteString(`</div><div class="sheet-summary-info">`)

	if DiscountActive(it.Price, it.Discount) {
		sb.WriteString(`<p class="sheet-price">Harga: <s>` + Rupiah(it.Price) + `</s> <strong>` + Rupiah(it.Discount) + `</strong></p>`)
		sb.WriteString(`<p class="sheet-saving">Hemat ` + Rupiah(it.Price-it.Discount) + `</p>`)
		text = append(text, "Harga: "+Rupiah(it.Price)+" "+Rupiah(it.Discount), "Hemat "+Rupiah(it.Price-it.Discount))
	} else {
		sb.WriteString(`<p class="sheet-price">Harga: <strong>` + Rupiah(it.Price) + `</strong></p>`)
		text = append(text, "Harga: "+Rupiah(it.Price))
	}
	sb.WriteString(`<p class="sheet-quantity">Jumlah: ` + Count(it.Quantity) + `</p>`)
	text = append(text, "Jumlah: "+Count(it.Quantity))
	sb.WriteString(`</div></div>`)

	return layout.Block{
		ID:     "summary",
		HTML:   sb.String(),
		Text:   strings.Join(text, "\n"),
		Images: images,
	}
}

func chunk(s []string, n int) [][]string {
	var out [][]string
	for len(s) > n {
		out = append(out, s[:n:n])
		s = s[n:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}
	return out
}
