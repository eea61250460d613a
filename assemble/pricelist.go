package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

// Columns of the price list table.
var Columns = []string{"No", "Nama Produk", "Harga", "Harga Diskon", "Jumlah"}

// PriceList builds the multi-item document: a header cluster (group title and
// column header row) followed by one block per item. Every row is flagged so
// the planner repeats the header cluster on each page it opens.
func PriceList(l List, g layout.Geometry) (layout.Document, error) {
	if err := l.Validate(); err != nil {
		return layout.Document{}, err
	}

	title := PriceListTitle + ": " + l.Group.Name
	doc := layout.Document{Kind: layout.KindPriceList, Title: title, Geometry: g}

	doc.Blocks = append(doc.Blocks,
		layout.Block{
			ID:     "group-title",
			Role:   layout.RoleRepeatableHeader,
			Policy: layout.BreakAllow,
			HTML:   `<h1 class="sheet-group-title">` + html.EscapeString(title) + `</h1>`,
			Text:   title,
		},
		layout.Block{
			ID:     "columns",
			Role:   layout.RoleRepeatableHeader,
			Policy: layout.BreakAllow,
			HTML:   tableRow("sheet-columns", Columns),
			Text:   strings.Join(Columns, " | "),
		},
	)

	for i, it := range l.Items {
		discount := "-"
		if DiscountActive(it.Price, it.Discount) {
			discount = Rupiah(it.Discount)
		}
		cells := []string{strconv.Itoa(i + 1), it.Name, Rupiah(it.Price), discount, Count(it.Quantity)}

		doc.Blocks = append(doc.Blocks, layout.Block{
			ID:           fmt.Sprintf("row-%d", i),
			Role:         layout.RoleContent,
			Policy:       layout.BreakAllow,
			RepeatHeader: true,
			HTML:         tableRow("sheet-row", cells),
			Text:         strings.Join(cells, " | "),
		})
	}
	return doc, nil
}

func tableRow(class string, cells []string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="` + class + `">`)
	for _, c := range cells {
		sb.WriteString(`<span>` + html.EscapeString(c) + `</span>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}
