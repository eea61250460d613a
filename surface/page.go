package surface

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/porticus-lab/go-sheet-pdf/layout"
)

// SheetID is the element id of the block container in rendered pages.
const SheetID = "sheet"

// BlockAttr is the attribute carrying each block's ID in rendered pages.
const BlockAttr = "data-block"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<div id="sheet">
{{- range .Blocks}}
<div class="block" data-block="{{.ID}}" data-role="{{.Role}}"{{with .Style}} style="{{.}}"{{end}}>{{.HTML}}</div>
{{- end}}
</div>
</body>
</html>
`))

const baseCSS = `
* { box-sizing: border-box; }
html, body { margin: 0; padding: 0; background: #fff; }
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; line-height: 1.5; color: #1f2933; }
#sheet { width: %.3fpx; padding: %.3fpx %.3fpx %.3fpx %.3fpx; }
.block { display: flow-root; }
.block[data-role="spacer"] { overflow: hidden; }
img { max-width: 100%%; display: block; }
.sheet-header h1 { font-size: 22px; margin: 0 0 4px; }
.sheet-subtitle { margin: 0 0 16px; color: #52606d; text-transform: uppercase; letter-spacing: .08em; }
.sheet-summary { display: flex; gap: 24px; margin-bottom: 16px; }
.sheet-summary-image { flex: 0 0 45%%; }
.sheet-summary-info { flex: 1; }
.sheet-price { font-size: 16px; }
.sheet-price s { color: #9aa5b1; }
.sheet-saving { color: #c81e1e; }
.sheet-desc p { margin: 0 0 8px; }
.sheet-section-title { font-size: 18px; margin: 0 0 12px; border-bottom: 1px solid #cbd2d9; }
.sheet-attachments { display: flex; gap: 16px; margin-bottom: 16px; }
.sheet-attachments figure { flex: 1; margin: 0; }
.sheet-group-title { font-size: 18px; margin: 0 0 8px; }
.sheet-columns, .sheet-row { display: grid; grid-template-columns: 40px 1fr 120px 120px 80px; gap: 8px; padding: 6px 4px; }
.sheet-columns { font-weight: bold; background: #f0f4f8; border-bottom: 1px solid #cbd2d9; }
.sheet-row { border-bottom: 1px solid #e4e7eb; }
`

type pageBlock struct {
	ID    string
	Role  layout.Role
	Style template.CSS
	HTML  template.HTML
}

// RenderPage renders doc as a standalone HTML page sized to its geometry.
// Spacer blocks become empty boxes of their planned height.
func RenderPage(doc layout.Document) (string, error) {
	g := doc.Geometry
	data := struct {
		Title  string
		CSS    template.CSS
		Blocks []pageBlock
	}{
		Title: doc.Title,
		CSS: template.CSS(fmt.Sprintf(baseCSS,
			g.PageWidthPx, g.MarginTopPx, g.MarginRightPx, g.MarginBottomPx, g.MarginLeftPx)),
	}
	for _, b := range doc.Blocks {
		pb := pageBlock{ID: b.ID, Role: b.Role, HTML: template.HTML(b.HTML)}
		if b.Role == layout.RoleSpacer {
			pb.Style = template.CSS(fmt.Sprintf("height:%.3fpx", b.HeightPx))
			pb.HTML = ""
		}
		data.Blocks = append(data.Blocks, pb)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("surface: rendering page: %w", err)
	}
	return buf.String(), nil
}
