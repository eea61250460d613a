package assemble

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is one paragraph-level piece of a rich-text description.
type Fragment struct {
	HTML   string
	Text   string
	Images []string
}

// inlineElements may appear in running text and are grouped into the
// surrounding paragraph instead of becoming blocks of their own.
var inlineElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Br: true, atom.Code: true,
	atom.Em: true, atom.I: true, atom.Img: true, atom.Mark: true, atom.Q: true,
	atom.S: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.U: true,
}

// dropElements never render as content.
var dropElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true,
}

// SplitMarkup splits rich-text markup into one fragment per top-level node so
// the planner can break between paragraphs but never inside one. Runs of bare
// text and inline elements are wrapped in a paragraph. Markup that cannot be
// parsed is kept as a single escaped text paragraph.
func SplitMarkup(markup string) []Fragment {
	if strings.TrimSpace(markup) == "" {
		return nil
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), root)
	if err != nil {
		return []Fragment{plainFragment(markup)}
	}

	var (
		frags  []Fragment
		inline []*html.Node
	)
	flush := func() {
		if len(inline) == 0 {
			return
		}
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		for _, n := range inline {
			p.AppendChild(n)
		}
		inline = nil
		if f, ok := fragmentOf(p); ok {
			frags = append(frags, f)
		}
	}

	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode, n.Type == html.ElementNode && inlineElements[n.DataAtom]:
			inline = append(inline, n)
		case n.Type == html.ElementNode && !dropElements[n.DataAtom]:
			flush()
			if f, ok := fragmentOf(n); ok {
				frags = append(frags, f)
			}
		}
	}
	flush()
	return frags
}

func plainFragment(text string) Fragment {
	text = strings.TrimSpace(text)
	return Fragment{
		HTML: "<p>" + html.EscapeString(text) + "</p>",
		Text: text,
	}
}

// fragmentOf renders n; nodes without text or images are dropped.
func fragmentOf(n *html.Node) (Fragment, bool) {
	text := collapseSpace(textContent(n))
	images := imageSources(n)
	if text == "" && len(images) == 0 && n.DataAtom != atom.Hr && n.DataAtom != atom.Table {
		return Fragment{}, false
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return plainFragment(text), true
	}
	return Fragment{HTML: buf.String(), Text: text, Images: images}, true
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && dropElements[n.DataAtom] {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
		if c.Type == html.ElementNode && !inlineElements[c.DataAtom] {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func imageSources(n *html.Node) []string {
	var srcs []string
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for _, a := range n.Attr {
			if a.Key == "src" && a.Val != "" {
				srcs = append(srcs, a.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		srcs = append(srcs, imageSources(c)...)
	}
	return srcs
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
