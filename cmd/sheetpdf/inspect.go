package main

import (
	"fmt"
	"io"
	"regexp"

	"github.com/ledongthuc/pdf"
)

var pageLabelRe = regexp.MustCompile(`Halaman \d+ dari \d+`)

type pageInfo struct {
	Page   int
	Width  float64 // points
	Height float64 // points
	Label  string
}

// runInspect implements the "inspect" command.
func runInspect(args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no input file specified")
	}
	inputFile := args[0]

	f, r, err := pdf.Open(inputFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputFile, err)
	}
	defer f.Close()

	pages, err := inspectPages(r)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "File:    %s\n", inputFile)
	if title := r.Trailer().Key("Info").Key("Title").Text(); title != "" {
		fmt.Fprintf(w, "Title:   %s\n", title)
	}
	fmt.Fprintf(w, "Pages:   %d\n", len(pages))

	if len(pages) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Pages:")
		for _, p := range pages {
			fmt.Fprintf(w, "  Page %d: %.0f x %.0f pt", p.Page, p.Width, p.Height)
			if p.Label != "" {
				fmt.Fprintf(w, "  %q", p.Label)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func inspectPages(r *pdf.Reader) ([]pageInfo, error) {
	n := r.NumPage()
	pages := make([]pageInfo, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return nil, fmt.Errorf("page %d: missing page object", i)
		}
		info := pageInfo{Page: i}
		info.Width, info.Height = mediaBox(p.V)

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		info.Label = pageLabelRe.FindString(text)
		pages = append(pages, info)
	}
	return pages, nil
}

// mediaBox returns the page size, following inherited values up the page
// tree.
func mediaBox(v pdf.Value) (w, h float64) {
	for ; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			return box.Index(2).Float64() - box.Index(0).Float64(),
				box.Index(3).Float64() - box.Index(1).Float64()
		}
	}
	return 0, 0
}
