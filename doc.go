// Package sheetpdf exports product detail sheets and grouped price lists as
// paginated A4 PDFs.
//
// An export runs a fixed pipeline. The payload is assembled into a sequence
// of blocks, the blocks are measured once on a rendering surface, the
// page-break planner inserts spacers so that no block is cut by a page
// boundary, the planned document is rasterized into one tall bitmap and that
// bitmap is sliced into pages with a footer on each.
//
// # Exporting
//
// For one-off exports use the package-level helper:
//
//	res, err := sheetpdf.Export(ctx, assemble.Payload{Item: &item}, sheetpdf.ExportOptions{})
//
// For repeated exports create an [Exporter], which reuses the browser process:
//
//	e, err := sheetpdf.NewExporter(sheetpdf.WithChromeOptions(chrome.WithNoSandbox()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	res, err := e.ExportDetail(ctx, item, sheetpdf.ExportOptions{})
//	res, err  = e.ExportList(ctx, list, sheetpdf.ExportOptions{Mode: sheetpdf.ModeFile, Path: "harga.pdf"})
//	res, err  = e.ExportList(ctx, list, sheetpdf.ExportOptions{Mode: sheetpdf.ModeBlob})
//
// Without Chrome, the static surface lays out plain-text estimates and
// renders deterministically:
//
//	s, _ := static.New()
//	e, err := sheetpdf.NewExporter(sheetpdf.WithSurface(s))
//
// Use [PageConfig] to control paper size, orientation and margins:
//
//	e, err := sheetpdf.NewExporter(sheetpdf.WithPageConfig(&sheetpdf.PageConfig{
//	    Size:   sheetpdf.A4,
//	    Margin: sheetpdf.UniformMargin(1.5),
//	}))
//
// A [Result] gives flexible access to the generated PDF:
//
//	res.Bytes()                       // []byte
//	res.Base64()                      // base64 string (RFC 4648)
//	res.Reader()                      // *bytes.Reader
//	res.WriteTo(w)                    // io.WriterTo
//	res.WriteToFile("out.pdf", 0o644) // write to disk
//	res.Pages()                       // page count
//	res.Blob()                        // blob reference in ModeBlob
//
// # Errors
//
// Failures wrap one of [ErrAssembly], [ErrMeasurementTimeout],
// [ErrRasterization], [ErrComposition] or [ErrDelivery] together with the
// cause. The rendering session is released on every path and no partial
// output is returned.
package sheetpdf
