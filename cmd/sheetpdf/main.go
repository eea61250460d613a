// sheetpdf exports product sheets and price lists as paginated PDFs.
//
// Usage:
//
//	sheetpdf export [options] <payload.json>
//	sheetpdf inspect <file.pdf>
//	sheetpdf serve [options]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	sheetpdf "github.com/porticus-lab/go-sheet-pdf"
	"github.com/porticus-lab/go-sheet-pdf/assemble"
	"github.com/porticus-lab/go-sheet-pdf/surface/chrome"
	"github.com/porticus-lab/go-sheet-pdf/surface/static"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`sheetpdf - paginated product sheet and price list exporter

Usage:
  sheetpdf export [options] <payload.json>
  sheetpdf inspect <file.pdf>
  sheetpdf serve [options]

Commands:
  export    Export a payload (single item or list) to PDF
  inspect   Show page count, page size and footer label of a PDF
  serve     Run an HTTP preview server

Export options:
  -o <file>          Output file, "-" for stdout (default: payload name with .pdf)
  -surface <name>    Rendering surface: chrome, static (default: chrome)
  -blob              Store the PDF in memory and print the blob reference
  -mail-to <addr>    Mail the PDF (SMTP settings from SHEETPDF_SMTP_* variables)
  -no-sandbox        Run Chrome without its sandbox (needed as root)
  -v                 Verbose logging

Serve options:
  -addr <addr>       Listen address (default: :8080)
  -surface <name>    Rendering surface: chrome, static (default: chrome)
  -redis <host:port> Keep blobs in Redis instead of memory
  -ttl <duration>    Blob lifetime (default: 15m)
  -no-sandbox        Run Chrome without its sandbox
  -v                 Verbose logging

Examples:
  sheetpdf export -o kopi.pdf kopi.json
  sheetpdf export -surface static -o - list.json > list.pdf
  sheetpdf export -mail-to toko@example.com list.json
  sheetpdf inspect kopi.pdf
  sheetpdf serve -addr :9000 -redis localhost:6379
`)
}

// surfaceFlags are shared by export and serve.
type surfaceFlags struct {
	surface   string
	noSandbox bool
	verbose   bool
}

// parse consumes a shared flag at args[i] and reports whether it did.
func (f *surfaceFlags) parse(args []string, i *int) (bool, error) {
	switch args[*i] {
	case "-surface":
		*i++
		if *i >= len(args) {
			return true, fmt.Errorf("-surface requires an argument")
		}
		f.surface = args[*i]
	case "-no-sandbox":
		f.noSandbox = true
	case "-v":
		f.verbose = true
	default:
		return false, nil
	}
	return true, nil
}

func (f surfaceFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exporterOptions selects the rendering surface.
func (f surfaceFlags) exporterOptions() ([]sheetpdf.Option, error) {
	switch f.surface {
	case "", "chrome":
		var copts []chrome.Option
		if f.noSandbox {
			copts = append(copts, chrome.WithNoSandbox())
		}
		return []sheetpdf.Option{sheetpdf.WithChromeOptions(copts...)}, nil
	case "static":
		s, err := static.New()
		if err != nil {
			return nil, err
		}
		return []sheetpdf.Option{sheetpdf.WithSurface(s)}, nil
	default:
		return nil, fmt.Errorf("unknown surface %q", f.surface)
	}
}

type exportArgs struct {
	surfaceFlags
	output string
	blob   bool
	mailTo string
	input  string
}

func parseExportArgs(args []string) (exportArgs, error) {
	var a exportArgs
	for i := 0; i < len(args); i++ {
		ok, err := a.surfaceFlags.parse(args, &i)
		if err != nil {
			return a, err
		}
		if ok {
			continue
		}
		switch args[i] {
		case "-o":
			i++
			if i >= len(args) {
				return a, fmt.Errorf("-o requires an argument")
			}
			a.output = args[i]
		case "-blob":
			a.blob = true
		case "-mail-to":
			i++
			if i >= len(args) {
				return a, fmt.Errorf("-mail-to requires an argument")
			}
			a.mailTo = args[i]
		default:
			if strings.HasPrefix(args[i], "-") && args[i] != "-" {
				return a, fmt.Errorf("unknown option: %s", args[i])
			}
			a.input = args[i]
		}
	}

	if a.input == "" {
		return a, fmt.Errorf("no payload file specified")
	}
	if a.output == "" && !a.blob {
		if a.input == "-" {
			a.output = "-"
		} else {
			a.output = strings.TrimSuffix(a.input, filepath.Ext(a.input)) + ".pdf"
		}
	}
	return a, nil
}

// runExport implements the "export" command.
func runExport(ctx context.Context, args []string) error {
	a, err := parseExportArgs(args)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if a.input != "-" {
		f, err := os.Open(a.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	payload, err := assemble.Decode(in)
	if err != nil {
		return err
	}

	// Read mail settings before rendering so a bad environment fails fast.
	var mail mailConfig
	if a.mailTo != "" {
		if mail, err = mailConfigFromEnv(); err != nil {
			return err
		}
	}

	opts, err := a.exporterOptions()
	if err != nil {
		return err
	}
	e, err := sheetpdf.NewExporter(append(opts, sheetpdf.WithLogger(a.logger()))...)
	if err != nil {
		return err
	}
	defer e.Close()

	out := sheetpdf.ExportOptions{Mode: sheetpdf.ModeBytes}
	switch {
	case a.blob:
		out.Mode = sheetpdf.ModeBlob
	case a.output != "-":
		out = sheetpdf.ExportOptions{Mode: sheetpdf.ModeFile, Path: a.output}
	}

	res, err := e.Export(ctx, payload, out)
	if err != nil {
		return err
	}

	switch {
	case res.Blob() != nil:
		ref := res.Blob()
		fmt.Printf("blob %s (%d bytes, %d pages, expires %s)\n", ref.URL, ref.Size, res.Pages(), ref.ExpiresAt.Format("15:04:05"))
	case res.Path() != "":
		fmt.Fprintf(os.Stderr, "wrote %s (%d pages)\n", res.Path(), res.Pages())
	default:
		if _, err := res.WriteTo(os.Stdout); err != nil {
			return err
		}
	}

	if a.mailTo != "" {
		name := "export.pdf"
		if res.Path() != "" {
			name = filepath.Base(res.Path())
		}
		if err := sendMail(mail, a.mailTo, subjectFor(payload), name, res.Bytes()); err != nil {
			return fmt.Errorf("mailing %s: %w", a.mailTo, err)
		}
		fmt.Fprintf(os.Stderr, "mailed %s to %s\n", name, a.mailTo)
	}
	return nil
}

func subjectFor(p assemble.Payload) string {
	switch {
	case p.Item != nil:
		return assemble.DetailSubtitle + ": " + p.Item.Name
	case p.List != nil:
		return assemble.PriceListTitle + ": " + p.List.Group.Name
	default:
		return "sheetpdf"
	}
}

// isClientError reports failures caused by the payload itself.
func isClientError(err error) bool {
	return errors.Is(err, sheetpdf.ErrAssembly) || errors.Is(err, assemble.ErrInvalidPayload)
}
