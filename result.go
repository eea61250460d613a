package sheetpdf

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"

	"github.com/porticus-lab/go-sheet-pdf/blobstore"
)

// Result holds an exported PDF and provides helpers for common output
// formats such as raw bytes, base64 encoding, and streaming readers.
//
// A Result is returned by every export. It is safe to call its methods
// multiple times; the underlying data is never modified.
type Result struct {
	data     []byte
	pages    int
	path     string
	blob     *blobstore.Ref
	overflow []string
}

// Bytes returns the raw PDF content.
func (r *Result) Bytes() []byte {
	return r.data
}

// Base64 returns the PDF encoded as a standard base64 string (RFC 4648).
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns an [*bytes.Reader] over the PDF content.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the PDF to the file at path, creating it if needed.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.data, perm)
}

// Len returns the size of the PDF in bytes.
func (r *Result) Len() int {
	return len(r.data)
}

// Pages returns the number of pages in the PDF.
func (r *Result) Pages() int {
	return r.pages
}

// Path returns the file the PDF was saved to in [ModeFile], or "".
func (r *Result) Path() string {
	return r.path
}

// Blob returns the stored blob reference in [ModeBlob], or nil.
func (r *Result) Blob() *blobstore.Ref {
	return r.blob
}

// Overflow lists blocks taller than one page body. They could not be kept
// on a single page and run across a page boundary.
func (r *Result) Overflow() []string {
	return r.overflow
}
