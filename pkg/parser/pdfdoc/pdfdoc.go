// Package pdfdoc provides shared PDF access for the statement parsers:
// opening (optionally password-protected) documents and reconstructing
// per-page text lines and table-like rows from positioned content.
package pdfdoc

import (
	"os"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/ArionMiles/finsight/pkg/api"
)

// yTolerance is the maximum vertical distance (in PDF points) between two
// fragments still considered part of the same line.
const yTolerance = 2.0

// wordGap is the horizontal distance beyond which adjacent fragments on a
// line are separated by a space when rebuilding text.
const wordGap = 1.0

// cellGap is the horizontal distance beyond which adjacent fragments on a
// line are treated as separate table cells.
const cellGap = 12.0

// Document wraps an open PDF reader.
type Document struct {
	reader *pdf.Reader
	file   *os.File
}

// Open opens the PDF at path, decrypting with password when one is given.
// Open failures (missing file, wrong password, corrupt data) come back as a
// *api.DocumentError wrapping api.ErrDocumentOpen: fatal for this document,
// irrelevant to any other.
func Open(path, password string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, api.OpenFailure(path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, api.OpenFailure(path, err)
	}

	r, err := pdf.NewReaderEncrypted(f, st.Size(), func() string { return password })
	if err != nil {
		f.Close()
		return nil, api.OpenFailure(path, err)
	}

	return &Document{reader: r, file: f}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error { return d.file.Close() }

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPage() }

// fragment is one positioned text run on a page.
type fragment struct {
	x, y, w float64
	s       string
}

// line is a baseline-ordered group of fragments.
type line struct {
	y     float64
	frags []fragment
}

// pageLines groups the page's positioned text by baseline. Lines come back
// top to bottom, fragments left to right.
func (d *Document) pageLines(n int) []line {
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil
	}

	content := page.Content()
	var lines []line
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		frag := fragment{x: t.X, y: t.Y, w: t.W, s: t.S}

		placed := false
		for i := range lines {
			if diff := lines[i].y - frag.y; diff < yTolerance && diff > -yTolerance {
				lines[i].frags = append(lines[i].frags, frag)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{y: frag.y, frags: []fragment{frag}})
		}
	}

	// PDF y grows upward, so top of page first means descending y.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	for i := range lines {
		frags := lines[i].frags
		sort.SliceStable(frags, func(a, b int) bool { return frags[a].x < frags[b].x })
	}
	return lines
}

// PageLines reconstructs the text lines of page n (1-based), top to bottom.
func (d *Document) PageLines(n int) []string {
	raw := d.pageLines(n)
	out := make([]string, 0, len(raw))
	for _, ln := range raw {
		var b strings.Builder
		prevEnd := -1.0
		for _, f := range ln.frags {
			if prevEnd >= 0 && f.x-prevEnd > wordGap {
				b.WriteByte(' ')
			}
			b.WriteString(f.s)
			prevEnd = f.x + f.w
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PageRows reconstructs a table-like row/cell structure for page n:
// fragments sharing a baseline form a row, and horizontal gaps wider than a
// cell threshold split the row into cells. Blank rows are preserved as
// empty slices so callers see the page's row count.
func (d *Document) PageRows(n int) [][]string {
	raw := d.pageLines(n)
	rows := make([][]string, 0, len(raw))
	for _, ln := range raw {
		var cells []string
		var b strings.Builder
		prevEnd := -1.0
		for _, f := range ln.frags {
			if prevEnd >= 0 {
				switch gap := f.x - prevEnd; {
				case gap > cellGap:
					cells = append(cells, strings.TrimSpace(b.String()))
					b.Reset()
				case gap > wordGap:
					b.WriteByte(' ')
				}
			}
			b.WriteString(f.s)
			prevEnd = f.x + f.w
		}
		if b.Len() > 0 {
			cells = append(cells, strings.TrimSpace(b.String()))
		}
		rows = append(rows, cells)
	}
	return rows
}
