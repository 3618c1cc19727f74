// Package render draws certificate and scorecard PDFs. Documents are built
// fully in memory; callers only ever see complete byte slices.
package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	KindCertificate = "certificate"
	KindScorecard   = "scorecard"
)

type rgb struct{ r, g, b int }

var (
	navy      = rgb{24, 43, 77}
	gold      = rgb{184, 150, 70}
	ink       = rgb{40, 40, 40}
	muted     = rgb{110, 110, 110}
	paper     = rgb{253, 251, 245}
	track     = rgb{225, 225, 225}
	passInk   = rgb{27, 110, 52}
	passFill  = rgb{214, 240, 220}
	passBar   = rgb{46, 160, 80}
	failInk   = rgb{150, 90, 0}
	failFill  = rgb{255, 238, 200}
	failBar   = rgb{230, 150, 20}
	tableHead = rgb{235, 238, 245}
)

// Renderer produces PDF bytes. Now stamps the "Generated on" line and the
// document metadata, so a fixed clock gives byte-identical output.
type Renderer struct {
	PublicURL string
	Now       func() time.Time
	Compress  bool
}

func New(publicURL string) *Renderer {
	return &Renderer{
		PublicURL: strings.TrimSuffix(publicURL, "/"),
		Now:       time.Now,
		Compress:  true,
	}
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// doc wraps fpdf with the cp1252 translator the core fonts need.
type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (r *Renderer) newDoc(orientation, title string) *doc {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	at := r.now()
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(title, true)
	pdf.SetAuthor("MindEngage", false)
	pdf.SetCreator("mindengage-courses", false)
	pdf.SetMargins(20, 20, 20)
	return &doc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *doc) color(text rgb) { d.SetTextColor(text.r, text.g, text.b) }
func (d *doc) fill(c rgb)     { d.SetFillColor(c.r, c.g, c.b) }
func (d *doc) draw(c rgb)     { d.SetDrawColor(c.r, c.g, c.b) }

// centered writes one line of text across the printable width at y.
func (d *doc) centered(y float64, style string, size float64, c rgb, text string) {
	w, _ := d.GetPageSize()
	d.SetFont("Helvetica", style, size)
	d.color(c)
	d.SetXY(0, y)
	d.CellFormat(w, size*0.5, d.tr(text), "", 1, "C", false, 0, "")
}

// frame paints the paper, a double border and L-shaped corner marks.
func (d *doc) frame() {
	w, h := d.GetPageSize()
	d.fill(paper)
	d.Rect(0, 0, w, h, "F")

	d.draw(navy)
	d.SetLineWidth(1.2)
	d.Rect(8, 8, w-16, h-16, "D")
	d.draw(gold)
	d.SetLineWidth(0.4)
	d.Rect(12, 12, w-24, h-24, "D")

	const inset, arm = 15.0, 12.0
	d.draw(navy)
	d.SetLineWidth(0.8)
	corners := [][4]float64{
		{inset, inset, 1, 1},
		{w - inset, inset, -1, 1},
		{inset, h - inset, 1, -1},
		{w - inset, h - inset, -1, -1},
	}
	for _, c := range corners {
		x, y, dx, dy := c[0], c[1], c[2], c[3]
		d.Line(x, y, x+dx*arm, y)
		d.Line(x, y, x, y+dy*arm)
	}
}

// verification prints the id and where to check it, starting at y.
func (d *doc) verification(y float64, label, id, url string, generated time.Time) {
	w, _ := d.GetPageSize()
	d.draw(gold)
	d.SetLineWidth(0.3)
	d.Line(w/2-60, y, w/2+60, y)
	d.centered(y+3, "B", 10, navy, label+": "+id)
	d.centered(y+9, "", 9, muted, "Verify at "+url)
	d.centered(y+15, "I", 8, muted, "Generated on "+generated.Format("2 January 2006 15:04 MST"))
}

func finish(d *doc) ([]byte, error) {
	if err := d.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2 January 2006")
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("render: missing %s", strings.Join(missing, ", "))
}
