package receipt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const ContentTypePDF = "application/pdf"

// PDFRenderer lays a receipt out on one A4 page. The output depends only
// on the receipt and the theme, so the same input gives the same bytes.
type PDFRenderer struct {
	theme Theme
}

func NewPDFRenderer(theme Theme) *PDFRenderer {
	return &PDFRenderer{theme: SanitizeTheme(theme)}
}

func (p *PDFRenderer) Render(r *Receipt, w io.Writer) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCatalogSort(true)
	doc.SetCreationDate(r.IssueDate)
	doc.SetModificationDate(r.IssueDate)
	doc.SetCompression(true)
	doc.SetTitle("Payment Receipt "+r.Number, true)
	doc.SetAuthor(r.Company, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(false, 20)
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := doc.GetPageSize()
	contentW := pageW - 40

	bg := rgb(p.theme.Background)
	doc.SetFillColor(bg[0], bg[1], bg[2])
	doc.Rect(0, 0, pageW, pageH, "F")

	text := rgb(p.theme.Text)
	border := rgb(p.theme.Border)
	muted := rgb(p.theme.Muted)
	doc.SetTextColor(text[0], text[1], text[2])
	doc.SetDrawColor(border[0], border[1], border[2])

	if r.Company != "" {
		doc.SetFont("Helvetica", "B", 16)
		doc.CellFormat(contentW, 9, tr(r.Company), "", 1, "C", false, 0, "")
	}
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(contentW, 9, "Payment Receipt", "", 1, "C", false, 0, "")
	doc.Ln(6)

	labelW := contentW * 0.4
	doc.SetFont("Helvetica", "", 11)
	for i, line := range r.Lines() {
		fill := i%2 == 0
		if fill {
			doc.SetFillColor(muted[0], muted[1], muted[2])
		}
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(labelW, 9, tr(line.Label), "1", 0, "L", fill, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(contentW-labelW, 9, tr(line.Value), "1", 1, "L", fill, 0, "")
	}

	doc.Ln(10)
	doc.SetFont("Helvetica", "I", 9)
	doc.CellFormat(contentW, 6, "This receipt was generated from the settled payment record.", "", 1, "C", false, 0, "")

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to render receipt %s: %w", r.Number, err)
	}
	return nil
}

// Bytes renders the receipt into memory.
func (p *PDFRenderer) Bytes(r *Receipt) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(r, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rgb(hex string) [3]int {
	c, err := colorful.Hex(hex)
	if err != nil {
		return [3]int{0, 0, 0}
	}
	r, g, b := c.RGB255()
	return [3]int{int(r), int(g), int(b)}
}
