// -----------------------------------------------------------------------
// PDF Renderer - goldmark AST walk into fpdf
// -----------------------------------------------------------------------

package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownToPDF renders deck markdown to PDF bytes using the template's
// page layout and typography.
func MarkdownToPDF(markdown string, tmpl *DeckTemplate) ([]byte, error) {
	pdf := fpdf.New(tmpl.Orientation, "mm", tmpl.PageSize, "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont(tmpl.FontFamily, "", tmpl.BaseSize)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &deckRenderer{
		pdf:    pdf,
		source: source,
		tmpl:   tmpl,
	}

	if err := ast.Walk(doc, renderer.walk); err != nil {
		return nil, fmt.Errorf("failed to render deck markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

type deckRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tmpl      *DeckTemplate
	bold      bool
	italic    bool
	listLevel int
}

// bodyFont restores the body typeface with the current emphasis state.
func (r *deckRenderer) bodyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.SetFont(r.tmpl.FontFamily, style, r.tmpl.BaseSize)
}

func (r *deckRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.Text(r.source)))
		}
	case ast.KindEmphasis:
		r.handleEmphasis(n.(*ast.Emphasis), entering)
	case ast.KindList:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(5)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(14 + float64(r.listLevel)*5)
			r.pdf.Write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(3)
			left, _, right, _ := r.pdf.GetMargins()
			w, _ := r.pdf.GetPageSize()
			r.pdf.Line(left, r.pdf.GetY(), w-right, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *deckRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := r.tmpl.BaseSize + 6
		switch n.Level {
		case 1:
			size = r.tmpl.BaseSize + 8
		case 2:
			size = r.tmpl.BaseSize + 4
		case 3:
			size = r.tmpl.BaseSize + 2
		}
		r.pdf.SetTextColor(r.tmpl.Accent.R, r.tmpl.Accent.G, r.tmpl.Accent.B)
		r.pdf.SetFont(r.tmpl.FontFamily, "B", size)
	} else {
		r.pdf.Ln(8)
		r.bodyFont()
	}
	return ast.WalkContinue, nil
}

func (r *deckRenderer) handleEmphasis(n *ast.Emphasis, entering bool) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	r.bodyFont()
}

func (r *deckRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.extractRow(row))
			case *extast.TableHeader:
				collect(row)
			}
		}
	}
	collect(n)

	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *deckRenderer) extractRow(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}

func (r *deckRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	numCols := len(rows[0])
	fontSize := r.tmpl.BaseSize - 1
	lineHeight := 5.0

	left, _, right, _ := r.pdf.GetMargins()
	pageW, _ := r.pdf.GetPageSize()
	tableWidth := pageW - left - right

	widths := r.columnWidths(rows, numCols, tableWidth, fontSize)

	r.pdf.Ln(2)

	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.tmpl.FontFamily, "B", fontSize)
			r.pdf.SetFillColor(r.tmpl.Accent.R, r.tmpl.Accent.G, r.tmpl.Accent.B)
			r.pdf.SetTextColor(255, 255, 255)
		} else {
			r.pdf.SetFont(r.tmpl.FontFamily, "", fontSize)
			r.pdf.SetFillColor(255, 255, 255)
			r.pdf.SetTextColor(0, 0, 0)
		}

		x := left
		y := r.pdf.GetY()
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = r.fitCell(row[j], widths[j]-2)
			}
			r.pdf.Rect(x, y, widths[j], lineHeight+2, "FD")
			r.pdf.SetXY(x+1, y+1)
			r.pdf.CellFormat(widths[j]-2, lineHeight, cell, "", 0, "L", false, 0, "")
			x += widths[j]
		}
		r.pdf.SetXY(left, y+lineHeight+2)
	}

	r.pdf.Ln(3)
	r.bodyFont()
}

// columnWidths sizes columns by measured content width, scaled to fit the
// table width.
func (r *deckRenderer) columnWidths(rows [][]string, numCols int, tableWidth, fontSize float64) []float64 {
	widths := make([]float64, numCols)
	r.pdf.SetFont(r.tmpl.FontFamily, "", fontSize)

	for _, row := range rows {
		for i, cell := range row {
			if i >= numCols {
				break
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for i := range widths {
		if widths[i] < 14 {
			widths[i] = 14
		}
		total += widths[i]
	}

	scale := tableWidth / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

// fitCell truncates cell text to the available width with an ellipsis.
func (r *deckRenderer) fitCell(cell string, width float64) string {
	cell = strings.Join(strings.Fields(cell), " ")
	if r.pdf.GetStringWidth(cell) <= width {
		return cell
	}
	for len(cell) > 3 && r.pdf.GetStringWidth(cell+"...") > width {
		cell = cell[:len(cell)-1]
	}
	return cell + "..."
}
