package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

// A4 portrait, in mm.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
)

const (
	FontRegular FontStyle = ""
	FontBold    FontStyle = "B"
)

type FontStyle string

// Canvas is a top-left origin drawing surface measured in mm. y is a text baseline.
type Canvas interface {
	AddPage()
	SetFont(style FontStyle, size float64)
	Text(x, y float64, s string)
	CenteredText(y float64, s string)
	// Image draws the image at path with its top-left corner at (x, y), scaled to width w.
	Image(path string, x, y, w float64) error
}

// Geometry holds the layout measures, all in mm from the top-left corner.
type Geometry struct {
	LogoTop, LogoWidth                    float64
	InstitutionY, SystemY, TitleY         float64
	GeneratedY                            float64
	TableTop                              float64 // column header baseline on the cover page
	PageHeaderY, PageTitleY, PageTableTop float64 // overflow pages
	RowHeight                             float64
	BottomLimit                           float64 // lowest baseline a row may use
	TotalX, TotalY                        float64
	FontSize                              float64
}

var DefaultGeometry = Geometry{
	LogoTop:      15,
	LogoWidth:    40,
	InstitutionY: 85,
	SystemY:      100,
	TitleY:       115,
	GeneratedY:   PageHeight - 25,
	TableTop:     130,
	PageHeaderY:  20,
	PageTitleY:   27,
	PageTableTop: 40,
	RowHeight:    7,
	BottomLimit:  PageHeight - 30,
	TotalX:       20,
	TotalY:       PageHeight - 20,
	FontSize:     10,
}

// Layout paginates a report onto a Canvas.
type Layout struct {
	Institution string
	SystemName  string
	LogoPath    string // optional
	GeneratedAt time.Time
	Geometry    Geometry

	logoFailed func(error)
}

// Render draws the cover section, the rows of stream and the total line.
// A new page, with a compact header and the column headers, starts whenever
// the next row would fall below the bottom limit.
func (l Layout) Render(c Canvas, spec Spec, stream Stream) (Summary, error) {
	g := l.Geometry
	if g.RowHeight <= 0 {
		g = DefaultGeometry
	}

	sum := Summary{Pages: 1}
	c.AddPage()
	l.drawCover(c, g, spec)
	y := g.TableTop
	l.drawColumnHeaders(c, g, spec.Table, y)
	y += g.RowHeight

	err := stream(func(r Row) error {
		if y > g.BottomLimit {
			sum.Pages++
			c.AddPage()
			l.drawPageHeader(c, g, spec, sum.Pages)
			y = g.PageTableTop
			l.drawColumnHeaders(c, g, spec.Table, y)
			y += g.RowHeight
		}
		c.SetFont(FontRegular, g.FontSize)
		for i, col := range spec.Table.Columns {
			c.Text(col.X, y, cell(r, i, col.MaxChars))
		}
		y += g.RowHeight
		sum.Rows++
		return nil
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "streaming rows")
	}

	c.SetFont(FontBold, g.FontSize)
	c.Text(g.TotalX, g.TotalY, fmt.Sprintf("Total %s: %d", spec.TotalLabel, sum.Rows))
	return sum, nil
}

func (l Layout) drawCover(c Canvas, g Geometry, spec Spec) {
	if l.LogoPath != "" {
		if err := c.Image(l.LogoPath, (PageWidth-g.LogoWidth)/2, g.LogoTop, g.LogoWidth); err != nil && l.logoFailed != nil {
			l.logoFailed(err)
		}
	}
	c.SetFont(FontBold, 18)
	c.CenteredText(g.InstitutionY, l.Institution)
	c.SetFont(FontBold, 14)
	c.CenteredText(g.SystemY, l.SystemName)
	c.SetFont(FontRegular, 12)
	c.CenteredText(g.TitleY, spec.Title)
	c.SetFont(FontRegular, 10)
	c.CenteredText(g.GeneratedY, "Generated on "+l.GeneratedAt.Format("02 January 2006, 03:04 PM"))
}

func (l Layout) drawPageHeader(c Canvas, g Geometry, spec Spec, page int) {
	c.SetFont(FontBold, 12)
	c.CenteredText(g.PageHeaderY, l.Institution)
	c.SetFont(FontRegular, 10)
	c.CenteredText(g.PageTitleY, fmt.Sprintf("%s - Page %d", spec.Title, page))
}

func (l Layout) drawColumnHeaders(c Canvas, g Geometry, t Table, y float64) {
	c.SetFont(FontBold, g.FontSize)
	for _, col := range t.Columns {
		c.Text(col.X, y, col.Header)
	}
}

func cell(r Row, i, maxChars int) string {
	if i >= len(r) {
		return "-"
	}
	s := strings.Join(strings.Fields(r[i]), " ")
	if s == "" {
		return "-"
	}
	return core.Truncate(s, maxChars)
}
