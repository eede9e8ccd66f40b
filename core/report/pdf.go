package report

import (
	"bytes"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	appfs "github.com/sintimjnr/gctu-project-submission-system/fs"
)

const fontFamily = "DejaVuSansCondensed"

// fontFiles maps each style to its embedded TrueType file. The core PDF fonts
// only cover cp1252, which has no Akan letters such as Ɛ and Ɔ.
var fontFiles = map[FontStyle]string{
	FontRegular: "fonts/DejaVuSansCondensed.ttf",
	FontBold:    "fonts/DejaVuSansCondensed-Bold.ttf",
}

// pdfCanvas draws UTF-8 text on an fpdf document.
type pdfCanvas struct {
	pdf *fpdf.Fpdf
}

var _ Canvas = (*pdfCanvas)(nil)

func newPDFCanvas(title, author string) *pdfCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	pdf.SetCreator(author, true)
	for style, name := range fontFiles {
		b, err := appfs.FS.ReadFile(name)
		if err != nil {
			// embedded at build time
			panic(err)
		}
		pdf.AddUTF8FontFromBytes(fontFamily, string(style), b)
	}
	return &pdfCanvas{pdf: pdf}
}

func (c *pdfCanvas) AddPage() { c.pdf.AddPage() }

func (c *pdfCanvas) SetFont(style FontStyle, size float64) {
	c.pdf.SetFont(fontFamily, string(style), size)
}

func (c *pdfCanvas) Text(x, y float64, s string) {
	c.pdf.Text(x, y, s)
}

func (c *pdfCanvas) CenteredText(y float64, s string) {
	w, _ := c.pdf.GetPageSize()
	c.pdf.Text((w-c.pdf.GetStringWidth(s))/2, y, s)
}

func (c *pdfCanvas) Image(path string, x, y, w float64) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(err, "logo")
	}
	c.pdf.ImageOptions(path, x, y, w, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return errors.Wrap(err, "drawing logo")
	}
	return nil
}

func (c *pdfCanvas) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}
