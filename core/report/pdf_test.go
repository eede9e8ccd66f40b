package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFCanvas_unicode(t *testing.T) {
	for _, style := range []FontStyle{FontRegular, FontBold} {
		t.Run("style "+string(style), func(t *testing.T) {
			c := newPDFCanvas("Project Report", "GCTU")
			c.AddPage()
			c.SetFont(style, 12)

			// cp1252 fonts would render each of these as "?"
			q := c.pdf.GetStringWidth("?")
			for _, s := range []string{"Ɛ", "Ɔ", "ɛ", "ɔ"} {
				w := c.pdf.GetStringWidth(s)
				assert.Greater(t, w, 0.0, s)
				assert.NotEqual(t, q, w, s)
			}

			c.Text(20, 20, "Kwame Ɔfori")
			c.CenteredText(30, "Yaa Asantewaa Ɛkua")
			require.False(t, c.pdf.Err(), "%v", c.pdf.Error())

			doc, err := c.bytes()
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
			assert.Contains(t, string(doc), "/Encoding /Identity-H")
		})
	}
}
