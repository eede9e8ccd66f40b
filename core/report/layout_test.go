package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawn struct {
	page int
	x, y float64
	text string
}

// recordingCanvas keeps everything drawn, page by page.
type recordingCanvas struct {
	pages   int
	texts   []drawn
	images  []string
	imgErr  error
	lastFnt FontStyle
}

func (c *recordingCanvas) AddPage()                              { c.pages++ }
func (c *recordingCanvas) SetFont(style FontStyle, size float64) { c.lastFnt = style }

func (c *recordingCanvas) Text(x, y float64, s string) {
	c.texts = append(c.texts, drawn{page: c.pages, x: x, y: y, text: s})
}

func (c *recordingCanvas) CenteredText(y float64, s string) {
	c.texts = append(c.texts, drawn{page: c.pages, x: -1, y: y, text: s})
}

func (c *recordingCanvas) Image(path string, x, y, w float64) error {
	c.images = append(c.images, path)
	return c.imgErr
}

func (c *recordingCanvas) at(x float64) []drawn {
	var out []drawn
	for _, d := range c.texts {
		if d.x == x {
			out = append(out, d)
		}
	}
	return out
}

func (c *recordingCanvas) contains(s string) bool {
	for _, d := range c.texts {
		if strings.Contains(d.text, s) {
			return true
		}
	}
	return false
}

var testSpec = Spec{
	Title:      "REGISTERED STUDENTS REPORT",
	TotalLabel: "Registered Students",
	Table: Table{Columns: []Column{
		{Header: "NAME", X: 20},
		{Header: "PROGRAMME", X: 80, MaxChars: 10},
		{Header: "LEVEL", X: 140},
	}},
}

func testLayout() Layout {
	return Layout{
		Institution: "GHANA COMMUNICATION TECHNOLOGY UNIVERSITY",
		SystemName:  "PROJECT SUBMISSION SYSTEM",
		GeneratedAt: time.Date(2026, 2, 1, 14, 5, 0, 0, time.UTC),
		Geometry:    DefaultGeometry,
	}
}

func nRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{fmt.Sprintf("Student %02d", i+1), "BSc. IT", "400"}
	}
	return rows
}

func TestLayout_Render(t *testing.T) {
	c := &recordingCanvas{}
	sum, err := testLayout().Render(c, testSpec, Rows(
		Row{"Ama Mensah", "BSc. Computer Science", "400"},
		Row{"Kofi   Boateng", "", "300"},
		Row{"Yaw Asante"},
	))
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 3, Pages: 1}, sum)
	assert.Equal(t, 1, c.pages)

	names := c.at(20)
	// header, rows, total
	require.Len(t, names, 5)
	assert.Equal(t, "NAME", names[0].text)
	assert.Equal(t, DefaultGeometry.TableTop, names[0].y)
	assert.Equal(t, "Ama Mensah", names[1].text)
	assert.Equal(t, "Kofi Boateng", names[2].text, "inner whitespace is collapsed")
	assert.Equal(t, "Total Registered Students: 3", names[4].text)
	assert.Equal(t, DefaultGeometry.TotalY, names[4].y)

	programmes := c.at(80)
	require.Len(t, programmes, 4)
	assert.Equal(t, "BSc. Compu", programmes[1].text)
	assert.Equal(t, "-", programmes[2].text)
	assert.Equal(t, "-", programmes[3].text)

	assert.True(t, c.contains("GHANA COMMUNICATION TECHNOLOGY UNIVERSITY"))
	assert.True(t, c.contains("PROJECT SUBMISSION SYSTEM"))
	assert.True(t, c.contains("Generated on 01 February 2026, 02:05 PM"))
	assert.Empty(t, c.images, "no logo configured")
}

func TestLayout_RenderEmpty(t *testing.T) {
	c := &recordingCanvas{}
	sum, err := testLayout().Render(c, testSpec, Rows())
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 0, Pages: 1}, sum)
	assert.True(t, c.contains("Total Registered Students: 0"))
}

func TestLayout_Pagination(t *testing.T) {
	tests := []struct {
		rows      int
		wantPages int
	}{
		{19, 1},
		{20, 2},
		{19 + 32, 2},
		{19 + 32 + 1, 3},
		{100, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.rows), func(t *testing.T) {
			c := &recordingCanvas{}
			sum, err := testLayout().Render(c, testSpec, Rows(nRows(tt.rows)...))
			require.NoError(t, err)
			assert.Equal(t, tt.rows, sum.Rows)
			assert.Equal(t, tt.wantPages, sum.Pages)
			assert.Equal(t, tt.wantPages, c.pages)

			for _, d := range c.at(20) {
				if d.text == "NAME" || strings.HasPrefix(d.text, "Total") {
					continue
				}
				assert.LessOrEqual(t, d.y, DefaultGeometry.BottomLimit, "row %q drawn below the limit", d.text)
			}
			if tt.wantPages > 1 {
				assert.True(t, c.contains(fmt.Sprintf("REGISTERED STUDENTS REPORT - Page %d", tt.wantPages)))
			}
		})
	}
}

func TestLayout_OverflowPageHeader(t *testing.T) {
	c := &recordingCanvas{}
	_, err := testLayout().Render(c, testSpec, Rows(nRows(20)...))
	require.NoError(t, err)

	var page2 []drawn
	for _, d := range c.texts {
		if d.page == 2 {
			page2 = append(page2, d)
		}
	}
	require.NotEmpty(t, page2)
	assert.Equal(t, "GHANA COMMUNICATION TECHNOLOGY UNIVERSITY", page2[0].text)
	assert.Equal(t, DefaultGeometry.PageHeaderY, page2[0].y)
	assert.Equal(t, "REGISTERED STUDENTS REPORT - Page 2", page2[1].text)

	var headers int
	for _, d := range page2 {
		if d.text == "NAME" {
			headers++
			assert.Equal(t, DefaultGeometry.PageTableTop, d.y)
		}
	}
	assert.Equal(t, 1, headers)
	assert.True(t, c.contains("Student 20"))
}

func TestLayout_Logo(t *testing.T) {
	var logged error
	l := testLayout()
	l.LogoPath = "/nonexistent/logo.png"
	l.logoFailed = func(err error) { logged = err }

	c := &recordingCanvas{imgErr: errors.New("no such file")}
	sum, err := l.Render(c, testSpec, Rows(nRows(2)...))
	require.NoError(t, err, "a missing logo does not fail the report")
	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, []string{"/nonexistent/logo.png"}, c.images)
	assert.Error(t, logged)
}

func TestLayout_StreamError(t *testing.T) {
	boom := errors.New("db down")
	_, err := testLayout().Render(&recordingCanvas{}, testSpec, func(emit func(Row) error) error {
		_ = emit(Row{"a", "b", "c"})
		return boom
	})
	assert.Equal(t, boom, errors.Cause(err))
}

func TestCollect(t *testing.T) {
	rows, err := Collect(Rows(nRows(5)...), 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = Collect(Rows(nRows(5)...), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}
