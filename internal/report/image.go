package report

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/fogleman/gg"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
)

// ImageRenderer renders a Digest as a PNG table.
type ImageRenderer struct {
	Width     float64
	RowHeight float64
	HeaderH   float64
	FooterH   float64
	PadLeft   float64
	PadRight  float64
	FontSize  float64
	TitleSize float64
	SmallSize float64
	// FontPath is a TrueType font with Hangul glyphs. When empty or
	// unreadable gg's built-in face is used and Hangul renders as boxes.
	FontPath string
}

// NewImageRenderer creates a renderer 1600px wide.
func NewImageRenderer(fontPath string) *ImageRenderer {
	return &ImageRenderer{
		Width:     1600,
		RowHeight: 48,
		HeaderH:   96,
		FooterH:   56,
		PadLeft:   40,
		PadRight:  40,
		FontSize:  20,
		TitleSize: 30,
		SmallSize: 16,
		FontPath:  fontPath,
	}
}

const (
	colScore = 1040.0
	colBadge = 1140.0
	colFlags = 1240.0
	barWidth = 6.0
)

// Render draws the digest and returns the image.
func (r *ImageRenderer) Render(d Digest) image.Image {
	recs := d.Sorted()
	height := r.rowTop(len(recs)) + 16 + r.FooterH + 20

	dc := gg.NewContext(int(r.Width), int(height))
	dc.SetColor(hexColor("#f7f7fa"))
	dc.Clear()

	r.drawTitle(dc, d)
	r.drawColumnHeaders(dc)
	for i, rec := range recs {
		r.drawRow(dc, i, rec.Title, rec.Score, rec.Badge, rec.Flags)
	}
	r.drawFooter(dc, r.rowTop(len(recs))+16)

	return dc.Image()
}

// RenderPNG renders the digest to a PNG file.
func (r *ImageRenderer) RenderPNG(d Digest, outputPath string) error {
	if err := gg.SavePNG(outputPath, r.Render(d)); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}

// EncodePNG renders the digest as PNG into w.
func (r *ImageRenderer) EncodePNG(d Digest, w io.Writer) error {
	dc := gg.NewContextForImage(r.Render(d))
	return dc.EncodePNG(w)
}

// rowTop is the y coordinate of the i-th result row.
func (r *ImageRenderer) rowTop(i int) float64 {
	return 20 + r.HeaderH + 16 + r.RowHeight + float64(i)*r.RowHeight
}

func (r *ImageRenderer) drawTitle(dc *gg.Context, d Digest) {
	dc.SetColor(hexColor("#1f2a44"))
	dc.DrawRoundedRectangle(r.PadLeft, 20, r.Width-r.PadLeft-r.PadRight, r.HeaderH, 12)
	dc.Fill()

	r.loadFont(dc, r.TitleSize)
	dc.SetColor(color.White)
	dc.DrawStringAnchored("뉴스 품질 리포트 · "+stamp(d.Run), r.Width/2, 20+r.HeaderH/2-10, 0.5, 0.5)

	counts := d.Counts()
	r.loadFont(dc, r.SmallSize)
	dc.SetColor(hexColor("#aab4cc"))
	sub := fmt.Sprintf("run %s · %d items · good %d · warning %d · bad %d",
		d.Run.ID, len(d.Records), counts[quality.BadgeGood], counts[quality.BadgeWarning], counts[quality.BadgeBad])
	dc.DrawStringAnchored(sub, r.Width/2, 20+r.HeaderH/2+20, 0.5, 0.5)
}

func (r *ImageRenderer) drawColumnHeaders(dc *gg.Context) {
	y := 20 + r.HeaderH + 16
	dc.SetColor(hexColor("#e3e6ee"))
	dc.DrawRectangle(r.PadLeft, y, r.Width-r.PadLeft-r.PadRight, r.RowHeight)
	dc.Fill()

	r.loadFont(dc, r.SmallSize)
	dc.SetColor(hexColor("#4a5068"))
	base := y + r.RowHeight/2 + 6
	dc.DrawString("Title", r.PadLeft+20, base)
	dc.DrawString("Score", colScore, base)
	dc.DrawString("Badge", colBadge, base)
	dc.DrawString("Flags", colFlags, base)
}

func (r *ImageRenderer) drawRow(dc *gg.Context, i int, title string, score int, badge quality.Badge, flags []string) {
	y := r.rowTop(i)
	if i%2 == 1 {
		dc.SetColor(hexColor("#eef0f5"))
	} else {
		dc.SetColor(color.White)
	}
	dc.DrawRectangle(r.PadLeft, y, r.Width-r.PadLeft-r.PadRight, r.RowHeight)
	dc.Fill()

	// Badge colour bar
	dc.SetColor(badgeColor(badge))
	dc.DrawRectangle(r.PadLeft, y, barWidth, r.RowHeight)
	dc.Fill()

	base := y + r.RowHeight/2 + 7
	r.loadFont(dc, r.FontSize)
	dc.SetColor(hexColor("#1f2a44"))
	dc.DrawString(fitText(dc, title, colScore-r.PadLeft-40), r.PadLeft+20, base)
	dc.DrawString(fmt.Sprintf("%d", score), colScore, base)

	dc.SetColor(badgeColor(badge))
	dc.DrawCircle(colBadge+10, y+r.RowHeight/2, 9)
	dc.Fill()
	dc.SetColor(hexColor("#1f2a44"))
	dc.DrawString(badgeLabel(badge), colBadge+28, base)

	r.loadFont(dc, r.SmallSize-2)
	dc.SetColor(hexColor("#6b7185"))
	dc.DrawString(fitText(dc, strings.Join(flags, ", "), r.Width-r.PadRight-colFlags-10), colFlags, base-1)
}

func (r *ImageRenderer) drawFooter(dc *gg.Context, y float64) {
	dc.SetColor(hexColor("#e3e6ee"))
	dc.DrawRoundedRectangle(r.PadLeft, y, r.Width-r.PadLeft-r.PadRight, r.FooterH, 8)
	dc.Fill()

	r.loadFont(dc, r.SmallSize)
	dc.SetColor(hexColor("#6b7185"))
	dc.DrawStringAnchored("newsquality · lexical evidence scoring · worst first", r.Width/2, y+r.FooterH/2, 0.5, 0.5)
}

func (r *ImageRenderer) loadFont(dc *gg.Context, size float64) {
	if r.FontPath == "" {
		return
	}
	// The previous face stays active when loading fails.
	_ = dc.LoadFontFace(r.FontPath, size)
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		t := string(runes) + "…"
		if w, _ := dc.MeasureString(t); w <= width {
			return t
		}
	}
	return ""
}

func badgeColor(b quality.Badge) color.Color {
	switch b {
	case quality.BadgeGood:
		return hexColor("#2eb872")
	case quality.BadgeWarning:
		return hexColor("#f5a623")
	case quality.BadgeBad:
		return hexColor("#e5484d")
	default:
		return hexColor("#9aa0b4")
	}
}

func badgeLabel(b quality.Badge) string {
	switch b {
	case quality.BadgeGood:
		return "good"
	case quality.BadgeWarning:
		return "warning"
	case quality.BadgeBad:
		return "bad"
	default:
		return "-"
	}
}

func hexColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	var cr, cg, cb uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &cr, &cg, &cb)
	return color.RGBA{cr, cg, cb, 255}
}
