package nvimui

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontFinder locates font files by name (useful for avoiding font library dependencies).
type FontFinder interface {
	// Find returns the filesystem path to a font file matching the given name.
	Find(name string) (string, error)
}

// ScreenshotConfig controls how a grid is rendered to an image.
type ScreenshotConfig struct {
	// Font face to use for rendering. If nil and FontName is empty, uses basicfont.Face7x13.
	Font font.Face

	// FontFinder is used to find fonts by name. Optional.
	FontFinder FontFinder

	// FontName is the font name to find using FontFinder.
	FontName string

	// FontSize is the font size when using FontFinder. Default 14.
	FontSize float64

	// CellWidth and CellHeight override the cell dimensions.
	// If zero, derived from font metrics.
	CellWidth  int
	CellHeight int

	// CursorColor is the cursor color. If nil, the mode's highlight is used,
	// or the cell colors are inverted when the mode has none.
	CursorColor *color.RGBA

	// ShowCursor controls whether to render the cursor. Default true.
	ShowCursor *bool
}

// LoadFont loads a TrueType or OpenType font from a file path.
func LoadFont(path string, size float64) (font.Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadFontFromReader(f, size)
}

// LoadFontFromReader loads a TrueType or OpenType font from an io.Reader.
func LoadFontFromReader(r io.Reader, size float64) (font.Face, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return LoadFontFromBytes(data, size)
}

// LoadFontFromBytes loads a TrueType or OpenType font from raw bytes.
func LoadFontFromBytes(data []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Screenshot renders the current content of a grid with default settings.
// Returns nil if the grid does not exist.
func (e *Engine) Screenshot(grid int) *image.RGBA {
	return e.ScreenshotWithConfig(grid, &ScreenshotConfig{})
}

// ScreenshotWithConfig renders the current content of a grid. Returns nil if
// the grid does not exist.
func (e *Engine) ScreenshotWithConfig(grid int, cfg *ScreenshotConfig) *image.RGBA {
	snap := e.Snapshot(grid)
	if snap == nil {
		return nil
	}
	return RenderGrid(snap, e.Styles(), e.Cursor(), cfg)
}

// Screenshot renders one grid of the frame. Returns nil if the grid was not
// part of the frame.
func (f *Frame) Screenshot(grid int, cfg *ScreenshotConfig) *image.RGBA {
	gf := f.GridFrame(grid)
	if gf == nil {
		return nil
	}
	return RenderGrid(gf.Grid, f.Styles, f.Cursor, cfg)
}

// RenderGrid paints a grid snapshot into an RGBA image. Colors are resolved
// against styles; the cursor is drawn when it is visible on this grid, shaped
// by its mode.
func RenderGrid(snap *GridSnapshot, styles *StyleSet, cursor CursorState, cfg *ScreenshotConfig) *image.RGBA {
	if cfg == nil {
		cfg = &ScreenshotConfig{}
	}
	face := screenshotFace(cfg)
	cellWidth, cellHeight := screenshotCellSize(face, cfg)

	def := styles.Default()
	defaultBG := def.Background.Or(DefaultBackground)

	img := image.NewRGBA(image.Rect(0, 0, snap.Width*cellWidth, snap.Height*cellHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(defaultBG.RGBA()), image.Point{}, draw.Src)

	ascent := face.Metrics().Ascent.Ceil()
	for row := 0; row < snap.Height; row++ {
		for col := 0; col < snap.Width; col++ {
			cell := snap.Cell(row, col)
			if cell.IsContinuation() {
				continue
			}

			style := styles.Lookup(cell.Attr)
			fg, bg, sp := style.Resolve(def)
			if style.Blend > 0 {
				bg = bg.Blend(defaultBG, float64(style.Blend)/100)
			}

			span := 1
			if cell.IsDoubleWidth() && col+1 < snap.Width {
				span = 2
			}
			x, y := col*cellWidth, row*cellHeight
			cellRect := image.Rect(x, y, x+span*cellWidth, y+cellHeight)
			draw.Draw(img, cellRect, image.NewUniform(bg.RGBA()), image.Point{}, draw.Src)

			if cell.IsBlank() {
				continue
			}

			baseline := y + ascent
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(fg.RGBA()),
				Face: face,
				Dot:  fixed.P(x, baseline),
			}
			d.DrawString(cell.Text)

			if style.HasUnderline() {
				underlineY := min(baseline+2, y+cellHeight-1)
				hline(img, x, x+span*cellWidth, underlineY, sp.RGBA())
				if style.Has(StyleUnderdouble) && underlineY+2 < y+cellHeight {
					hline(img, x, x+span*cellWidth, underlineY+2, sp.RGBA())
				}
			}
			if style.Has(StyleStrikethrough) {
				hline(img, x, x+span*cellWidth, y+cellHeight/2, fg.RGBA())
			}
		}
	}

	showCursor := true
	if cfg.ShowCursor != nil {
		showCursor = *cfg.ShowCursor
	}
	if showCursor && cursor.Visible && cursor.Grid == snap.ID {
		drawCursor(img, snap, styles, cursor, cfg.CursorColor, cellWidth, cellHeight)
	}

	return img
}

func screenshotFace(cfg *ScreenshotConfig) font.Face {
	if cfg.Font != nil {
		return cfg.Font
	}
	if cfg.FontFinder != nil && cfg.FontName != "" {
		size := cfg.FontSize
		if size == 0 {
			size = 14
		}
		if path, err := cfg.FontFinder.Find(cfg.FontName); err == nil {
			if face, err := LoadFont(path, size); err == nil {
				return face
			}
		}
	}
	return basicfont.Face7x13
}

func screenshotCellSize(face font.Face, cfg *ScreenshotConfig) (width, height int) {
	width, height = cfg.CellWidth, cfg.CellHeight
	if width == 0 {
		adv, _ := face.GlyphAdvance('M')
		width = adv.Ceil()
		if width == 0 {
			width = 7 // fallback for basicfont
		}
	}
	if height == 0 {
		height = face.Metrics().Height.Ceil()
	}
	return width, height
}

// drawCursor paints the cursor shape: a full cell for block, a bar of
// CellPercentage width for vertical, a bar of CellPercentage height at the
// bottom for horizontal.
func drawCursor(img *image.RGBA, snap *GridSnapshot, styles *StyleSet, cursor CursorState, override *color.RGBA, cellWidth, cellHeight int) {
	if cursor.Row < 0 || cursor.Row >= snap.Height || cursor.Col < 0 || cursor.Col >= snap.Width {
		return
	}
	x, y := cursor.Col*cellWidth, cursor.Row*cellHeight
	r := image.Rect(x, y, x+cellWidth, y+cellHeight)
	if cell := snap.Cell(cursor.Row, cursor.Col); cell.IsDoubleWidth() {
		r.Max.X += cellWidth
	}

	pct := cursor.Mode.CellPercentage
	if pct <= 0 || pct > 100 {
		pct = 100
	}
	switch cursor.Mode.Shape {
	case CursorShapeVertical:
		r.Max.X = r.Min.X + max(1, cellWidth*pct/100)
	case CursorShapeHorizontal:
		r.Min.Y = r.Max.Y - max(1, cellHeight*pct/100)
	}
	r = r.Intersect(img.Bounds())

	var fill *color.RGBA
	switch {
	case override != nil:
		fill = override
	case cursor.Mode.AttrID > 0:
		style := styles.Lookup(cursor.Mode.AttrID)
		_, bg, _ := style.Resolve(styles.Default())
		c := bg.RGBA()
		fill = &c
	}
	if fill != nil {
		draw.Draw(img, r, image.NewUniform(*fill), image.Point{}, draw.Src)
		return
	}

	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			existing := img.RGBAAt(px, py)
			img.SetRGBA(px, py, color.RGBA{
				R: 255 - existing.R,
				G: 255 - existing.G,
				B: 255 - existing.B,
				A: 255,
			})
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	for x := x0; x < x1; x++ {
		img.SetRGBA(x, y, c)
	}
}
