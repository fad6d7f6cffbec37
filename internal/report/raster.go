package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Rasterize draws the layout on a white grayscale page, one pixel per point.
// basicfont only carries ASCII glyphs; other runes show as boxes.
func Rasterize(doc Document, page Page) *image.Gray {
	if page.Width == 0 {
		page = A4
	}
	width, height := int(page.Width), int(page.Height)

	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	for _, pl := range Place(doc, page) {
		if pl.Text == "" {
			continue
		}
		drawer.Dot = fixed.P(int(pl.X), int(pl.Y))
		drawer.DrawString(pl.Text)
	}
	return img
}

// PNG renders a preview image of the page.
type PNG struct {
	Page Page
}

func (p *PNG) Name() string        { return "png" }
func (p *PNG) ContentType() string { return "image/png" }
func (p *PNG) Extension() string   { return "png" }

// Render encodes the rasterized page.
func (p *PNG) Render(w io.Writer, doc Document) error {
	if err := png.Encode(w, Rasterize(doc, p.Page)); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
