// Package annotate renders detected layout regions onto a page image for
// visual inspection.
package annotate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/scankit/detect"
)

const borderWidth = 3

// palette assigns stable colors to the common region types; unlisted
// types share the fallback.
var palette = map[string]color.RGBA{
	"Text":   {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"Title":  {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"List":   {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"Table":  {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	"Figure": {R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

var fallbackColor = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}

func regionColor(typ string) color.RGBA {
	if c, ok := palette[typ]; ok {
		return c
	}
	return fallbackColor
}

// Render draws a colored border and type label for every region over a
// copy of img.
func Render(img image.Image, regions []detect.Region) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for _, r := range regions {
		c := regionColor(r.Type)
		rect := image.Rect(r.Box[0], r.Box[1], r.Box[2], r.Box[3]).Add(b.Min)
		drawBorder(out, rect.Intersect(b), c)
		drawLabel(out, rect.Min.X, rect.Min.Y, r.Type, c)
	}
	return out
}

func drawBorder(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	if rect.Empty() {
		return
	}
	src := &image.Uniform{C: c}
	top := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+borderWidth)
	bottom := image.Rect(rect.Min.X, rect.Max.Y-borderWidth, rect.Max.X, rect.Max.Y)
	left := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+borderWidth, rect.Max.Y)
	right := image.Rect(rect.Max.X-borderWidth, rect.Min.Y, rect.Max.X, rect.Max.Y)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(img, edge.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

func drawLabel(img *image.RGBA, x, y int, text string, c color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 4
	h := face.Metrics().Height.Ceil() + 2

	// Place the tag above the box when there is room, inside otherwise.
	top := y - h
	if top < img.Bounds().Min.Y {
		top = y
	}
	bg := image.Rect(x, top, x+w, top+h).Intersect(img.Bounds())
	draw.Draw(img, bg, &image.Uniform{C: c}, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(x+2, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
