package window

import (
	"image"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
)

// ============ CURVE PREVIEW ============

const previewSamples = 64

// curveView plots the response of the selected binding
type curveView struct {
	points  []float64
	raster  *canvas.Raster
	content fyne.CanvasObject
}

func newCurveView() *curveView {
	cv := &curveView{}
	cv.raster = canvas.NewRaster(func(w, h int) image.Image {
		return drawCurve(w, h, cv.points, theme.ForegroundColor())
	})
	cv.raster.SetMinSize(fyne.NewSize(180, 180))

	bg := canvas.NewRectangle(theme.InputBackgroundColor())
	bg.CornerRadius = 3

	xLabel := widget.NewLabelWithStyle("input", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	cv.content = container.NewBorder(nil, xLabel, container.NewCenter(rotatedLabel("output")), nil,
		container.NewStack(bg, cv.raster))
	return cv
}

func (cv *curveView) show(bh binding.Behavior) {
	cv.points = curvePoints(bh, previewSamples)
	cv.raster.Refresh()
}

func (cv *curveView) clear() {
	cv.points = nil
	cv.raster.Refresh()
}

// rotatedLabel renders text bottom-to-top with the theme font, for a
// vertical axis
func rotatedLabel(text string) *canvas.Image {
	fontBytes := theme.DefaultTextFont().Content()

	f, err := freetype.ParseFont(fontBytes)
	if err != nil {
		log.Printf("Failed to parse font: %v", err)
		return canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}

	fontSize := float64(12)
	dpi := float64(72)

	c := freetype.NewContext()
	c.SetFont(f)
	c.SetFontSize(fontSize)
	c.SetDPI(dpi)

	face := truetype.NewFace(f, &truetype.Options{Size: fontSize, DPI: dpi})
	defer face.Close()

	textWidth := 0
	for _, r := range text {
		if adv, ok := face.GlyphAdvance(r); ok {
			textWidth += adv.Round()
		}
	}

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	padding := 2
	imgWidth := textWidth + padding*2
	imgHeight := (metrics.Ascent + metrics.Descent).Ceil() + padding*2

	src := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	c.SetClip(src.Bounds())
	c.SetDst(src)
	c.SetSrc(image.NewUniform(theme.ForegroundColor()))

	if _, err := c.DrawString(text, freetype.Pt(padding, padding+ascent)); err != nil {
		log.Printf("Failed to draw string: %v", err)
	}

	// 90 degrees counter-clockwise: (x,y) -> (y, width-1-x)
	rotated := image.NewRGBA(image.Rect(0, 0, imgHeight, imgWidth))
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			rotated.Set(y, imgWidth-1-x, src.At(x, y))
		}
	}

	img := canvas.NewImageFromImage(rotated)
	img.SetMinSize(fyne.NewSize(float32(imgHeight), float32(imgWidth)))
	img.FillMode = canvas.ImageFillOriginal
	return img
}
