package recorder

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/chewxy/math32"
	"github.com/fogleman/gg"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

// plotMargin is the border around the path in a plot, in pixels.
const plotMargin = 24

// WriteCSV writes the keyframes with a header row.
func (r *Recorder) WriteCSV(w io.Writer) error {
	keys := r.Keyframes()
	if len(keys) == 0 {
		return fmt.Errorf("no keyframes recorded")
	}
	if err := gocsv.Marshal(keys, w); err != nil {
		return fmt.Errorf("writing keyframes: %w", err)
	}
	return nil
}

// SaveCSV writes the keyframes to path.
func (r *Recorder) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := r.WriteCSV(f); err != nil {
		return err
	}
	r.log.Info("keyframes exported", zap.String("path", path), zap.Int("frames", r.Len()))
	return f.Close()
}

// Plot draws the recorded path seen from above onto a size x size image.
// Grounded frames are drawn green, airborne frames orange.
func (r *Recorder) Plot(size int) *gg.Context {
	dc := gg.NewContext(size, size)
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.Clear()

	keys := r.Keyframes()
	if len(keys) == 0 {
		return dc
	}

	minX, minY := keys[0].X, keys[0].Y
	maxX, maxY := minX, minY
	for _, k := range keys[1:] {
		minX, maxX = math32.Min(minX, k.X), math32.Max(maxX, k.X)
		minY, maxY = math32.Min(minY, k.Y), math32.Max(maxY, k.Y)
	}
	extent := math32.Max(math32.Max(maxX-minX, maxY-minY), 1)
	scale := float64(size-2*plotMargin) / float64(extent)
	cx, cy := float64(minX+maxX)/2, float64(minY+maxY)/2
	half := float64(size) / 2

	// world y points up in the image
	toPixel := func(k Keyframe) (float64, float64) {
		return half + (float64(k.X)-cx)*scale, half - (float64(k.Y)-cy)*scale
	}

	drawGrid(dc, size, scale)

	dc.SetLineWidth(2)
	for i := 1; i < len(keys); i++ {
		x0, y0 := toPixel(keys[i-1])
		x1, y1 := toPixel(keys[i])
		if keys[i].Grounded {
			dc.SetColor(color.RGBA{80, 220, 120, 255})
		} else {
			dc.SetColor(color.RGBA{255, 160, 40, 255})
		}
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	x, y := toPixel(keys[0])
	dc.SetColor(color.White)
	dc.DrawCircle(x, y, 4)
	dc.Fill()

	x, y = toPixel(keys[len(keys)-1])
	dc.SetColor(color.RGBA{230, 60, 60, 255})
	dc.DrawCircle(x, y, 4)
	dc.Fill()
	return dc
}

// drawGrid draws one line per world meter, sparser when zoomed out.
func drawGrid(dc *gg.Context, size int, scale float64) {
	step := scale
	for step < 16 {
		step *= 10
	}
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)
	for p := 0.0; p < float64(size); p += step {
		dc.DrawLine(p, 0, p, float64(size))
		dc.Stroke()
		dc.DrawLine(0, p, float64(size), p)
		dc.Stroke()
	}
}

// SavePlot writes the path plot as a PNG.
func (r *Recorder) SavePlot(path string, size int) error {
	if err := r.Plot(size).SavePNG(path); err != nil {
		return fmt.Errorf("writing plot %s: %w", path, err)
	}
	r.log.Info("path plot exported", zap.String("path", path))
	return nil
}
