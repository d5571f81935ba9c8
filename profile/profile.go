// Package profile extracts intensity profiles along straight cuts through
// synthesized PSF images, plots them, and marks the cut on display images.
package profile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// CutPoint is a sample location along the cut in image coordinates
// (X = column, Y = row).
type CutPoint struct {
	X        float64
	Y        float64
	Distance float64 // signed distance from the reference point, pixels
}

// Point is one sample of an extracted profile.
type Point struct {
	Distance  float64 // in Cut.Units
	Intensity float64
}

// Cut is a straight line across a square image.
type Cut struct {
	Size                 int     // image width and height, pixels
	PositionAngleDegrees float64 // direction of the cut, CCW from +row toward +col
	OffsetPixels         float64 // perpendicular offset of the cut from the image center
	AlongPixels          float64 // reference point position along the cut, from the foot of the perpendicular

	PixelScale float64 // distance units per pixel; 1 when zero
	Units      string  // label for distances; "pixels" when empty

	// Computed by Compute
	StartX, StartY float64
	EndX, EndY     float64
	StartDistance  float64
	Length         float64
	Direction      string
	SamplePoints   []CutPoint
}

type annotatedPoint struct {
	X, Y     float64
	Position string // "top", "bottom", "left", or "right"
}

var (
	// ErrNoIntersection is returned when the cut misses the image.
	ErrNoIntersection = errors.New("profile: cut does not intersect image")
	// ErrBadCut is returned for an image smaller than 2x2.
	ErrBadCut = errors.New("profile: image too small for a cut")
)

// NewCut returns a computed cut through an image of the given size.
func NewCut(size int, paDegrees, offsetPixels float64) (*Cut, error) {
	c := &Cut{Size: size, PositionAngleDegrees: paDegrees, OffsetPixels: offsetPixels}
	if err := c.Compute(); err != nil {
		return nil, err
	}
	return c, nil
}

// CutThrough returns a computed cut passing through (row, col), with
// distances measured from that point.
func CutThrough(size int, paDegrees, row, col float64) (*Cut, error) {
	theta := paDegrees * math.Pi / 180.0
	dx, dy := math.Sin(theta), math.Cos(theta)
	ctr := float64(size-1) / 2.0
	px, py := col-ctr, row-ctr
	c := &Cut{
		Size:                 size,
		PositionAngleDegrees: paDegrees,
		OffsetPixels:         px*dy - py*dx,
		AlongPixels:          px*dx + py*dy,
	}
	if err := c.Compute(); err != nil {
		return nil, err
	}
	return c, nil
}

// Compute finds where the cut enters and leaves the image and fills the
// sample points at 1 pixel spacing.
func (c *Cut) Compute() error {
	if c.Size < 2 {
		return fmt.Errorf("%w: size %d", ErrBadCut, c.Size)
	}
	w := float64(c.Size - 1)
	theta := c.PositionAngleDegrees * math.Pi / 180.0

	p1, p2, dx, dy, err := pathSquareIntersections(w, theta, c.OffsetPixels)
	if err != nil {
		return fmt.Errorf("pa %.1f offset %.2f: %w", c.PositionAngleDegrees, c.OffsetPixels, err)
	}

	// distance along the cut from the foot of the perpendicular
	x0, y0 := c.OffsetPixels*dy, -c.OffsetPixels*dx
	t1 := (p1.X-x0)*dx + (p1.Y-y0)*dy
	t2 := (p2.X-x0)*dx + (p2.Y-y0)*dy
	if t2 < t1 {
		p1, p2 = p2, p1
		t1, t2 = t2, t1
	}

	// origin from center to the upper-left pixel
	delta := w / 2.0
	c.StartX, c.StartY = p1.X+delta, p1.Y+delta
	c.EndX, c.EndY = p2.X+delta, p2.Y+delta
	c.StartDistance = t1 - c.AlongPixels
	c.Length = t2 - t1
	c.Direction = p1.Position + " to " + p2.Position

	c.computeSamplePoints()
	return nil
}

// pathSquareIntersections finds where a line intersects a square centered at origin.
// w: square width
// theta: angle of line measured CCW from y-axis (radians)
// d: perpendicular distance from origin to the line
func pathSquareIntersections(w, theta, d float64) (annotatedPoint, annotatedPoint, float64, float64, error) {
	halfW := w / 2.0

	dx := math.Sin(theta)
	dy := math.Cos(theta)

	// normal, direction rotated 90 degrees CW
	nx := dy
	ny := -dx

	x0 := d * nx
	y0 := d * ny

	var intersections []annotatedPoint

	if math.Abs(dx) > 1e-12 {
		t := (halfW - x0) / dx
		y := y0 + t*dy
		if y >= -halfW && y <= halfW {
			intersections = append(intersections, annotatedPoint{halfW, y, "right"})
		}
		t = (-halfW - x0) / dx
		y = y0 + t*dy
		if y >= -halfW && y <= halfW {
			intersections = append(intersections, annotatedPoint{-halfW, y, "left"})
		}
	}

	if math.Abs(dy) > 1e-12 {
		t := (halfW - y0) / dy
		x := x0 + t*dx
		if x >= -halfW && x <= halfW {
			intersections = append(intersections, annotatedPoint{x, halfW, "bottom"})
		}
		t = (-halfW - y0) / dy
		x = x0 + t*dx
		if x >= -halfW && x <= halfW {
			intersections = append(intersections, annotatedPoint{x, -halfW, "top"})
		}
	}

	// corners are hit twice
	intersections = removeDuplicatePoints(intersections, 1e-9)

	if len(intersections) < 2 {
		return annotatedPoint{}, annotatedPoint{}, dx, dy, ErrNoIntersection
	}
	return intersections[0], intersections[1], dx, dy, nil
}

func removeDuplicatePoints(pts []annotatedPoint, tol float64) []annotatedPoint {
	var result []annotatedPoint
	for _, p := range pts {
		duplicate := false
		for _, r := range result {
			if math.Abs(p.X-r.X) < tol && math.Abs(p.Y-r.Y) < tol {
				duplicate = true
				break
			}
		}
		if !duplicate {
			result = append(result, p)
		}
	}
	return result
}

// computeSamplePoints samples the cut at 1 pixel intervals, both ends
// included when the length is a whole number of pixels.
func (c *Cut) computeSamplePoints() {
	c.SamplePoints = nil
	if c.Length <= 0 {
		c.SamplePoints = []CutPoint{{X: c.StartX, Y: c.StartY, Distance: c.StartDistance}}
		return
	}
	dXPerStep := (c.EndX - c.StartX) / c.Length
	dYPerStep := (c.EndY - c.StartY) / c.Length

	n := int(math.Floor(c.Length+1e-9)) + 1
	c.SamplePoints = make([]CutPoint, n)
	for i := range c.SamplePoints {
		k := float64(i)
		c.SamplePoints[i] = CutPoint{
			X:        c.StartX + k*dXPerStep,
			Y:        c.StartY + k*dYPerStep,
			Distance: c.StartDistance + k,
		}
	}
}

func (c *Cut) scale() float64 {
	if c.PixelScale == 0 {
		return 1
	}
	return c.PixelScale
}

func (c *Cut) units() string {
	if c.Units == "" {
		return "pixels"
	}
	return c.Units
}

// interpolate performs bilinear interpolation at column x, row y, clamping to
// the image.
func interpolate(m *mat.Dense, x, y float64) float64 {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return 0
	}
	x = math.Max(0, math.Min(x, float64(cols-1)))
	y = math.Max(0, math.Min(y, float64(rows-1)))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, cols-1), min(y0+1, rows-1)
	xFrac := x - float64(x0)
	yFrac := y - float64(y0)

	v0 := m.At(y0, x0)*(1-xFrac) + m.At(y0, x1)*xFrac
	v1 := m.At(y1, x0)*(1-xFrac) + m.At(y1, x1)*xFrac
	return v0*(1-yFrac) + v1*yFrac
}

// Extract samples img along the cut.
func Extract(img *mat.Dense, c *Cut) []Point {
	if len(c.SamplePoints) == 0 {
		c.computeSamplePoints()
	}
	s := c.scale()
	out := make([]Point, len(c.SamplePoints))
	for i, pt := range c.SamplePoints {
		out[i] = Point{
			Distance:  pt.Distance * s,
			Intensity: interpolate(img, pt.X, pt.Y),
		}
	}
	return out
}

// LoadGray16PNG loads a 16-bit grayscale PNG image. The scale parameter
// converts pixel values back to intensity: intensity = pixelValue / scale.
func LoadGray16PNG(filename string, scale float64) (m *mat.Dense, err error) {
	img, err := LoadImageFromFile(filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()

	m = mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x+bounds.Min.X, y+bounds.Min.Y)
			if gray, ok := c.(color.Gray16); ok {
				m.Set(y, x, float64(gray.Y)/scale)
				continue
			}
			r, g, b, _ := c.RGBA()
			m.Set(y, x, float64((r+g+b)/3)/scale)
		}
	}
	return m, nil
}

// StepTicks is a tick marker with fixed step intervals.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if !(t.Step > 0) {
		return nil
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// SetLiberationFonts applies the Liberation Sans typeface to the title, axis
// labels and tick labels of p.
func SetLiberationFonts(p *plot.Plot) {
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)
}

// RenderPlot draws p onto a wPx by hPx image at 96 dpi.
func RenderPlot(p *plot.Plot, wPx, hPx float64) image.Image {
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := vgdraw.New(c)
	p.Draw(dc)
	return c.Image()
}

// PlotCut plots a profile with dashed vertical markers at the given
// distances (in Cut.Units).
func PlotCut(profile []Point, markers []float64, c *Cut, title string, wPx, hPx float64) (image.Image, error) {
	if len(profile) == 0 {
		return nil, errors.New("profile: empty profile")
	}
	p := plot.New()
	SetLiberationFonts(p)

	peak := profile[0].Intensity
	for _, pt := range profile {
		peak = math.Max(peak, pt.Intensity)
	}
	if !(peak > 0) {
		peak = 1
	}
	lo, hi := profile[0].Distance, profile[len(profile)-1].Distance

	p.Y.Min = 0
	p.Y.Max = 1.1 * peak
	p.Title.Text = title
	p.X.Label.Text = fmt.Sprintf("%s along cut at PA %.1f deg", c.units(), c.PositionAngleDegrees)
	p.Y.Label.Text = "intensity"
	p.X.Tick.Marker = StepTicks{Step: (hi - lo) / 10, Format: "%.2f"}
	p.Y.Tick.Marker = StepTicks{Step: peak / 5, Format: "%.3g"}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(profile))
	for i, pt := range profile {
		pts[i].X = pt.Distance
		pts[i].Y = pt.Intensity
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	p.Add(line)

	for _, m := range markers {
		vline, err := plotter.NewLine(plotter.XYs{{X: m, Y: 0}, {X: m, Y: 1.05 * peak}})
		if err != nil {
			return nil, err
		}
		vline.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		vline.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255}
		p.Add(vline)
	}

	return RenderPlot(p, wPx, hPx), nil
}

// SaveCutPlot creates and saves a profile plot to a PNG file.
func SaveCutPlot(filename string, profile []Point, markers []float64, c *Cut, title string, wPx, hPx float64) error {
	img, err := PlotCut(profile, markers, c, title, wPx, hPx)
	if err != nil {
		return err
	}
	return SaveImageToFile(filename, img)
}

// DrawCutOnImage returns a copy of sourceImage with the cut drawn as a red
// line, a red dot at the start and a green dot at the end.
func DrawCutOnImage(sourceImage image.Image, c *Cut) *image.RGBA {
	bounds := sourceImage.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, sourceImage, bounds.Min, draw.Src)

	radius := max(1, bounds.Dx()/100)
	drawLine(result, c.StartX, c.StartY, c.EndX, c.EndY, color.RGBA{R: 255, A: 255})
	drawDot(result, c.StartX, c.StartY, radius, color.RGBA{R: 255, A: 255})
	drawDot(result, c.EndX, c.EndY, radius, color.RGBA{G: 255, A: 255})
	return result
}

// drawLine draws a 1 pixel wide line by stepping along it.
func drawLine(img *image.RGBA, x1, y1, x2, y2 float64, col color.Color) {
	n := int(math.Ceil(math.Max(math.Abs(x2-x1), math.Abs(y2-y1))))
	for i := 0; i <= n; i++ {
		t := 0.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		setPixel(img, x1+t*(x2-x1), y1+t*(y2-y1), col)
	}
}

func drawDot(img *image.RGBA, cx, cy float64, radius int, col color.Color) {
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= radius*radius {
				setPixel(img, cx+float64(x), cy+float64(y), col)
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y float64, col color.Color) {
	px, py := int(math.Round(x)), int(math.Round(y))
	b := img.Bounds()
	if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
		img.Set(px, py, col)
	}
}

// LoadImageFromFile loads any PNG image file.
func LoadImageFromFile(filename string) (img image.Image, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, err = png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return img, nil
}

// SaveImageToFile saves an image to a PNG file.
func SaveImageToFile(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, img)
}
