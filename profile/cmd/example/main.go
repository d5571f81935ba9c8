// Example program demonstrating how to use the profile package to:
// 1. Load a 16-bit PSF image (or synthesize one) and extract a profile
// 2. Plot the profile with a marker at the PSF center
// 3. Draw the cut on an 8-bit display image
//
// Usage:
//
//	go run main.go [psf16bit.png] [display8bit.png]
//
// Without arguments a NIRISS F430M PSF is synthesized.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/analytic"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"github.com/bob-anderson-ok/NRMmodel/profile"
	"gonum.org/v1/gonum/mat"
)

func main() {
	fmt.Println("PSF Profile Example")
	fmt.Println("===================")

	var psf *mat.Dense
	var err error
	if len(os.Args) > 1 {
		psf, err = profile.LoadGray16PNG(os.Args[1], 65535)
		if err != nil {
			log.Fatalf("Could not load %s: %v", os.Args[1], err)
		}
	} else {
		psf, err = synthesize()
		if err != nil {
			log.Fatalf("Could not synthesize PSF: %v", err)
		}
	}
	rows, _ := psf.Dims()
	fmt.Printf("\nPSF image: %dx%d pixels\n", rows, rows)

	row, col, peak := analytic.Peak(psf)
	cut, err := profile.CutThrough(rows, 30, float64(row), float64(col))
	if err != nil {
		log.Fatalf("Failed to compute cut: %v", err)
	}
	cut.PixelScale = mask.NIRISSPixelScaleMas / 4
	cut.Units = "mas"

	fmt.Printf("\nCut through peak %.4g at (%d, %d):", peak, row, col)
	fmt.Printf("\n  Direction: %s", cut.Direction)
	fmt.Printf("\n  Start: (%.1f, %.1f)", cut.StartX, cut.StartY)
	fmt.Printf("\n  End: (%.1f, %.1f)\n", cut.EndX, cut.EndY)

	points := profile.Extract(psf, cut)
	fmt.Printf("Extracted %d profile points\n", len(points))
	for i := 0; i < 3 && i < len(points); i++ {
		fmt.Printf("    Distance: %8.2f mas, Intensity: %.4g\n", points[i].Distance, points[i].Intensity)
	}

	outputPlot := "profile_plot.png"
	err = profile.SaveCutPlot(outputPlot, points, []float64{0}, cut, "PSF profile", 1200, 500)
	if err != nil {
		log.Printf("Could not save profile plot: %v\n", err)
	} else {
		fmt.Printf("\nSaved profile plot to %s\n", outputPlot)
	}

	var display image.Image
	if len(os.Args) > 2 {
		display, err = profile.LoadImageFromFile(os.Args[2])
		if err != nil {
			fmt.Printf("\nNote: Could not load %s: %v\n", os.Args[2], err)
		}
	}
	if display == nil {
		display = grayView(psf, peak)
	}

	outputAnnotated := "annotated_psf.png"
	if err := profile.SaveImageToFile(outputAnnotated, profile.DrawCutOnImage(display, cut)); err != nil {
		log.Printf("Could not save annotated image: %v\n", err)
	} else {
		fmt.Printf("Saved annotated image to %s\n", outputAnnotated)
	}

	fmt.Println("\nDone!")
}

func synthesize() (*mat.Dense, error) {
	f, err := mask.NIRISSFilter("F430M")
	if err != nil {
		return nil, err
	}
	g := analytic.GridSpec{FOV: 81, Oversample: 4, DetectorPitch: mask.MasToRad(mask.NIRISSPixelScaleMas)}
	return analytic.Polychromatic(context.Background(), g, mask.NIRISS(), mask.NIRISSHoleFlatToFlat,
		f.Bandpass(0), nil, affine.Identity(), analytic.HexWithFringe)
}

// grayView is a square-root stretch of the PSF for display.
func grayView(m *mat.Dense, peak float64) image.Image {
	rows, cols := m.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := 0.0
			if peak > 0 && m.At(y, x) > 0 {
				v = m.At(y, x) / peak
			}
			img.SetGray(x, y, color.Gray{Y: uint8(255 * math.Sqrt(v))})
		}
	}
	return img
}
