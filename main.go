package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/analytic"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"github.com/bob-anderson-ok/NRMmodel/profile"
	"gonum.org/v1/gonum/mat"
)

const version = "1_0_0"

type AffineParams struct {
	Mx, My          float64
	Sx, Sy          float64
	Xo, Yo          float64
	RotationDegrees float64
	Given           bool
}

// ModelRun holds everything read from the parameter file.
type ModelRun struct {
	ShowInput             bool
	Verbose               bool
	MakeBasis             bool
	Rebin                 bool
	Title                 string
	OutputPrefix          string
	ImageFormat           string // png or tiff, for the 16 bit science images
	AxisConvention        string
	MaskName              string
	HoleCenters           [][2]float64 // meters, only for the custom mask
	MaskRotationDegrees   float64
	HoleDiameterM         float64
	ApertureShape         string
	PSFMode               string
	PixelScaleMas         float64
	Oversample            int
	FOVPixels             int
	PSFOffsetPixels       [2]float64 // [x,y] detector pixels
	PistonsM              []float64
	Affine                AffineParams
	Filter                string
	NumWavelengths        int
	WavelengthM           float64
	PathToThroughputTable string
	Throughput            [][2]float64
	StarDiamMas           float64
	LimbDarkeningCoeff    float64
	ProfilePADegrees      float64
}

func main() {

	programStart := time.Now()

	args := os.Args

	if len(args) != 2 {
		fmt.Println("\n\tWrong number of arguments.\n\tUsage: NRMmodel <parameter-file>")
		os.Exit(1)
	}

	path := args[1]

	// Read the Json5, Json or Yaml parameter file
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read input file %q failed: %w\n", path, err))
		os.Exit(2)
	}

	jsonTable, err := parseParameterData(path, data)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tFormat error in file %q: %w\n", path, err))
		os.Exit(3)
	}

	var run ModelRun
	msg, ok := validateJsonFileAndFillRun(jsonTable, &run)
	if !ok {
		fmt.Println(msg)
		os.Exit(4)
	}

	// Check for user wanting printout of complete jsonTable
	if run.ShowInput {
		fmt.Printf("%s", "\nPrintout of  complete parameter file contents...\n")
		fmt.Println(string(data))
	}

	if run.OutputPrefix == "" {
		run.OutputPrefix = "nrm"
	}
	out := func(name string) string { return run.OutputPrefix + "_" + name }

	fmt.Printf("\nVersion %s\n\n", version)

	// If a path to a throughput table was given, read it
	if run.PathToThroughputTable != "" {
		if err := readThroughputTable(&run); err != nil {
			fmt.Println(fmt.Errorf("\n\tError reading throughput file %q: %w\n", run.PathToThroughputTable, err))
			os.Exit(13)
		}
	}

	holes, err := buildMask(&run)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid mask: %w", err))
		os.Exit(5)
	}
	tr, err := buildAffine(&run)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid affine group: %w", err))
		os.Exit(6)
	}
	grid, err := buildGrid(&run)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid image grid: %w", err))
		os.Exit(7)
	}
	mode, err := analytic.ParsePSFMode(run.PSFMode)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid psf_mode: %w", err))
		os.Exit(8)
	}
	shape, err := analytic.ParseApertureShape(run.ApertureShape)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid aperture_shape: %w", err))
		os.Exit(18)
	}
	spectrum, source, err := buildSpectrum(&run)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tInvalid bandpass: %w", err))
		os.Exit(9)
	}

	fmt.Println(maskSummary(run.MaskName, holes))
	fmt.Printf("Hole diameter %0.3f m, pupil distortion %s\n", run.HoleDiameterM, tr)
	fmt.Printf("Image grid %dx%d (fov %d pixels, oversample %d), psf mode %s\n",
		grid.Shape().Rows, grid.Shape().Cols, grid.FOV, grid.Oversample, mode)
	fmt.Printf("Bandpass %s: %d wavelengths, mean %0.4g m\n\n", source, len(spectrum), meanWavelength(spectrum))

	if len(spectrum) > 1 {
		if err := MakeThroughputPlot(spectrum, source, out("throughput.png")); err != nil {
			fmt.Println(fmt.Errorf("writing of %q failed: %w", out("throughput.png"), err))
			os.Exit(15)
		}
	}

	var opts []analytic.Option
	if run.Verbose {
		logger := log.New(os.Stdout, "", log.Ltime|log.Lmicroseconds)
		opts = append(opts, analytic.WithObserver(analytic.ObserverFunc(func(e analytic.Event) {
			logger.Println(e)
		})))
	}
	synth := analytic.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	intensity, err := synth.Polychromatic(ctx, grid, holes, run.HoleDiameterM, spectrum, run.PistonsM, tr, mode)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tSynthesis of the psf failed: %w", err))
		os.Exit(10)
	}
	elapsed := time.Since(start)
	fmt.Printf("Synthesis of the psf over %d wavelengths took %s\n", len(spectrum), elapsed)

	masPerPixel := run.PixelScaleMas / float64(run.Oversample)
	if run.StarDiamMas > 0.0 {
		fmt.Printf("\nStar diameter is %0.3f mas (%0.3f simulation pixels)\n", run.StarDiamMas, run.StarDiamMas/masPerPixel)
		starImage, sumOfWeights := BuildStarPsf(run.StarDiamMas, masPerPixel, run.LimbDarkeningCoeff)

		start := time.Now()
		intensity, err = ConvolvePSFFFT(intensity, starImage, sumOfWeights, ConvSame, PadZeros, false)
		if err != nil {
			fmt.Println(fmt.Errorf("convolution of psf with star image failed: %w", err))
			os.Exit(11)
		}
		elapsed := time.Since(start)
		fmt.Printf("Convolution of psf with star image took %s\n", elapsed)
	}

	if run.Rebin && run.Oversample > 1 {
		intensity, err = analytic.Rebin(intensity, run.Oversample)
		if err != nil {
			fmt.Println(fmt.Errorf("rebinning of psf failed: %w", err))
			os.Exit(19)
		}
		masPerPixel = run.PixelScaleMas
	}

	row, col, peak := analytic.Peak(intensity)
	total := analytic.Normalize(intensity)
	fmt.Printf("\nPeak %0.6g at (row %d, col %d), total flux %0.6g\n", peak, row, col, total)

	// Make the scientific (well-defined scaling) version of the intensity matrix
	scale, err := peakScale(intensity)
	if err != nil {
		fmt.Println(fmt.Errorf("creation of the science image failed: %w", err))
		os.Exit(12)
	}
	scienceImage, err := MatrixToGray16Data(intensity, scale)
	if err != nil {
		fmt.Println(fmt.Errorf("creation of the science image failed: %w", err))
		os.Exit(20)
	}
	name, err := SaveScienceImage(out("psf16bit"), run.ImageFormat, scienceImage)
	if err != nil {
		fmt.Println(fmt.Errorf("writing of %q failed: %w", name, err))
		os.Exit(14)
	}
	fmt.Printf("Science image %s scale is %0.6g counts per unit intensity\n", name, scale)

	// Make a user-friendly .png of the psf
	imgForDisplay, err := MatrixToGrayViewPercentile(intensity, 0.0, 99.9)
	if err != nil {
		fmt.Println(fmt.Errorf("creation of the display image failed: %w", err))
		os.Exit(21)
	}
	if err := SaveGrayPNG(out("psf8bit.png"), imgForDisplay); err != nil {
		fmt.Println(fmt.Errorf("writing of %q failed: %w", out("psf8bit.png"), err))
		os.Exit(22)
	}

	spectrumView, err := MatrixToGrayViewPercentile(logStretch(analytic.PowerSpectrum(intensity)), 0.0, 100)
	if err != nil {
		fmt.Println(fmt.Errorf("creation of the power spectrum image failed: %w", err))
		os.Exit(23)
	}
	if err := SaveGrayPNG(out("power_spectrum.png"), spectrumView); err != nil {
		fmt.Println(fmt.Errorf("writing of %q failed: %w", out("power_spectrum.png"), err))
		os.Exit(24)
	}

	if err := writeProfile(&run, intensity, row, col, masPerPixel, imgForDisplay, out); err != nil {
		fmt.Println(fmt.Errorf("\n\tProfile through the psf failed: %w", err))
		os.Exit(16)
	}

	if run.MakeBasis {
		start := time.Now()
		if err := writeBasis(synth, &run, grid, holes, tr, spectrum, shape, out); err != nil {
			fmt.Println(fmt.Errorf("\n\tGeneration of the fringe basis failed: %w", err))
			os.Exit(17)
		}
		fmt.Printf("Generation of the fringe basis took %s\n", time.Since(start))
	}

	elapsed = time.Since(programStart)
	fmt.Printf("\nTotal program run time is %s\n", elapsed)
}

// writeProfile cuts through the peak at profile_pa_degrees, plots the
// profile and marks the cut on the display image.
func writeProfile(run *ModelRun, intensity *mat.Dense, row, col int, masPerPixel float64, display *image.Gray, out func(string) string) error {
	size, _ := intensity.Dims()
	cut, err := profile.CutThrough(size, run.ProfilePADegrees, float64(row), float64(col))
	if err != nil {
		return err
	}
	cut.PixelScale = masPerPixel
	cut.Units = "mas"
	fmt.Printf("\nProfile at PA %0.1f degrees runs %s over %0.1f pixels\n", run.ProfilePADegrees, cut.Direction, cut.Length)

	points := profile.Extract(intensity, cut)
	title := run.Title
	if title == "" {
		title = "PSF profile through the peak"
	}
	if err := profile.SaveCutPlot(out("profile.png"), points, []float64{0}, cut, title, 1200, 500); err != nil {
		return err
	}
	return profile.SaveImageToFile(out("psf8bit_annotated.png"), profile.DrawCutOnImage(display, cut))
}

// writeBasis evaluates the fringe basis at the mean wavelength, weights it by
// the envelope and writes one signed 16 bit image per term.
func writeBasis(synth *analytic.Synthesizer, run *ModelRun, grid analytic.GridSpec, holes mask.Geometry, tr affine.Transform,
	spectrum []mask.SpectralSample, shape analytic.ApertureShape, out func(string) string) error {
	lam := meanWavelength(spectrum)
	envelope, basis, err := synth.ModelArray(grid, holes, run.HoleDiameterM, lam, shape, tr)
	if err != nil {
		return err
	}
	fmt.Printf("\nFringe basis at %0.4g m: %d terms\n", lam, len(basis))

	scale, err := peakScale(envelope)
	if err != nil {
		return err
	}
	img, err := MatrixToGray16Data(envelope, scale)
	if err != nil {
		return err
	}
	if name, err := SaveScienceImage(out("envelope16bit"), run.ImageFormat, img); err != nil {
		return fmt.Errorf("writing of %q failed: %w", name, err)
	}

	names := []string{"flat"}
	for _, b := range holes.Baselines() {
		names = append(names, "cos_"+b.Name(), "sin_"+b.Name())
	}
	for i, term := range analytic.MultiplyEnvelope(envelope, basis) {
		img, maxAbs, err := MatrixToGray16Signed(term)
		if err != nil {
			return err
		}
		name, err := SaveScienceImage(out(fmt.Sprintf("basis_%02d_%s", i, names[i])), run.ImageFormat, img)
		if err != nil {
			return fmt.Errorf("writing of %q failed: %w", name, err)
		}
		if run.Verbose {
			fmt.Printf("  %s (full scale %0.4g)\n", name, maxAbs)
		}
	}
	return nil
}
