package main

import (
	"testing"

	"github.com/bob-anderson-ok/NRMmodel/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRun(t *testing.T, path, text string) (ModelRun, string, bool) {
	t.Helper()
	table, err := parseParameterData(path, []byte(text))
	require.NoError(t, err)
	var run ModelRun
	msg, ok := validateJsonFileAndFillRun(table, &run)
	return run, msg, ok
}

func TestNIRISSDefaults(t *testing.T) {
	run, msg, ok := fillRun(t, "params.json5", `{}`)
	require.True(t, ok, msg)

	assert.Equal(t, "niriss", run.MaskName)
	assert.Equal(t, mask.NIRISSHoleFlatToFlat, run.HoleDiameterM)
	assert.Equal(t, mask.NIRISSPixelScaleMas, run.PixelScaleMas)
	assert.Equal(t, "hex", run.ApertureShape)
	assert.Equal(t, "hex", run.PSFMode)
	assert.Equal(t, 3, run.Oversample)
	assert.Equal(t, 81, run.FOVPixels)
	assert.Equal(t, "F430M", run.Filter)
	assert.Equal(t, "png", run.ImageFormat)
	assert.False(t, run.Affine.Given)
}

const customJSON5 = `{
	// three holes on a right angle
	"mask": "custom",
	"hole_centers_m": [[0, 0], [1.5, 0], [0, 2.5],],
	"hole_diameter_m": 0.5,
	"pixel_scale_mas": 10,
	"fov_pixels": 33,
	"wavelength_m": 2e-6,
	"psf_offset_pixels": [0.5, -1],
	"pistons_m": [0, 1e-7, 0],
	"image_format": "TIFF",
	"affine": {"mx": 1.01, "sy": 0.02},
	"make_basis_bool": true,
}`

const customYAML = `
# three holes on a right angle
mask: custom
hole_centers_m:
  - [0, 0]
  - [1.5, 0]
  - [0, 2.5]
hole_diameter_m: 0.5
pixel_scale_mas: 10
fov_pixels: 33
wavelength_m: 2.0e-6
psf_offset_pixels: [0.5, -1]
pistons_m: [0, 1.0e-7, 0]
image_format: TIFF
affine:
  mx: 1.01
  sy: 0.02
make_basis_bool: true
`

func TestCustomMaskJSON5AndYAMLAgree(t *testing.T) {
	for _, tc := range []struct{ path, text string }{
		{"params.json5", customJSON5},
		{"params.yaml", customYAML},
	} {
		run, msg, ok := fillRun(t, tc.path, tc.text)
		require.True(t, ok, "%s: %s", tc.path, msg)

		assert.Equal(t, [][2]float64{{0, 0}, {1.5, 0}, {0, 2.5}}, run.HoleCenters, tc.path)
		assert.Equal(t, 0.5, run.HoleDiameterM, tc.path)
		assert.Equal(t, "circ", run.ApertureShape, tc.path)
		assert.Equal(t, "circ", run.PSFMode, tc.path)
		assert.Equal(t, 33, run.FOVPixels, tc.path)
		assert.Equal(t, 3, run.Oversample, tc.path)
		assert.Equal(t, 2e-6, run.WavelengthM, tc.path)
		assert.Equal(t, "", run.Filter, tc.path)
		assert.Equal(t, [2]float64{0.5, -1}, run.PSFOffsetPixels, tc.path)
		assert.Equal(t, []float64{0, 1e-7, 0}, run.PistonsM, tc.path)
		assert.Equal(t, "tiff", run.ImageFormat, tc.path)
		assert.True(t, run.MakeBasis, tc.path)

		assert.True(t, run.Affine.Given, tc.path)
		assert.Equal(t, 1.01, run.Affine.Mx, tc.path)
		assert.Equal(t, 1.0, run.Affine.My, tc.path)
		assert.Equal(t, 0.02, run.Affine.Sy, tc.path)
	}
}

func TestValidationFailures(t *testing.T) {
	for _, tc := range []struct {
		name, text, msg string
	}{
		{"custom without holes", `{"mask": "custom", "wavelength_m": 1e-6, "hole_diameter_m": 1, "pixel_scale_mas": 5, "fov_pixels": 9}`, "hole_centers_m"},
		{"unknown mask", `{"mask": "golay9"}`, "mask"},
		{"non-integer fov", `{"fov_pixels": 2.5}`, "fov_pixels: is not an integer"},
		{"string as number", `{"hole_diameter_m": "big"}`, "hole_diameter_m: is not a float64"},
		{"number as string", `{"title": 7}`, "title: is not a string"},
		{"bad offset", `{"psf_offset_pixels": [1, 2, 3]}`, "psf_offset_pixels"},
		{"bad hole pair", `{"mask": "custom", "hole_centers_m": [[0, 0, 0]]}`, "hole_centers_m[0]"},
		{"custom needs wavelength", `{"mask": "custom", "hole_centers_m": [[0, 0], [1, 0], [0, 1]], "hole_diameter_m": 0.2, "pixel_scale_mas": 10, "fov_pixels": 9}`, "wavelength_m"},
		{"negative pixel scale", `{"pixel_scale_mas": -1}`, "pixel_scale_mas"},
		{"bad image format", `{"image_format": "jpeg"}`, "image_format"},
		{"bad affine value", `{"affine": {"mx": "one"}}`, "affine.mx"},
	} {
		_, msg, ok := fillRun(t, "params.json5", tc.text)
		assert.False(t, ok, tc.name)
		assert.Contains(t, msg, tc.msg, tc.name)
	}
}

func TestParseParameterDataErrors(t *testing.T) {
	_, err := parseParameterData("params.json5", []byte(`{"a": `))
	assert.Error(t, err)

	_, err = parseParameterData("params.json", []byte(`null`))
	assert.Error(t, err)

	_, err = parseParameterData("params.yml", []byte("a: [1, 2\n"))
	assert.Error(t, err)
}

func TestParseArrayFormat(t *testing.T) {
	pairs, err := parseArrayFormat([]byte(`[[4.2e-6, 0.5], [4.3e-6, 1], // peak
		[4.4e-6, 0.5]]`))
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{4.2e-6, 0.5}, {4.3e-6, 1}, {4.4e-6, 0.5}}, pairs)
}
