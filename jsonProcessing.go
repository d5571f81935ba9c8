package main

import (
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/KevinWang15/go-json5"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gopkg.in/yaml.v3"
)

// parseArrayFormat reads a throughput table: [[wavelength_m, weight], ...]
func parseArrayFormat(data []byte) ([][2]float64, error) {
	var pairs [][2]float64
	err := json.Unmarshal(data, &pairs)
	return pairs, err
}

// parseParameterData parses a JSON5 (or JSON) parameter file, or YAML when the
// file name ends in .yaml or .yml, into a generic table. YAML integers become
// float64 so both formats validate identically.
func parseParameterData(path string, data []byte) (map[string]interface{}, error) {
	var jsonTable map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &jsonTable); err != nil {
			return nil, err
		}
		normalizeNumbers(jsonTable)
	default:
		if err := json.Unmarshal(data, &jsonTable); err != nil {
			return nil, err
		}
	}
	if jsonTable == nil {
		return nil, fmt.Errorf("no parameters found")
	}
	return jsonTable, nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func keyName(path []string) string {
	return strings.Join(path, ".")
}

// optionalFloat leaves *dst unchanged when the key is missing.
func optionalFloat(jsonTable map[string]interface{}, dst *float64, path ...string) (string, bool) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return "", true
	}
	f, ok := v.(float64)
	if !ok {
		return keyName(path) + ": is not a float64", false
	}
	*dst = f
	return "", true
}

func optionalInt(jsonTable map[string]interface{}, dst *int, path ...string) (string, bool) {
	f := float64(*dst)
	if msg, ok := optionalFloat(jsonTable, &f, path...); !ok {
		return msg, false
	}
	if f != float64(int(f)) {
		return keyName(path) + ": is not an integer", false
	}
	*dst = int(f)
	return "", true
}

func optionalString(jsonTable map[string]interface{}, dst *string, path ...string) (string, bool) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return "", true
	}
	s, ok := v.(string)
	if !ok {
		return keyName(path) + ": is not a string", false
	}
	*dst = s
	return "", true
}

func optionalBool(jsonTable map[string]interface{}, dst *bool, path ...string) (string, bool) {
	v, ok := getLeafValue(jsonTable, path...)
	if !ok {
		return "", true
	}
	b, ok := v.(bool)
	if !ok {
		return keyName(path) + ": is not a bool", false
	}
	*dst = b
	return "", true
}

func floatList(v interface{}, name string) ([]float64, string, bool) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, name + ": is not a list", false
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := e.(float64)
		if !ok {
			return nil, fmt.Sprintf("%s[%d]: is not a float64", name, i), false
		}
		out[i] = f
	}
	return out, "", true
}

func validateJsonFileAndFillRun(jsonTable map[string]interface{}, run *ModelRun) (string, bool) {
	msg := "No problem found in parameter file" // presumed success

	for _, check := range []func() (string, bool){
		func() (string, bool) { return optionalBool(jsonTable, &run.ShowInput, "show_input_bool") },
		func() (string, bool) { return optionalBool(jsonTable, &run.Verbose, "verbose_bool") },
		func() (string, bool) { return optionalBool(jsonTable, &run.MakeBasis, "make_basis_bool") },
		func() (string, bool) { return optionalBool(jsonTable, &run.Rebin, "rebin_bool") },
		func() (string, bool) { return optionalString(jsonTable, &run.Title, "title") },
		func() (string, bool) { return optionalString(jsonTable, &run.OutputPrefix, "output_prefix") },
		func() (string, bool) { return optionalString(jsonTable, &run.ImageFormat, "image_format") },
		func() (string, bool) { return optionalString(jsonTable, &run.AxisConvention, "axis_convention") },
		func() (string, bool) { return optionalString(jsonTable, &run.Filter, "filter") },
		func() (string, bool) {
			return optionalString(jsonTable, &run.PathToThroughputTable, "path_to_throughput_table")
		},
		func() (string, bool) { return optionalInt(jsonTable, &run.NumWavelengths, "num_wavelengths") },
		func() (string, bool) { return optionalFloat(jsonTable, &run.WavelengthM, "wavelength_m") },
		func() (string, bool) { return optionalFloat(jsonTable, &run.MaskRotationDegrees, "mask_rotation_degrees") },
		func() (string, bool) { return optionalFloat(jsonTable, &run.StarDiamMas, "star_diam_mas") },
		func() (string, bool) {
			return optionalFloat(jsonTable, &run.LimbDarkeningCoeff, "limb_darkening_coeff")
		},
		func() (string, bool) { return optionalFloat(jsonTable, &run.ProfilePADegrees, "profile_pa_degrees") },
	} {
		if m, ok := check(); !ok {
			return m, false
		}
	}

	// The mask decides the defaults of the optical parameters.
	run.MaskName = "niriss"
	if m, ok := optionalString(jsonTable, &run.MaskName, "mask"); !ok {
		return m, false
	}
	run.MaskName = strings.ToLower(run.MaskName)
	switch run.MaskName {
	case "niriss":
		run.HoleDiameterM = mask.NIRISSHoleFlatToFlat
		run.ApertureShape = "hex"
		run.PSFMode = "hex"
		run.PixelScaleMas = mask.NIRISSPixelScaleMas
		run.Oversample = 3
		run.FOVPixels = 81
	case "custom":
		v, ok := getLeafValue(jsonTable, "hole_centers_m")
		if !ok {
			msg = "hole_centers_m: not found (required when mask is \"custom\")"
			return msg, false
		}
		rows, ok := v.([]interface{})
		if !ok {
			msg = "hole_centers_m: is not a list of [x, y] pairs"
			return msg, false
		}
		for i, r := range rows {
			pair, m, ok := floatList(r, fmt.Sprintf("hole_centers_m[%d]", i))
			if !ok {
				return m, false
			}
			if len(pair) != 2 {
				msg = fmt.Sprintf("hole_centers_m[%d]: must be an [x, y] pair", i)
				return msg, false
			}
			run.HoleCenters = append(run.HoleCenters, [2]float64{pair[0], pair[1]})
		}
		run.ApertureShape = "circ"
		run.PSFMode = "circ"
		run.Oversample = 3
	default:
		msg = fmt.Sprintf("mask: %q is not one of niriss, custom", run.MaskName)
		return msg, false
	}

	for _, check := range []func() (string, bool){
		func() (string, bool) { return optionalFloat(jsonTable, &run.HoleDiameterM, "hole_diameter_m") },
		func() (string, bool) { return optionalString(jsonTable, &run.ApertureShape, "aperture_shape") },
		func() (string, bool) { return optionalString(jsonTable, &run.PSFMode, "psf_mode") },
		func() (string, bool) { return optionalFloat(jsonTable, &run.PixelScaleMas, "pixel_scale_mas") },
		func() (string, bool) { return optionalInt(jsonTable, &run.Oversample, "oversample") },
		func() (string, bool) { return optionalInt(jsonTable, &run.FOVPixels, "fov_pixels") },
	} {
		if m, ok := check(); !ok {
			return m, false
		}
	}

	if run.HoleDiameterM <= 0 {
		msg = "hole_diameter_m: not found or not positive"
		return msg, false
	}
	if run.PixelScaleMas <= 0 {
		msg = "pixel_scale_mas: not found or not positive"
		return msg, false
	}
	if run.FOVPixels < 1 {
		msg = "fov_pixels: not found or less than 1"
		return msg, false
	}
	if run.Oversample < 1 {
		msg = "oversample: must be at least 1"
		return msg, false
	}

	offset, ok := getLeafValue(jsonTable, "psf_offset_pixels")
	if ok {
		xy, m, ok := floatList(offset, "psf_offset_pixels")
		if !ok {
			return m, false
		}
		if len(xy) != 2 {
			msg = "psf_offset_pixels: must be an [x, y] pair"
			return msg, false
		}
		run.PSFOffsetPixels = [2]float64{xy[0], xy[1]}
	}

	pistons, ok := getLeafValue(jsonTable, "pistons_m")
	if ok {
		p, m, ok := floatList(pistons, "pistons_m")
		if !ok {
			return m, false
		}
		run.PistonsM = p
	}

	// Check to see if an affine group is present --- it is optional
	_, ok = getLeafValue(jsonTable, "affine")
	run.Affine.Given = ok
	run.Affine.Mx, run.Affine.My = 1, 1
	if ok {
		for _, f := range []struct {
			dst *float64
			key string
		}{
			{&run.Affine.Mx, "mx"},
			{&run.Affine.My, "my"},
			{&run.Affine.Sx, "sx"},
			{&run.Affine.Sy, "sy"},
			{&run.Affine.Xo, "xo"},
			{&run.Affine.Yo, "yo"},
			{&run.Affine.RotationDegrees, "rotation_degrees"},
		} {
			if m, ok := optionalFloat(jsonTable, f.dst, "affine", f.key); !ok {
				return m, false
			}
		}
	}

	if run.WavelengthM == 0 && run.Filter == "" && run.PathToThroughputTable == "" {
		if run.MaskName != "niriss" {
			msg = "wavelength_m: not found (give wavelength_m, filter or path_to_throughput_table)"
			return msg, false
		}
		run.Filter = "F430M"
	}
	if run.WavelengthM < 0 {
		msg = "wavelength_m: must be positive"
		return msg, false
	}

	if run.ImageFormat == "" {
		run.ImageFormat = "png"
	}
	run.ImageFormat = strings.ToLower(run.ImageFormat)
	if run.ImageFormat != "png" && run.ImageFormat != "tiff" {
		msg = fmt.Sprintf("image_format: %q is not one of png, tiff", run.ImageFormat)
		return msg, false
	}

	return msg, true
}
