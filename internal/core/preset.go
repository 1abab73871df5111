package core

import (
	"fmt"
	"strconv"
)

// Resolution selects how far embedded images are downsampled.
type Resolution string

const (
	ResolutionUnchanged Resolution = "unchanged"
	ResolutionPrint     Resolution = "print"
	ResolutionEbook     Resolution = "ebook"
	ResolutionScreen    Resolution = "screen"
)

// Quality selects the JPEG quality used when images are re-encoded.
type Quality string

const (
	QualityVeryHigh Quality = "very_high"
	QualityHigh     Quality = "high"
	QualityMedium   Quality = "medium"
)

// Preset is a resolution/quality pair handed to the compressor.
type Preset struct {
	Resolution Resolution
	Quality    Quality
}

// DefaultPreset is used when a request does not name one.
var DefaultPreset = Preset{Resolution: ResolutionEbook, Quality: QualityHigh}

var resolutionDPI = map[Resolution]int{
	ResolutionUnchanged: 0,
	ResolutionPrint:     300,
	ResolutionEbook:     150,
	ResolutionScreen:    72,
}

var resolutionSettings = map[Resolution]string{
	ResolutionUnchanged: "/default",
	ResolutionPrint:     "/printer",
	ResolutionEbook:     "/ebook",
	ResolutionScreen:    "/screen",
}

var qualityPercent = map[Quality]int{
	QualityVeryHigh: 95,
	QualityHigh:     80,
	QualityMedium:   60,
}

// ParseResolution maps a form value onto a Resolution. Empty selects the default.
func ParseResolution(s string) (Resolution, error) {
	if s == "" {
		return DefaultPreset.Resolution, nil
	}
	r := Resolution(s)
	if _, ok := resolutionDPI[r]; !ok {
		return "", fmt.Errorf("unknown resolution %q", s)
	}
	return r, nil
}

// ParseQuality maps a form value onto a Quality. Empty selects the default.
func ParseQuality(s string) (Quality, error) {
	if s == "" {
		return DefaultPreset.Quality, nil
	}
	q := Quality(s)
	if _, ok := qualityPercent[q]; !ok {
		return "", fmt.Errorf("unknown quality %q", s)
	}
	return q, nil
}

// ParsePreset parses both halves of a preset.
func ParsePreset(resolution, quality string) (Preset, error) {
	r, err := ParseResolution(resolution)
	if err != nil {
		return Preset{}, err
	}
	q, err := ParseQuality(quality)
	if err != nil {
		return Preset{}, err
	}
	return Preset{Resolution: r, Quality: q}, nil
}

// DPI returns the target image resolution, or 0 when images keep their resolution.
func (p Preset) DPI() int {
	return resolutionDPI[p.Resolution]
}

// QualityPercent returns the JPEG quality in percent.
func (p Preset) QualityPercent() int {
	return qualityPercent[p.Quality]
}

func (p Preset) String() string {
	return string(p.Resolution) + "/" + string(p.Quality)
}

// qFactor converts a JPEG quality percentage into the distiller QFactor.
func qFactor(percent int) string {
	return strconv.FormatFloat(float64(100-percent)/50, 'f', 2, 64)
}

// Args builds the Ghostscript argument list for this preset. The output is
// fully determined by the preset and the two paths.
func (p Preset) Args(inputPath, outputPath string) []string {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + resolutionSettings[p.Resolution],
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
	}

	if dpi := p.DPI(); dpi > 0 {
		args = append(args,
			"-dDownsampleColorImages=true",
			"-dDownsampleGrayImages=true",
			"-dDownsampleMonoImages=true",
			"-dColorImageDownsampleType=/Bicubic",
			"-dGrayImageDownsampleType=/Bicubic",
			"-dMonoImageDownsampleType=/Subsample",
			fmt.Sprintf("-dColorImageResolution=%d", dpi),
			fmt.Sprintf("-dGrayImageResolution=%d", dpi),
			fmt.Sprintf("-dMonoImageResolution=%d", dpi),
		)
	} else {
		args = append(args,
			"-dDownsampleColorImages=false",
			"-dDownsampleGrayImages=false",
			"-dDownsampleMonoImages=false",
		)
	}

	q := qFactor(p.QualityPercent())
	distiller := fmt.Sprintf(
		"<< /ColorACSImageDict << /QFactor %[1]s /Blend 1 /HSamples [1 1 1 1] /VSamples [1 1 1 1] >> "+
			"/GrayACSImageDict << /QFactor %[1]s /Blend 1 /HSamples [1 1 1 1] /VSamples [1 1 1 1] >> "+
			">> setdistillerparams", q)

	args = append(args,
		"-sOutputFile="+outputPath,
		"-c", distiller,
		"-f", inputPath,
	)
	return args
}
