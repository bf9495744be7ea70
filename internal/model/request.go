package model

import (
	"strings"
)

// MaxLanguages is the upper bound on recognition languages per request.
const MaxLanguages = 5

// BinarizationMode selects the black-white conversion applied to page images
// before recognition.
type BinarizationMode string

const (
	BinarizationNone     BinarizationMode = "none"
	BinarizationGlobal   BinarizationMode = "global"
	BinarizationAdaptive BinarizationMode = "adaptive"
)

// RecognitionMode trades recognition quality against speed.
type RecognitionMode string

const (
	RecognitionQuality RecognitionMode = "quality"
	RecognitionSpeed   RecognitionMode = "speed"
)

// ResultFormat selects the serialization of the recognition result.
type ResultFormat string

const (
	FormatText          ResultFormat = "text"
	FormatFormattedText ResultFormat = "formattedText"
	FormatPDF           ResultFormat = "pdf"
)

// IsText reports whether the format produces a plain-text artifact.
func (f ResultFormat) IsText() bool {
	return f == FormatText || f == FormatFormattedText
}

// RegionTypeText marks a region hint that carries text. Regions of any other
// type are dropped before the engine call.
const RegionTypeText = "Text"

// Region is a rectangular recognition hint in page pixel coordinates.
type Region struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
}

// PageRef identifies one page of the recognition request: an uploaded file,
// the page index inside that file, and optional region hints.
type PageRef struct {
	FileID    string   `json:"fileId"`
	PageIndex int      `json:"pageIndex"`
	Regions   []Region `json:"regions,omitempty"`
}

// RecognizeRequest carries the parameters of a text recognition submission.
type RecognizeRequest struct {
	SessionID       string           `json:"sessionId"`
	Pages           []PageRef        `json:"pages"`
	Languages       []string         `json:"languages"`
	Binarization    BinarizationMode `json:"binarization"`
	RecognitionMode RecognitionMode  `json:"recognitionMode"`
	RegionType      string           `json:"regionType"`
	ResultFormat    ResultFormat     `json:"resultFormat"`
	ResultFileName  string           `json:"resultFileName"`
}

// Characters that are never allowed in a result file name: the set rejected
// by common filesystems plus the set filtered by default web server
// configurations.
const invalidFileNameChars = `<>:"/\|?*` + "\x00"
const filteredFileNameChars = `+`

// Validate checks the request synchronously, before any job is admitted.
func (r *RecognizeRequest) Validate() error {
	if r.SessionID == "" {
		return NewValidationError("the session identifier is required")
	}
	if len(r.Pages) == 0 {
		return NewValidationError("the page list cannot be empty")
	}
	for i, page := range r.Pages {
		if page.FileID == "" {
			return NewValidationError("page %d does not reference an uploaded file", i)
		}
		if page.PageIndex < 0 {
			return NewValidationError("page %d has a negative page index", i)
		}
	}
	if r.ResultFileName == "" {
		return NewValidationError("the result file name cannot be empty")
	}
	if strings.ContainsAny(r.ResultFileName, invalidFileNameChars) {
		return NewValidationError(
			"the result file name contains characters that are not allowed in a file name: %q", invalidFileNameChars)
	}
	if strings.ContainsAny(r.ResultFileName, filteredFileNameChars) {
		return NewValidationError(
			"the result file name contains characters that are filtered by the server: %q", filteredFileNameChars)
	}
	if len(r.Languages) == 0 {
		return NewValidationError("the recognition languages are not specified")
	}
	if len(r.Languages) > MaxLanguages {
		return NewValidationError(
			"you are trying to use %d recognition languages, the maximum is %d", len(r.Languages), MaxLanguages)
	}
	switch r.Binarization {
	case "", BinarizationNone, BinarizationGlobal, BinarizationAdaptive:
	default:
		return NewValidationError("invalid binarization mode: %s", r.Binarization)
	}
	switch r.RecognitionMode {
	case "", RecognitionQuality, RecognitionSpeed:
	default:
		return NewValidationError("invalid recognition mode: %s", r.RecognitionMode)
	}
	switch r.ResultFormat {
	case "", FormatText, FormatFormattedText, FormatPDF:
	default:
		return NewValidationError("invalid result format: %s", r.ResultFormat)
	}
	return nil
}

// Normalize fills in the defaults the reference clients rely on.
func (r *RecognizeRequest) Normalize() {
	if r.Binarization == "" {
		r.Binarization = BinarizationAdaptive
	}
	if r.RecognitionMode == "" {
		r.RecognitionMode = RecognitionQuality
	}
	if r.ResultFormat == "" {
		r.ResultFormat = FormatText
	}
	if r.RegionType == "" {
		r.RegionType = RegionTypeText
	}
}

// TextRegions returns only the region hints typed as text, the single region
// kind forwarded to the engine. A region without a type takes defaultType,
// the request-level regionType after normalization.
func (p PageRef) TextRegions(defaultType string) []Region {
	var regions []Region
	for _, region := range p.Regions {
		kind := region.Type
		if kind == "" {
			kind = defaultType
		}
		if kind == RegionTypeText {
			regions = append(regions, region)
		}
	}
	return regions
}
