package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRequest() *RecognizeRequest {
	return &RecognizeRequest{
		SessionID:      "session-1",
		Pages:          []PageRef{{FileID: "file-1"}},
		Languages:      []string{"eng"},
		ResultFileName: "report",
	}
}

func TestValidateAcceptsMinimalRequest(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecognizeRequest)
	}{
		{"missing session", func(r *RecognizeRequest) { r.SessionID = "" }},
		{"no pages", func(r *RecognizeRequest) { r.Pages = nil }},
		{"page without file", func(r *RecognizeRequest) { r.Pages[0].FileID = "" }},
		{"negative page index", func(r *RecognizeRequest) { r.Pages[0].PageIndex = -1 }},
		{"empty result name", func(r *RecognizeRequest) { r.ResultFileName = "" }},
		{"separator in result name", func(r *RecognizeRequest) { r.ResultFileName = "a/b" }},
		{"colon in result name", func(r *RecognizeRequest) { r.ResultFileName = "a:b" }},
		{"plus in result name", func(r *RecognizeRequest) { r.ResultFileName = "a+b" }},
		{"no languages", func(r *RecognizeRequest) { r.Languages = nil }},
		{"too many languages", func(r *RecognizeRequest) {
			r.Languages = []string{"eng", "deu", "fra", "ita", "spa", "por"}
		}},
		{"bad binarization", func(r *RecognizeRequest) { r.Binarization = "other" }},
		{"bad recognition mode", func(r *RecognizeRequest) { r.RecognitionMode = "turbo" }},
		{"bad result format", func(r *RecognizeRequest) { r.ResultFormat = "docx" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate()
			assert.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestFiveLanguagesAllowed(t *testing.T) {
	req := validRequest()
	req.Languages = []string{"eng", "deu", "fra", "ita", "spa"}
	assert.NoError(t, req.Validate())
}

func TestNormalizeFillsDefaults(t *testing.T) {
	req := validRequest()
	req.Normalize()

	assert.Equal(t, BinarizationAdaptive, req.Binarization)
	assert.Equal(t, RecognitionQuality, req.RecognitionMode)
	assert.Equal(t, FormatText, req.ResultFormat)
	assert.Equal(t, RegionTypeText, req.RegionType)
}

func TestTextRegionsFiltersOtherKinds(t *testing.T) {
	page := PageRef{
		FileID: "file-1",
		Regions: []Region{
			{X: 0, Y: 0, Width: 10, Height: 10, Type: RegionTypeText},
			{X: 5, Y: 5, Width: 10, Height: 10, Type: "Barcode"},
			{X: 7, Y: 7, Width: 10, Height: 10, Type: RegionTypeText},
		},
	}

	regions := page.TextRegions(RegionTypeText)
	assert.Len(t, regions, 2)
	for _, region := range regions {
		assert.Equal(t, RegionTypeText, region.Type)
	}
}

func TestUntypedRegionsTakeRequestDefault(t *testing.T) {
	page := PageRef{
		FileID: "file-1",
		Regions: []Region{
			{X: 0, Y: 0, Width: 10, Height: 10},
			{X: 5, Y: 5, Width: 10, Height: 10, Type: "Barcode"},
		},
	}

	assert.Len(t, page.TextRegions(RegionTypeText), 1)
	assert.Empty(t, page.TextRegions("Barcode"))
}

func TestIsTextFormat(t *testing.T) {
	assert.True(t, FormatText.IsText())
	assert.True(t, FormatFormattedText.IsText())
	assert.False(t, FormatPDF.IsText())
}
