package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions()
	assert.Equal(t, "portrait", opts.PageOrientation)
	assert.Equal(t, "letter", opts.PageSize)
	assert.Equal(t, 72, opts.MarginTop)
	assert.Equal(t, 72, opts.MarginBottom)
}

func TestWrapHTMLForPDF(t *testing.T) {
	wrapped := WrapHTMLForPDF("<p>Demand for payment</p>")
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<p>Demand for payment</p>")
}

// Requires a Chrome binary; set CHROME_PATH to run locally.
func TestGeneratePDFSmoke(t *testing.T) {
	if os.Getenv("CHROME_PATH") == "" {
		t.Skip("CHROME_PATH not set")
	}

	pdf, err := GeneratePDF(WrapHTMLForPDF("<h1>First Demand</h1>"), DefaultPDFOptions())
	assert.NoError(t, err)
	assert.True(t, len(pdf) > 4)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
