package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/pipeline"
)

func TestPrintFrameworkOptions(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintFrameworkOptions([]content.FrameworkOption{
		{Name: "ADDIE", Rationale: "structured and auditable", FitScore: 0.9},
		{Name: "70-20-10", Rationale: "experiential", FitScore: 0.7},
	}, "ADDIE")

	out := buf.String()
	assert.Contains(t, out, "FRAMEWORK OPTIONS")
	assert.Contains(t, out, "* ADDIE")
	assert.Contains(t, out, "70-20-10")
}

func TestPrintFrameworkOptions_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFrameworkOptions(nil, "")
	assert.Empty(t, buf.String())
}

func TestPrintMatrix_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	matrix := &content.Matrix{}
	for i := 0; i < 8; i++ {
		matrix.Units = append(matrix.Units, content.Topic{
			Topic: "Unit topic", AudienceLevel: "beginner",
		})
	}
	printer.PrintMatrix(matrix)

	out := buf.String()
	assert.Contains(t, out, "Total units planned: 8")
	assert.Contains(t, out, "... and 3 more")
}

func TestPrintBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintBatchSummary(&pipeline.BatchResult{
		Generated: 2,
		Failed:    1,
		Units: []pipeline.UnitResult{
			{Topic: content.Topic{Topic: "Handling returns"}, Score: 85},
			{Topic: content.Topic{Topic: "Store safety"}, Score: 78},
			{Topic: content.Topic{Topic: "Escalations"}, Score: 50, Failed: true},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "BATCH SUMMARY")
	assert.Contains(t, out, "Generated: 2")
	assert.Contains(t, out, "degraded")
}
