package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		ok   bool
	}{
		{"pending to analyzing", ReportStatusPending, ReportStatusAnalyzing, true},
		{"pending to completed skips analyzing", ReportStatusPending, ReportStatusCompleted, false},
		{"analyzing to completed", ReportStatusAnalyzing, ReportStatusCompleted, true},
		{"analyzing to failed", ReportStatusAnalyzing, ReportStatusFailed, true},
		{"analyzing back to pending", ReportStatusAnalyzing, ReportStatusPending, false},
		{"completed is terminal", ReportStatusCompleted, ReportStatusAnalyzing, false},
		{"failed is terminal", ReportStatusFailed, ReportStatusAnalyzing, false},
		{"failed never completes", ReportStatusFailed, ReportStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Status: tt.from}
			assert.Equal(t, tt.ok, r.CanTransition(tt.to))
		})
	}
}

func TestReportIsTerminal(t *testing.T) {
	assert.False(t, (&Report{Status: ReportStatusPending}).IsTerminal())
	assert.False(t, (&Report{Status: ReportStatusAnalyzing}).IsTerminal())
	assert.True(t, (&Report{Status: ReportStatusCompleted}).IsTerminal())
	assert.True(t, (&Report{Status: ReportStatusFailed}).IsTerminal())
}
