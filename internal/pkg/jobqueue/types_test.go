package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJobTypes tests the job type constants
func TestJobTypes(t *testing.T) {
	assert.Equal(t, "report_analysis", string(JobTypeReportAnalysis))
}

// TestJobStatus tests the job status constants
func TestJobStatus(t *testing.T) {
	assert.Equal(t, "pending", string(JobStatusPending))
	assert.Equal(t, "processing", string(JobStatusProcessing))
	assert.Equal(t, "completed", string(JobStatusCompleted))
	assert.Equal(t, "failed", string(JobStatusFailed))
	assert.Equal(t, "retrying", string(JobStatusRetrying))
}

// TestJob_BasicMethods tests basic job methods
func TestJob_BasicMethods(t *testing.T) {
	job := &Job{
		Status:     JobStatusFailed,
		RetryCount: 1,
		MaxRetries: 3,
	}

	// Test IsRetryable
	assert.True(t, job.IsRetryable())

	job.RetryCount = 3
	assert.False(t, job.IsRetryable())

	// Test status transitions
	beforeTime := time.Now()

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)
	assert.True(t, job.UpdatedAt.After(beforeTime))

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)

	job.MarkAsFailed("test error")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "test error", job.ErrorMsg)
	assert.Equal(t, 4, job.RetryCount)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)
}

// TestReportAnalysisJobPayload_Serialization tests payload serialization
func TestReportAnalysisJobPayload_Serialization(t *testing.T) {
	payload := ReportAnalysisJobPayload{
		ReportID:   42,
		ReportUUID: "test-uuid",
		ImageURL:   "https://blob/reports/1/123-abc.jpg",
		Latitude:   28.6304,
		Longitude:  77.2177,
		Address:    "Connaught Place, New Delhi",
	}

	data := payload.ToMap()
	expected := map[string]interface{}{
		"report_id":   uint(42),
		"report_uuid": "test-uuid",
		"image_url":   "https://blob/reports/1/123-abc.jpg",
		"latitude":    28.6304,
		"longitude":   77.2177,
		"address":     "Connaught Place, New Delhi",
	}
	assert.Equal(t, expected, data)

	result, err := ReportAnalysisJobPayloadFromMap(data)
	require.NoError(t, err)
	assert.Equal(t, &payload, result)
}

func TestRetryBackoffGrows(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryBackoff(1))
	assert.Equal(t, 60*time.Second, retryBackoff(2))
	assert.Equal(t, 90*time.Second, retryBackoff(3))
}
