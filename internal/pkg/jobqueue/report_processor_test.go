package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/analysis"
	"github.com/CivicLens/BillboardGuard/internal/pkg/classifier"
)

// fakeReportRepo is an in-memory ReportRepository for a single report.
type fakeReportRepo struct {
	report      *models.Report
	violations  []models.Violation
	completeErr error
	staleUUIDs  []string
	staleErr    error
}

func (f *fakeReportRepo) Create(report *models.Report) error { f.report = report; return nil }

func (f *fakeReportRepo) GetByID(id uint) (*models.Report, error) {
	if f.report == nil || f.report.ID != id {
		return nil, errors.New("record not found")
	}
	r := *f.report
	return &r, nil
}

func (f *fakeReportRepo) GetByUUID(uuid string) (*models.Report, error) {
	if f.report == nil || f.report.UUID != uuid {
		return nil, errors.New("record not found")
	}
	r := *f.report
	return &r, nil
}

func (f *fakeReportRepo) GetByUUIDWithViolations(uuid string) (*models.Report, error) {
	return f.GetByUUID(uuid)
}

func (f *fakeReportRepo) GetByUserID(userID uint, offset, limit int) ([]models.Report, error) {
	return nil, nil
}

func (f *fakeReportRepo) CountByUserID(userID uint) (int64, error) { return 0, nil }

func (f *fakeReportRepo) MarkAnalyzing(id uint) (bool, error) {
	if f.report == nil || f.report.ID != id || f.report.IsTerminal() {
		return false, nil
	}
	f.report.Status = models.ReportStatusAnalyzing
	return true, nil
}

func (f *fakeReportRepo) CompleteWithViolations(report *models.Report, verdict string, violations []models.Violation) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	if f.report.Status != models.ReportStatusAnalyzing {
		return errors.New("report not in analyzing")
	}
	f.violations = violations
	f.report.Status = models.ReportStatusCompleted
	f.report.Verdict = verdict
	report.Status = models.ReportStatusCompleted
	report.Verdict = verdict
	return nil
}

func (f *fakeReportRepo) MarkFailed(id uint, reason string) error {
	if f.report == nil || f.report.ID != id || f.report.IsTerminal() {
		return nil
	}
	f.report.Status = models.ReportStatusFailed
	f.report.FailureReason = reason
	now := time.Now()
	f.report.FailedAt = &now
	return nil
}

func (f *fakeReportRepo) FailStaleAnalyzing(olderThan time.Duration, reason string) ([]string, error) {
	return f.staleUUIDs, f.staleErr
}

// fakeZoneRepo serves a static zone registry or an error.
type fakeZoneRepo struct {
	zones []models.RestrictedZone
	err   error
}

func (f *fakeZoneRepo) GetAll() ([]models.RestrictedZone, error) { return f.zones, f.err }
func (f *fakeZoneRepo) Count() (int64, error)                    { return int64(len(f.zones)), f.err }
func (f *fakeZoneRepo) Create(zone *models.RestrictedZone) error { return errors.New("read-only") }

// fakeClassifier returns a canned result or error and records calls.
type fakeClassifier struct {
	result *classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Analyze(ctx context.Context, imageURL string, loc classifier.Location) (*classifier.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestProcessor(reportRepo *fakeReportRepo, zoneRepo *fakeZoneRepo, cls *fakeClassifier) (*ReportProcessor, *[]string) {
	repos := &repository.Repositories{
		Report: reportRepo,
		Zone:   zoneRepo,
	}
	p := NewReportProcessor(repos, cls)

	var mirrored []string
	p.mirror = func(reportUUID, status string) error {
		mirrored = append(mirrored, status)
		return nil
	}
	return p, &mirrored
}

func pendingReport() *models.Report {
	return &models.Report{
		ID:        1,
		UUID:      "report-uuid-1",
		UserID:    7,
		ImageURL:  "https://blob/reports/7/123-abc.jpg",
		Latitude:  28.6304,
		Longitude: 77.2177,
		Address:   "Connaught Place",
		Status:    models.ReportStatusPending,
	}
}

func analysisJob(r *models.Report) *Job {
	payload := ReportAnalysisJobPayload{
		ReportID:   r.ID,
		ReportUUID: r.UUID,
		ImageURL:   r.ImageURL,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Address:    r.Address,
	}
	return &Job{
		ID:         "job-1",
		Type:       JobTypeReportAnalysis,
		Status:     JobStatusPending,
		Payload:    payload.ToMap(),
		MaxRetries: DefaultMaxRetries,
	}
}

func TestProcessCompletesNonCompliantReport(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	zoneRepo := &fakeZoneRepo{zones: []models.RestrictedZone{
		{Name: "Delhi Public School", Type: "school", Latitude: 28.6310, Longitude: 77.2180, RadiusMeters: 100},
	}}
	cls := &fakeClassifier{result: &classifier.Result{Findings: []analysis.Finding{
		{Type: models.ViolationTypeSize, Severity: models.SeverityMedium, Description: "exceeds 12x20 ft", Confidence: 94},
		{Type: models.ViolationTypeContent, Severity: models.SeverityLow, Description: "misleading", Confidence: 80},
	}}}

	p, mirrored := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusCompleted, reportRepo.report.Status)
	assert.Equal(t, models.VerdictNonCompliant, reportRepo.report.Verdict)
	require.Len(t, reportRepo.violations, 3)
	// Classifier findings first, geofence findings appended.
	assert.Equal(t, models.ViolationTypeSize, reportRepo.violations[0].Type)
	assert.Equal(t, models.ViolationTypeContent, reportRepo.violations[1].Type)
	assert.Equal(t, models.ViolationTypeLocation, reportRepo.violations[2].Type)
	assert.Equal(t, 95, reportRepo.violations[2].Confidence)

	assert.Equal(t, []string{models.ReportStatusAnalyzing, models.ReportStatusCompleted}, *mirrored)
}

func TestProcessCompletesCompliantReport(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{result: &classifier.Result{}}

	p, _ := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusCompleted, reportRepo.report.Status)
	assert.Equal(t, models.VerdictCompliant, reportRepo.report.Verdict)
	assert.Empty(t, reportRepo.violations)
}

func TestProcessDegradedClassifierStillCompletes(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{result: &classifier.Result{
		Findings: []analysis.Finding{{
			Type:        models.ViolationTypeStructural,
			Severity:    models.SeverityMedium,
			Description: "The billboard appears to...",
			Confidence:  models.DefaultConfidence,
		}},
		Degraded: true,
	}}

	p, _ := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusCompleted, reportRepo.report.Status)
	require.Len(t, reportRepo.violations, 1)
	assert.Equal(t, models.ViolationTypeStructural, reportRepo.violations[0].Type)
	assert.Equal(t, models.SeverityMedium, reportRepo.violations[0].Severity)
	assert.Equal(t, models.DefaultConfidence, reportRepo.violations[0].Confidence)
}

func TestProcessClassifierUnavailableFailsAttempt(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{err: classifier.ErrUnavailable}

	p, mirrored := newTestProcessor(reportRepo, zoneRepo, cls)
	job := analysisJob(reportRepo.report)
	err := p.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, classifier.ErrUnavailable))

	// Attempt failed but the report is not terminal yet; the queue decides
	// whether to retry.
	assert.Equal(t, models.ReportStatusAnalyzing, reportRepo.report.Status)
	assert.Empty(t, reportRepo.violations)
	assert.Equal(t, []string{models.ReportStatusAnalyzing}, *mirrored)
}

func TestHandlePermanentFailureMarksReportFailed(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	reportRepo.report.Status = models.ReportStatusAnalyzing
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{err: classifier.ErrUnavailable}

	p, mirrored := newTestProcessor(reportRepo, zoneRepo, cls)
	job := analysisJob(reportRepo.report)
	job.MarkAsFailed("classifier unavailable: timeout")
	job.RetryCount = DefaultMaxRetries

	p.HandlePermanentFailure(context.Background(), job)

	assert.Equal(t, models.ReportStatusFailed, reportRepo.report.Status)
	assert.Equal(t, "classifier unavailable: timeout", reportRepo.report.FailureReason)
	assert.NotNil(t, reportRepo.report.FailedAt)
	assert.Empty(t, reportRepo.violations)
	assert.Equal(t, []string{models.ReportStatusFailed}, *mirrored)
}

func TestProcessZoneRegistryFailureFailsAttempt(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	zoneRepo := &fakeZoneRepo{err: errors.New("connection refused")}
	cls := &fakeClassifier{result: &classifier.Result{}}

	p, _ := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone registry read")
	assert.Empty(t, reportRepo.violations)
}

func TestProcessSkipsTerminalReport(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	reportRepo.report.Status = models.ReportStatusCompleted
	reportRepo.report.Verdict = models.VerdictCompliant
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{result: &classifier.Result{}}

	p, mirrored := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.NoError(t, err)

	// Terminal state untouched, classifier never invoked, nothing mirrored.
	assert.Equal(t, models.ReportStatusCompleted, reportRepo.report.Status)
	assert.Equal(t, 0, cls.calls)
	assert.Empty(t, *mirrored)
}

func TestProcessRetriedAttemptReclaimsAnalyzingReport(t *testing.T) {
	reportRepo := &fakeReportRepo{report: pendingReport()}
	reportRepo.report.Status = models.ReportStatusAnalyzing
	zoneRepo := &fakeZoneRepo{}
	cls := &fakeClassifier{result: &classifier.Result{}}

	p, _ := newTestProcessor(reportRepo, zoneRepo, cls)
	err := p.Process(context.Background(), analysisJob(reportRepo.report))
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, reportRepo.report.Status)
}

func TestFailStaleReportsMirrorsFailedStatus(t *testing.T) {
	reportRepo := &fakeReportRepo{staleUUIDs: []string{"report-uuid-1", "report-uuid-2"}}
	p, _ := newTestProcessor(reportRepo, &fakeZoneRepo{}, &fakeClassifier{})

	var mirrored [][2]string
	p.mirror = func(reportUUID, status string) error {
		mirrored = append(mirrored, [2]string{reportUUID, status})
		return nil
	}

	count, err := p.FailStaleReports(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// A poller must see failed from the cache right away, not a stale
	// analyzing until the mirror key expires.
	require.Len(t, mirrored, 2)
	assert.Equal(t, [2]string{"report-uuid-1", models.ReportStatusFailed}, mirrored[0])
	assert.Equal(t, [2]string{"report-uuid-2", models.ReportStatusFailed}, mirrored[1])
}

func TestFailStaleReportsRegistryError(t *testing.T) {
	reportRepo := &fakeReportRepo{staleErr: errors.New("connection refused")}
	p, mirrored := newTestProcessor(reportRepo, &fakeZoneRepo{}, &fakeClassifier{})

	count, err := p.FailStaleReports(10 * time.Minute)
	require.Error(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, *mirrored)
}
