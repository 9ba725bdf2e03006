package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/analysis"
	"github.com/CivicLens/BillboardGuard/internal/pkg/classifier"
	"github.com/CivicLens/BillboardGuard/internal/pkg/geofence"
	"github.com/CivicLens/BillboardGuard/internal/pkg/reportstatus"
)

// ClassifierClient is the slice of the classifier adapter the processor
// needs; tests substitute a fake.
type ClassifierClient interface {
	Analyze(ctx context.Context, imageURL string, loc classifier.Location) (*classifier.Result, error)
}

// statusMirror pushes report status changes into the poll cache.
type statusMirror func(reportUUID, status string) error

// ReportProcessor drives a single report through its analysis lifecycle:
// pending -> analyzing -> completed|failed. It is the only writer of report
// state; the guarded transitions in the repository enforce that a terminal
// report is never touched again.
type ReportProcessor struct {
	repos      *repository.Repositories
	classifier ClassifierClient
	mirror     statusMirror
}

// NewReportProcessor creates a processor bound to the given repositories
// and classifier client.
func NewReportProcessor(repos *repository.Repositories, classifierClient ClassifierClient) *ReportProcessor {
	return &ReportProcessor{
		repos:      repos,
		classifier: classifierClient,
		mirror:     reportstatus.Set,
	}
}

type classifierOutcome struct {
	result *classifier.Result
	err    error
}

type geofenceOutcome struct {
	findings []analysis.Finding
	err      error
}

// Process runs one analysis attempt for the job's report. A returned error
// makes the queue retry with backoff until the budget is exhausted, after
// which HandlePermanentFailure marks the report failed. Terminal and
// already-claimed reports are skipped without error so redelivered jobs
// stay idempotent.
func (p *ReportProcessor) Process(ctx context.Context, job *Job) error {
	payload, err := ReportAnalysisJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse report analysis payload: %w", err)
	}

	report, err := p.repos.Report.GetByID(payload.ReportID)
	if err != nil {
		return fmt.Errorf("failed to load report %d: %w", payload.ReportID, err)
	}

	if report.IsTerminal() {
		log.Infof("[Analysis] Report %s already %s, skipping", report.UUID, report.Status)
		return nil
	}

	// Persist analyzing before any external call so a poller never sees a
	// stale pending while work is underway.
	claimed, err := p.repos.Report.MarkAnalyzing(report.ID)
	if err != nil {
		return fmt.Errorf("failed to mark report %s analyzing: %w", report.UUID, err)
	}
	if !claimed {
		log.Infof("[Analysis] Report %s no longer claimable, skipping", report.UUID)
		return nil
	}
	p.mirrorStatus(report.UUID, models.ReportStatusAnalyzing)

	// The classifier call and the geofence evaluation are independent; run
	// them concurrently and wait for both before aggregation.
	classifierCh := make(chan classifierOutcome, 1)
	geofenceCh := make(chan geofenceOutcome, 1)

	go func() {
		result, err := p.classifier.Analyze(ctx, payload.ImageURL, classifier.Location{
			Lat:     payload.Latitude,
			Lng:     payload.Longitude,
			Address: payload.Address,
		})
		classifierCh <- classifierOutcome{result: result, err: err}
	}()

	go func() {
		zones, err := p.repos.Zone.GetAll()
		if err != nil {
			geofenceCh <- geofenceOutcome{err: err}
			return
		}
		geofenceCh <- geofenceOutcome{findings: geofence.Evaluate(payload.Latitude, payload.Longitude, zones)}
	}()

	classifierRes := <-classifierCh
	geofenceRes := <-geofenceCh

	if classifierRes.err != nil {
		return fmt.Errorf("classifier call for report %s: %w", report.UUID, classifierRes.err)
	}
	// A zone registry outage must not be silently reported as compliant; it
	// fails the attempt and, past the retry budget, the report.
	if geofenceRes.err != nil {
		return fmt.Errorf("zone registry read for report %s: %w", report.UUID, geofenceRes.err)
	}

	if classifierRes.result.Degraded {
		log.Warnf("[Analysis] Classifier answer for report %s degraded to a single flag", report.UUID)
	}

	merged := analysis.Merge(classifierRes.result.Findings, geofenceRes.findings)
	verdict := analysis.Verdict(merged)
	records := analysis.Records(report.ID, merged)

	if err := p.repos.Report.CompleteWithViolations(report, verdict, records); err != nil {
		return fmt.Errorf("failed to complete report %s: %w", report.UUID, err)
	}
	p.mirrorStatus(report.UUID, models.ReportStatusCompleted)

	log.Infof("[Analysis] Report %s completed: verdict=%s violations=%d", report.UUID, verdict, len(records))
	return nil
}

// HandlePermanentFailure marks the report failed once the retry budget is
// exhausted. The job's last error becomes the operator-visible reason; no
// violations are persisted.
func (p *ReportProcessor) HandlePermanentFailure(ctx context.Context, job *Job) {
	payload, err := ReportAnalysisJobPayloadFromMap(job.Payload)
	if err != nil {
		log.Errorf("[Analysis] Cannot parse payload of permanently failed job %s: %v", job.ID, err)
		return
	}

	reason := job.ErrorMsg
	if reason == "" {
		reason = "analysis failed"
	}

	if err := p.repos.Report.MarkFailed(payload.ReportID, reason); err != nil {
		log.Errorf("[Analysis] Failed to mark report %s failed: %v", payload.ReportUUID, err)
		return
	}
	p.mirrorStatus(payload.ReportUUID, models.ReportStatusFailed)

	log.Warnf("[Analysis] Report %s marked failed: %s", payload.ReportUUID, reason)
}

// FailStaleReports force-fails reports stuck in analyzing longer than the
// deadline and pushes the failed status into the poll cache, so a poller
// observes the terminal state as soon as the reconciler does.
func (p *ReportProcessor) FailStaleReports(deadline time.Duration) (int, error) {
	uuids, err := p.repos.Report.FailStaleAnalyzing(deadline, "analysis deadline exceeded")
	if err != nil {
		return 0, err
	}
	for _, reportUUID := range uuids {
		p.mirrorStatus(reportUUID, models.ReportStatusFailed)
	}
	return len(uuids), nil
}

func (p *ReportProcessor) mirrorStatus(reportUUID, status string) {
	if p.mirror == nil {
		return
	}
	if err := p.mirror(reportUUID, status); err != nil {
		log.Warnf("[Analysis] Failed to mirror status %s for report %s: %v", status, reportUUID, err)
	}
}
