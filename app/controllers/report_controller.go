package controllers

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/blobstore"
	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
	"github.com/CivicLens/BillboardGuard/internal/pkg/imagemeta"
	"github.com/CivicLens/BillboardGuard/internal/pkg/jobqueue"
	"github.com/CivicLens/BillboardGuard/internal/pkg/reportstatus"
	"github.com/CivicLens/BillboardGuard/internal/pkg/upload"
	"github.com/CivicLens/BillboardGuard/internal/pkg/usercontext"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultPageSize       = 20
	maxPageSize           = 100
)

var (
	reportUploader blobstore.Uploader
	uploaderConfig *blobstore.Config

	// Seams for tests; production wiring happens in SetupReportPipeline.
	enqueueAnalysis = func(payload jobqueue.ReportAnalysisJobPayload) error {
		_, err := jobqueue.GetManager().EnqueueReportAnalysis(payload)
		return err
	}
	resolveStatus = reportstatus.Resolve
	mirrorStatus  = reportstatus.Set
)

// SetupReportPipeline wires the submission handler to the blob store.
// Must be called once at startup before the router is installed.
func SetupReportPipeline(uploader blobstore.Uploader, cfg *blobstore.Config) {
	reportUploader = uploader
	uploaderConfig = cfg
}

func maxUploadBytes() int64 {
	if v := env.GetEnv("UPLOAD_MAX_BYTES", ""); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultMaxUploadBytes
}

// HandleSubmitReport accepts a billboard photo plus its location and creates
// a pending compliance report. The analysis itself runs asynchronously; the
// response carries the report UUID the client polls with.
//
// Request: multipart/form-data with "image" file and latitude / longitude /
// address fields. Coordinates missing from the form are recovered from the
// photo's EXIF data when present.
func HandleSubmitReport(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	if reportUploader == nil || uploaderConfig == nil {
		fiberlog.Error("[Report] Submission received before blob store wiring")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage not configured"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file missing"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is empty"})
	}
	if limit := maxUploadBytes(); fileHeader.Size > limit {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("image exceeds %d bytes", limit),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read image file"})
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read image file"})
	}

	detectedMime, err := upload.ValidateImageBySniff(fileHeader.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
	}
	if err := upload.VerifyDecodable(detectedMime, data); err != nil {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "image file is corrupt"})
	}

	lat, lng, err := resolveCoordinates(c, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	address := strings.TrimSpace(c.FormValue("address"))

	reportUUID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := uploaderConfig.ObjectKey(user.UserID, reportUUID, ext)

	imageURL, err := reportUploader.Upload(c.Context(), key, detectedMime, data)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Report] Blob upload failed: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store image"})
	}

	report := &models.Report{
		UUID:      reportUUID,
		UserID:    user.UserID,
		ImageURL:  imageURL,
		Latitude:  lat,
		Longitude: lng,
		Address:   address,
		Status:    models.ReportStatusPending,
	}

	repos := repository.GetGlobalRepositories()
	if err := repos.Report.Create(report); err != nil {
		fiberlog.Error(fmt.Sprintf("[Report] Failed to create report: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create report"})
	}
	if err := mirrorStatus(report.UUID, models.ReportStatusPending); err != nil {
		fiberlog.Warn(fmt.Sprintf("[Report] Failed to mirror pending status for %s: %v", report.UUID, err))
	}

	payload := jobqueue.ReportAnalysisJobPayload{
		ReportID:   report.ID,
		ReportUUID: report.UUID,
		ImageURL:   report.ImageURL,
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		Address:    report.Address,
	}
	if err := enqueueAnalysis(payload); err != nil {
		// A report that can never reach a worker must not sit pending forever.
		fiberlog.Error(fmt.Sprintf("[Report] Failed to enqueue analysis for %s: %v", report.UUID, err))
		if markErr := repos.Report.MarkFailed(report.ID, "failed to queue analysis"); markErr != nil {
			fiberlog.Error(fmt.Sprintf("[Report] Failed to mark %s failed: %v", report.UUID, markErr))
		} else if mirrorErr := mirrorStatus(report.UUID, models.ReportStatusFailed); mirrorErr != nil {
			fiberlog.Warn(fmt.Sprintf("[Report] Failed to mirror failed status for %s: %v", report.UUID, mirrorErr))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to queue analysis"})
	}

	fiberlog.Info(fmt.Sprintf("[Report] Report %s submitted by user %d", report.UUID, user.UserID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"report_id": report.UUID,
		"status":    report.Status,
		"image_url": report.ImageURL,
	})
}

// resolveCoordinates prefers explicit form coordinates and falls back to the
// photo's EXIF GPS tags when both fields are absent.
func resolveCoordinates(c *fiber.Ctx, imageData []byte) (float64, float64, error) {
	latStr := strings.TrimSpace(c.FormValue("latitude"))
	lngStr := strings.TrimSpace(c.FormValue("longitude"))

	if latStr == "" && lngStr == "" {
		if lat, lng, ok := imagemeta.ExtractGPS(imageData); ok {
			return lat, lng, nil
		}
		return 0, 0, fmt.Errorf("latitude and longitude required (no GPS data in image)")
	}
	if latStr == "" || lngStr == "" {
		return 0, 0, fmt.Errorf("latitude and longitude must both be provided")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude")
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("latitude out of range")
	}
	if lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("longitude out of range")
	}
	return lat, lng, nil
}

// HandleGetReport returns one report with its outcome. Violations are only
// included once analysis has completed; the owner and admins may read it.
func HandleGetReport(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	reportUUID := c.Params("uuid")
	if reportUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "report id missing"})
	}

	report, err := repository.GetGlobalRepositories().Report.GetByUUIDWithViolations(reportUUID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not found"})
	}
	if report.UserID != user.UserID && !user.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	return c.JSON(reportJSON(report))
}

// HandleGetReportStatus is the cheap poll endpoint. It answers from the
// cache mirror and only touches the database on a miss. The report UUID
// acts as the access capability, matching the submission response.
func HandleGetReportStatus(c *fiber.Ctx) error {
	reportUUID := c.Params("uuid")
	if reportUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "report id missing"})
	}

	status, err := resolveStatus(reportUUID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not found"})
	}

	return c.JSON(fiber.Map{
		"report_id": reportUUID,
		"status":    status,
		"terminal":  reportstatus.IsTerminal(status),
	})
}

// HandleListUserReports returns the caller's reports, newest first, with
// offset/limit paging.
func HandleListUserReports(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repos := repository.GetGlobalRepositories()
	reports, err := repos.Report.GetByUserID(user.UserID, offset, limit)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Report] Failed to list reports for user %d: %v", user.UserID, err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reports"})
	}
	total, err := repos.Report.CountByUserID(user.UserID)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Report] Failed to count reports for user %d: %v", user.UserID, err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list reports"})
	}

	items := make([]fiber.Map, 0, len(reports))
	for i := range reports {
		items = append(items, reportJSON(&reports[i]))
	}

	return c.JSON(fiber.Map{
		"reports": items,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

// HandleListZones exposes the restricted zone registry.
func HandleListZones(c *fiber.Ctx) error {
	zones, err := repository.GetGlobalRepositories().Zone.GetAll()
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Report] Failed to list zones: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list zones"})
	}

	items := make([]fiber.Map, 0, len(zones))
	for _, zone := range zones {
		items = append(items, fiber.Map{
			"name":          zone.Name,
			"type":          zone.Type,
			"latitude":      zone.Latitude,
			"longitude":     zone.Longitude,
			"radius_meters": zone.RadiusMeters,
		})
	}
	return c.JSON(fiber.Map{"zones": items})
}

// HandlePing is the liveness check.
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now().Unix()})
}

// reportJSON shapes a report for API responses. Violations appear only on
// completed reports so clients never treat partial results as final.
func reportJSON(report *models.Report) fiber.Map {
	out := fiber.Map{
		"report_id":  report.UUID,
		"status":     report.Status,
		"image_url":  report.ImageURL,
		"latitude":   report.Latitude,
		"longitude":  report.Longitude,
		"address":    report.Address,
		"created_at": report.CreatedAt,
		"updated_at": report.UpdatedAt,
	}

	switch report.Status {
	case models.ReportStatusCompleted:
		out["verdict"] = report.Verdict
		out["analyzed_at"] = report.AnalyzedAt
		violations := make([]fiber.Map, 0, len(report.Violations))
		for _, v := range report.Violations {
			violations = append(violations, fiber.Map{
				"type":        v.Type,
				"severity":    v.Severity,
				"description": v.Description,
				"confidence":  v.Confidence,
			})
		}
		out["violations"] = violations
	case models.ReportStatusFailed:
		out["failure_reason"] = report.FailureReason
		out["failed_at"] = report.FailedAt
	}
	return out
}
