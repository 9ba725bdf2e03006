package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/jobqueue"
)

var adminQueue = func() *jobqueue.Queue {
	return jobqueue.GetManager().GetQueue()
}

// HandleAdminQueueStats reports the analysis queue's depth and per-status
// job counters for operators.
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := adminQueue()
	ctx := c.Context()

	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Admin] Failed to read job stats: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read queue stats"})
	}
	queued, err := queue.GetQueueSize(ctx)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Admin] Failed to read queue size: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read queue stats"})
	}
	processing, err := queue.GetProcessingSize(ctx)
	if err != nil {
		fiberlog.Error(fmt.Sprintf("[Admin] Failed to read processing size: %v", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read queue stats"})
	}

	return c.JSON(fiber.Map{
		"queued":     queued,
		"processing": processing,
		"stats":      stats,
		"running":    jobqueue.GetManager().IsRunning(),
	})
}

// HandleAdminCreateZone registers a new restricted zone. New zones apply to
// analyses that start after the insert; completed reports are not revisited.
func HandleAdminCreateZone(c *fiber.Ctx) error {
	var req struct {
		Name         string  `json:"name"`
		Type         string  `json:"type"`
		Latitude     float64 `json:"latitude"`
		Longitude    float64 `json:"longitude"`
		RadiusMeters float64 `json:"radius_meters"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" || req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and type are required"})
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "coordinates out of range"})
	}
	if req.RadiusMeters <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "radius_meters must be > 0"})
	}

	zone := &models.RestrictedZone{
		Name:         req.Name,
		Type:         req.Type,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
	}
	if err := repository.GetGlobalRepositories().Zone.Create(zone); err != nil {
		fiberlog.Error(fmt.Sprintf("[Admin] Failed to create zone %s: %v", zone.Name, err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create zone"})
	}

	fiberlog.Info(fmt.Sprintf("[Admin] Restricted zone %s (%s) created", zone.Name, zone.Type))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":            zone.ID,
		"name":          zone.Name,
		"type":          zone.Type,
		"latitude":      zone.Latitude,
		"longitude":     zone.Longitude,
		"radius_meters": zone.RadiusMeters,
	})
}
