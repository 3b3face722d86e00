package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bookclub/api/internal/middleware"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/pkg/logger"
	"github.com/bookclub/api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const maxAuditExport = 1000

type AuditHandler struct {
	Audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{Audit: audit}
}

// Export returns the caller's newest audit entries as JSON or CSV.
func (h *AuditHandler) Export(c *fiber.Ctx) error {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}
	userID, ok := s.UserID()
	if !ok {
		return utils.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", "json")))
	if format != "csv" && format != "json" {
		return utils.Error(c, fiber.StatusBadRequest, "format must be csv or json")
	}

	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > maxAuditExport {
		limit = maxAuditExport
	}

	logs, err := h.Audit.Recent(c.UserContext(), userID, limit)
	if err != nil {
		logger.Error("audit_export_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading audit logs")
	}

	if format == "json" {
		return utils.Success(c, fiber.StatusOK, logs)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-log.csv"))

	writer := csv.NewWriter(c.Response().BodyWriter())
	_ = writer.Write([]string{"Timestamp", "User ID", "Action", "Resource Type", "Resource ID", "IP Address", "Details"})
	for _, log := range logs {
		userID, resourceID := "", ""
		if log.UserID != nil {
			userID = strconv.FormatUint(uint64(*log.UserID), 10)
		}
		if log.ResourceID != nil {
			resourceID = strconv.FormatUint(uint64(*log.ResourceID), 10)
		}
		details := ""
		if len(log.Details) > 0 {
			if raw, err := json.Marshal(log.Details); err == nil {
				details = string(raw)
			}
		}
		_ = writer.Write([]string{
			log.CreatedAt.UTC().Format(time.RFC3339),
			userID,
			log.Action,
			log.ResourceType,
			resourceID,
			log.IPAddress,
			details,
		})
	}
	writer.Flush()
	return writer.Error()
}
