package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/metrics"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// ReportHandler serves report storage and per-report analytics.
type ReportHandler struct {
	log     *zap.Logger
	backend backend.Manager
	metrics *metrics.Recorder
}

// NewReportHandler creates a report handler. m may be nil.
func NewReportHandler(log *zap.Logger, b backend.Manager, m *metrics.Recorder) *ReportHandler {
	return &ReportHandler{log: log, backend: b, metrics: m}
}

// List returns every report summary.
// GET /api/reports
func (h *ReportHandler) List(c echo.Context) error {
	reports, err := h.backend.GetReports(c.Request().Context())
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []domain.ReportSummary{}
	}
	return c.JSON(http.StatusOK, reports)
}

// Create stores a report.
// POST /api/reports
func (h *ReportHandler) Create(c echo.Context) error {
	var r domain.Report
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed report")
	}
	id, err := h.backend.SaveReport(c.Request().Context(), &r)
	if err != nil {
		return err
	}
	h.log.Info("report created", zap.Int64("report_id", id))
	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// Get returns a report with its analysis.
// GET /api/reports/:id
func (h *ReportHandler) Get(c echo.Context) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	h.metrics.ObserveReport(len(r.Metrics))
	return c.JSON(http.StatusOK, r)
}

// Delete removes a report.
// DELETE /api/reports/:id
func (h *ReportHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.backend.DeleteReport(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateTags replaces the tags of a report.
// PUT /api/reports/:id/tags
func (h *ReportHandler) UpdateTags(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req TagsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.backend.UpdateReportTags(c.Request().Context(), id, req.Tags); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateTitle renames a report.
// PUT /api/reports/:id/title
func (h *ReportHandler) UpdateTitle(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req TitleRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.backend.UpdateReportTitle(c.Request().Context(), id, req.Title); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateFolder moves a report.
// PUT /api/reports/:id/folder
func (h *ReportHandler) UpdateFolder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req FolderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.backend.UpdateReportFolder(c.Request().Context(), id, req.Folder); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Processes returns the per-process statistics of a report.
// GET /api/reports/:id/processes
func (h *ReportHandler) Processes(c echo.Context) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	rows := analytics.SummarizeProcesses(r)
	if rows == nil {
		rows = []analytics.ProcessRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// CustomMetrics returns the custom metric aggregates of a report.
// GET /api/reports/:id/custom-metrics
func (h *ReportHandler) CustomMetrics(c echo.Context) error {
	r, err := h.report(c)
	if err != nil {
		return err
	}
	groups := analytics.SummarizeCustomMetrics(r)
	if groups == nil {
		groups = []analytics.CustomMetricGroup{}
	}
	return c.JSON(http.StatusOK, groups)
}

// Tags returns every known tag with its usage count.
// GET /api/tags
func (h *ReportHandler) Tags(c echo.Context) error {
	tags, err := h.backend.GetKnownTags(c.Request().Context())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []domain.TagStat{}
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *ReportHandler) report(c echo.Context) (*domain.Report, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	return h.backend.GetReportDetail(c.Request().Context(), id)
}
