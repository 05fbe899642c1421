package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/analytics"
	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
	"nathanbeddoewebdev/perfsight/internal/services/comparison"
)

// ComparisonHandler serves saved comparisons and their analytics.
type ComparisonHandler struct {
	log     *zap.Logger
	backend backend.Manager
	svc     *comparison.Service
}

// NewComparisonHandler creates a comparison handler.
func NewComparisonHandler(log *zap.Logger, b backend.Manager, svc *comparison.Service) *ComparisonHandler {
	return &ComparisonHandler{log: log, backend: b, svc: svc}
}

// List returns every comparison summary.
// GET /api/comparisons
func (h *ComparisonHandler) List(c echo.Context) error {
	list, err := h.backend.ListComparisons(c.Request().Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.ComparisonSummary{}
	}
	return c.JSON(http.StatusOK, list)
}

// Create stores a comparison.
// POST /api/comparisons
func (h *ComparisonHandler) Create(c echo.Context) error {
	var cfg domain.ComparisonConfig
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed comparison")
	}
	id, err := h.backend.CreateComparison(c.Request().Context(), &cfg)
	if err != nil {
		return err
	}
	h.log.Info("comparison created", zap.Int64("comparison_id", id))
	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// Get returns a saved comparison.
// GET /api/comparisons/:id
func (h *ComparisonHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cfg, err := h.backend.GetComparisonDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// Delete removes a comparison.
// DELETE /api/comparisons/:id
func (h *ComparisonHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.backend.DeleteComparison(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateConfig replaces the baseline and selections.
// PUT /api/comparisons/:id/config
func (h *ComparisonHandler) UpdateConfig(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req ComparisonConfigRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	err = h.backend.UpdateComparisonConfig(c.Request().Context(), id, req.BaselineReportID, req.CPUSelections, req.MemSelections)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateReports replaces the report set.
// PUT /api/comparisons/:id/reports
func (h *ComparisonHandler) UpdateReports(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req ComparisonReportsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := h.backend.UpdateComparisonReports(c.Request().Context(), id, req.ReportIDs, req.BaselineReportID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Aligned returns the aligned CPU and memory series of a comparison.
// GET /api/comparisons/:id/aligned
func (h *ComparisonHandler) Aligned(c echo.Context) error {
	loaded, err := h.load(c)
	if err != nil {
		return err
	}
	a, err := loaded.Alignment()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Drivers returns the per-process deltas against the baseline. The optional
// top query parameter keeps the K largest drivers per kind.
// GET /api/comparisons/:id/drivers?top=K
func (h *ComparisonHandler) Drivers(c echo.Context) error {
	top := 0
	if q := c.QueryParam("top"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "top must be a non-negative integer")
		}
		top = n
	}

	loaded, err := h.load(c)
	if err != nil {
		return err
	}
	reports, err := loaded.Drivers()
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []analytics.DriverReport{}
	}
	if top > 0 {
		for i := range reports {
			reports[i] = reports[i].TopK(top)
		}
	}
	return c.JSON(http.StatusOK, reports)
}

// Groups runs a tag group comparison over the comparison's reports.
// POST /api/comparisons/:id/groups
func (h *ComparisonHandler) Groups(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req GroupsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	cfg, err := h.backend.GetComparisonDetail(ctx, id)
	if err != nil {
		return err
	}
	result, err := h.svc.CompareGroups(ctx, cfg.ReportIDs, req.Groups, req.Baseline)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ComparisonHandler) load(c echo.Context) (*comparison.Loaded, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	return h.svc.Load(c.Request().Context(), id)
}
