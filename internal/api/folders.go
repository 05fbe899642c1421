package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/backend"
	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// FolderHandler serves folder management and bulk report moves. Folder
// paths contain slashes, so they travel in query parameters and bodies
// rather than in the route.
type FolderHandler struct {
	log     *zap.Logger
	backend backend.Manager
}

// NewFolderHandler creates a folder handler.
func NewFolderHandler(log *zap.Logger, b backend.Manager) *FolderHandler {
	return &FolderHandler{log: log, backend: b}
}

// List returns every known folder with its direct report count.
// GET /api/folders
func (h *FolderHandler) List(c echo.Context) error {
	folders, err := h.backend.ListFolders(c.Request().Context())
	if err != nil {
		return err
	}
	if folders == nil {
		folders = []domain.FolderInfo{}
	}
	return c.JSON(http.StatusOK, folders)
}

// Create makes an empty folder.
// POST /api/folders
func (h *FolderHandler) Create(c echo.Context) error {
	var req CreateFolderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	path, err := h.backend.CreateFolder(c.Request().Context(), req.Parent, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, PathResponse{Path: path})
}

// Stats describes a folder subtree. An absent path is the root.
// GET /api/folders/stats?path=
func (h *FolderHandler) Stats(c echo.Context) error {
	stats, err := h.backend.GetFolderStats(c.Request().Context(), c.QueryParam("path"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Rename changes the last segment of a folder path.
// PUT /api/folders/rename
func (h *FolderHandler) Rename(c echo.Context) error {
	var req RenameFolderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	path, err := h.backend.RenameFolder(c.Request().Context(), req.Path, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PathResponse{Path: path})
}

// Delete removes a folder using the requested strategy.
// DELETE /api/folders?path=&strategy=
func (h *FolderHandler) Delete(c echo.Context) error {
	strategy := domain.FolderDeleteStrategy(c.QueryParam("strategy"))
	res, err := h.backend.DeleteFolder(c.Request().Context(), c.QueryParam("path"), strategy)
	if err != nil {
		return err
	}
	h.log.Info("folder deleted", zap.String("folder", c.QueryParam("path")), zap.Int("moved", res.Moved), zap.Int("deleted", res.Deleted))
	return c.JSON(http.StatusOK, res)
}

// DeleteReports removes several reports at once.
// POST /api/reports/delete
func (h *FolderHandler) DeleteReports(c echo.Context) error {
	var req ReportIDsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	n, err := h.backend.DeleteReports(c.Request().Context(), req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CountResponse{Count: n})
}

// MoveReports files several reports in one folder.
// PUT /api/reports/folder
func (h *FolderHandler) MoveReports(c echo.Context) error {
	var req MoveReportsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	n, err := h.backend.UpdateReportsFolder(c.Request().Context(), req.IDs, req.Folder)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CountResponse{Count: n})
}
