package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID int64 `json:"id"`
}

// TagsRequest replaces the tags of a report.
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// TitleRequest renames a report.
type TitleRequest struct {
	Title string `json:"title" validate:"required"`
}

// FolderRequest moves a report. An empty folder is the root.
type FolderRequest struct {
	Folder string `json:"folder"`
}

// PathResponse returns a folder path created or renamed by the server.
type PathResponse struct {
	Path string `json:"path"`
}

// CountResponse returns how many reports a bulk operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// CreateFolderRequest creates the folder Name below Parent.
type CreateFolderRequest struct {
	Parent string `json:"parent"`
	Name   string `json:"name" validate:"required"`
}

// RenameFolderRequest gives the folder at Path the last segment Name.
type RenameFolderRequest struct {
	Path string `json:"path" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ReportIDsRequest names the reports of a bulk operation.
type ReportIDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// MoveReportsRequest files several reports in Folder. An empty folder is
// the root.
type MoveReportsRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Folder string  `json:"folder"`
}

// ComparisonConfigRequest replaces the baseline and selections of a
// comparison.
type ComparisonConfigRequest struct {
	BaselineReportID *int64          `json:"baseline_report_id"`
	CPUSelections    map[int64][]int `json:"cpu_selections"`
	MemSelections    map[int64][]int `json:"mem_selections"`
}

// ComparisonReportsRequest replaces the report set of a comparison.
type ComparisonReportsRequest struct {
	ReportIDs        []int64 `json:"report_ids" validate:"required,min=2,unique"`
	BaselineReportID *int64  `json:"baseline_report_id"`
}

// GroupsRequest runs a tag group comparison over a comparison's reports.
type GroupsRequest struct {
	Groups   []domain.GroupDef `json:"groups" validate:"required,min=1,dive"`
	Baseline string            `json:"baseline"`
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
	}
	return id, nil
}

// bindValid decodes the request body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("api: %w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}
