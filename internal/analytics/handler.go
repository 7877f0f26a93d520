package analytics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PittsfordPerformanceCare/ppc-outcome-registry/internal/platform/auth"
)

// Handler exposes the analytics engine over HTTP. Every endpoint re-runs the
// pure pipeline for the requested filter; outputs are flat lists suitable
// for direct chart binding.
type Handler struct {
	controller *Controller
}

func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("/analytics", auth.RequireRole("admin", "clinician"))
	group.GET("/summary", h.GetSummary)
	group.GET("/regions", h.GetRegions)
	group.GET("/diagnoses", h.GetDiagnoses)
	group.GET("/visits", h.GetVisits)
	group.GET("/trend", h.GetTrend)
	group.GET("/benchmark", h.GetBenchmark)
	group.GET("/at-risk", h.GetAtRisk)
	group.GET("/export", h.ExportCSV)
	group.POST("/refresh", h.Refresh)
}

// parseQuery maps URL parameters onto a filter Query. Dates use yyyy-MM-dd;
// region and diagnosis default to "all".
func parseQuery(c echo.Context) (Query, error) {
	var q Query
	if from := c.QueryParam("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return q, fmt.Errorf("invalid from date %q", from)
		}
		q.DateFrom = t
	}
	if to := c.QueryParam("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return q, fmt.Errorf("invalid to date %q", to)
		}
		q.DateTo = t
	}
	q.Region = c.QueryParam("region")
	q.Diagnosis = c.QueryParam("diagnosis")
	return q, nil
}

func (h *Handler) recompute(c echo.Context) (*Report, error) {
	q, err := parseQuery(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	report, err := h.controller.Recompute(q)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return report, nil
}

// GetSummary returns the full report for the requested filter.
func (h *Handler) GetSummary(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) GetRegions(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Regions)
}

func (h *Handler) GetDiagnoses(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Diagnoses)
}

func (h *Handler) GetVisits(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Visits)
}

func (h *Handler) GetTrend(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Trend)
}

func (h *Handler) GetBenchmark(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.Benchmarks)
}

func (h *Handler) GetAtRisk(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.AtRisk)
}

// ExportCSV streams the filtered outcome rows in the Aggregate-tab format.
func (h *Handler) ExportCSV(c echo.Context) error {
	report, err := h.recompute(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="outcomes.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return WriteCSV(c.Response(), report.Outcomes)
}

// Refresh pulls a fresh snapshot from the data provider.
func (h *Handler) Refresh(c echo.Context) error {
	if err := h.controller.Refresh(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
}
