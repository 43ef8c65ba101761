package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"collections_flow_go/config"
	"collections_flow_go/models"
	"collections_flow_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// API bundles the service dependencies behind the JSON endpoints. Handlers
// hold no state beyond these; everything case-specific is read per request.
type API struct {
	processor   *services.ActionProcessor
	source      services.CaseSource
	store       services.CaseStore
	engine      *services.StatusEngine
	diagnostics *services.DiagnosticsService
	auditDB     *gorm.DB // nil disables the audit endpoints
	cfg         *config.Config
}

func NewAPI(
	processor *services.ActionProcessor,
	source services.CaseSource,
	store services.CaseStore,
	engine *services.StatusEngine,
	diagnostics *services.DiagnosticsService,
	auditDB *gorm.DB,
	cfg *config.Config,
) *API {
	return &API{
		processor:   processor,
		source:      source,
		store:       store,
		engine:      engine,
		diagnostics: diagnostics,
		auditDB:     auditDB,
		cfg:         cfg,
	}
}

// Register wires the API routes onto the Echo instance.
func (a *API) Register(e *echo.Echo) {
	e.GET("/healthz", a.Healthz)

	api := e.Group("/api")
	api.GET("/cases", a.ListCases)
	api.GET("/cases/:id", a.GetCase)
	api.GET("/cases/:id/history", a.GetCaseHistory)
	api.GET("/cases/:id/documents", a.GetCaseDocuments)
	api.POST("/cases/:id/actions", a.ProcessAction)
	api.GET("/cases/:id/audits", a.GetCaseAudits)
	api.GET("/audits", a.GetRecentAudits)
}

// caseListItem is one row of the case listing with its computed status.
type caseListItem struct {
	Record models.CaseRecord    `json:"record"`
	Status models.StatusDisplay `json:"status"`
}

// ListCases returns all cases matching the query filters, each with its
// current status.
func (a *API) ListCases(c echo.Context) error {
	filters := models.CaseFilters{
		HasPlacementDate: c.QueryParam("placed") == "true",
		NoBankruptcy:     c.QueryParam("no_bankruptcy") == "true",
	}
	if v := c.QueryParam("min_balance"); v != "" {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid min_balance")
		}
		filters.MinBalance = balance
	}
	if v := c.QueryParam("min_days_delinquent"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid min_days_delinquent")
		}
		filters.MinDaysDelinquent = days
	}

	cases, err := a.source.ListCases()
	if err != nil {
		c.Logger().Errorf("Failed to list cases: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read case sheet")
	}

	ctx := c.Request().Context()
	items := make([]caseListItem, 0, len(cases))
	for i := range cases {
		record := &cases[i]
		if !filters.Match(record) {
			continue
		}
		container, err := a.store.FindContainer(ctx, record)
		if err != nil {
			c.Logger().Errorf("Failed to resolve container for %s: %v", record.BusinessName, err)
			container = nil
		}
		status := a.engine.CalculateStatus(ctx, record, container)
		items = append(items, caseListItem{
			Record: *record,
			Status: a.engine.FormatStatusForDisplay(status),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"cases": items,
		"count": len(items),
	})
}

// GetCase returns the full summary for one case.
func (a *API) GetCase(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Case identifier is required")
	}

	summary, err := a.processor.GetCaseSummary(c.Request().Context(), id)
	if err != nil {
		c.Logger().Errorf("Failed to build summary for %s: %v", id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load case")
	}
	if summary == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetCaseHistory returns the append-only activity log for a case,
// newest entry last.
func (a *API) GetCaseHistory(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	record, container, err := a.resolveCase(c, id)
	if err != nil {
		return err
	}
	if container == nil {
		// A case with no container has no recorded activity yet
		return c.JSON(http.StatusOK, map[string]any{"history": []models.HistoryEntry{}, "count": 0})
	}

	history, err := a.store.GetHistory(c.Request().Context(), container)
	if err != nil {
		c.Logger().Errorf("Failed to read history for %s: %v", record.BusinessName, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read case history")
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"history": history, "count": len(history)})
}

// GetCaseDocuments lists the documents stored in the case container.
func (a *API) GetCaseDocuments(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	record, container, err := a.resolveCase(c, id)
	if err != nil {
		return err
	}
	if container == nil {
		return c.JSON(http.StatusOK, map[string]any{"documents": []services.DocumentInfo{}, "count": 0})
	}

	documents, err := a.store.ListDocuments(c.Request().Context(), container)
	if err != nil {
		c.Logger().Errorf("Failed to list documents for %s: %v", record.BusinessName, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list documents")
	}
	if documents == nil {
		documents = []services.DocumentInfo{}
	}
	return c.JSON(http.StatusOK, map[string]any{"documents": documents, "count": len(documents)})
}

// actionRequest is the body of POST /api/cases/:id/actions.
type actionRequest struct {
	Code      string `json:"code"`
	Narrative string `json:"narrative"`
}

// ProcessAction runs one workflow action against a case. Validation failures
// come back as 422 with the rejection reason; the action result body is the
// same shape either way.
func (a *API) ProcessAction(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Case identifier is required")
	}

	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Narrative = strings.TrimSpace(req.Narrative)

	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Action code is required")
	}
	// Unrecognized codes are accepted as freeform informational entries as
	// long as they look like action tags
	if !models.IsValidActionCode(req.Code) && !models.IsFreeformActionCode(req.Code) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid action code: "+req.Code)
	}

	result := a.processor.ProcessAction(c.Request().Context(), id, req.Code, req.Narrative)
	if !result.Success {
		if result.Error == "Case not found" {
			return c.JSON(http.StatusNotFound, result)
		}
		return c.JSON(http.StatusUnprocessableEntity, result)
	}
	return c.JSON(http.StatusOK, result)
}

// GetCaseAudits returns the database-side audit trail for one case, newest
// first. With no audit database wired the trail is simply empty.
func (a *API) GetCaseAudits(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Case identifier is required")
	}

	audits := []models.ActionAudit{}
	if a.auditDB != nil {
		found, err := services.GetCaseAuditHistory(a.auditDB, id)
		if err != nil {
			c.Logger().Errorf("Failed to read audit trail for %s: %v", id, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read audit trail")
		}
		if found != nil {
			audits = found
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"audits": audits, "count": len(audits)})
}

// GetRecentAudits returns the most recent audit rows across all cases.
func (a *API) GetRecentAudits(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = parsed
	}

	audits := []models.ActionAudit{}
	if a.auditDB != nil {
		found, err := services.GetRecentAudits(a.auditDB, limit)
		if err != nil {
			c.Logger().Errorf("Failed to read recent audits: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read audit trail")
		}
		if found != nil {
			audits = found
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"audits": audits, "count": len(audits)})
}

// Healthz reports dependency health. Unhealthy reports return 503 so load
// balancers can act on the status code alone.
func (a *API) Healthz(c echo.Context) error {
	report := a.diagnostics.Check(c.Request().Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}

// resolveCase loads the record and its container, translating lookup
// failures into HTTP errors.
func (a *API) resolveCase(c echo.Context, id string) (*models.CaseRecord, *services.ContainerRef, error) {
	if id == "" {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Case identifier is required")
	}
	record, err := a.source.GetCase(id)
	if err != nil {
		c.Logger().Errorf("Failed to load case %s: %v", id, err)
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load case")
	}
	if record == nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}
	container, err := a.store.FindContainer(c.Request().Context(), record)
	if err != nil {
		c.Logger().Errorf("Failed to resolve container for %s: %v", record.BusinessName, err)
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve case folder")
	}
	return record, container, nil
}
