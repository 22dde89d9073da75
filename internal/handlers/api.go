package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/triagehub/triagehub/internal/api"
	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/reports"
)

// APIHandler handles API endpoints for issue inspection, lifecycle
// transitions, and incident report review.
type APIHandler struct {
	store       *database.IssueStore
	synthesizer *reports.Synthesizer
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store *database.IssueStore, synthesizer *reports.Synthesizer) *APIHandler {
	return &APIHandler{
		store:       store,
		synthesizer: synthesizer,
	}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Issues
	mux.HandleFunc("GET /api/issues", h.handleListIssues)
	mux.HandleFunc("GET /api/issues/{uuid}", h.handleGetIssue)
	mux.HandleFunc("GET /api/issues/{uuid}/tickets", h.handleGetIssueTickets)
	mux.HandleFunc("PUT /api/issues/{uuid}/status", h.handleUpdateIssueStatus)

	// Incident reports
	mux.HandleFunc("POST /api/issues/{uuid}/reports/{brandId}", h.handleGenerateReport)
	mux.HandleFunc("GET /api/issues/{uuid}/reports/{brandId}", h.handleGetReportForBrand)
	mux.HandleFunc("GET /api/reports/{uuid}", h.handleGetReport)
	mux.HandleFunc("PUT /api/reports/{uuid}/status", h.handleAdvanceReportStatus)

	// Triage settings
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.handleUpdateSettings)
}

// handleListIssues handles GET /api/issues?limit=N&status=S. Resolved
// issues stay listable here; only the matcher's candidate pool skips them.
func (h *APIHandler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	status := database.IssueStatus(r.URL.Query().Get("status"))
	switch status {
	case "", database.IssueStatusActive, database.IssueStatusMonitoring, database.IssueStatusResolved:
	default:
		api.RespondError(w, http.StatusBadRequest, "Unknown status filter")
		return
	}

	issues, err := h.store.ListIssues(limit, status)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get issues")
		return
	}
	api.RespondJSON(w, http.StatusOK, issues)
}

// handleGetIssue handles GET /api/issues/{uuid}
func (h *APIHandler) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	issue, ok := h.findIssue(w, r)
	if !ok {
		return
	}
	api.RespondJSON(w, http.StatusOK, issue)
}

// handleGetIssueTickets handles GET /api/issues/{uuid}/tickets
func (h *APIHandler) handleGetIssueTickets(w http.ResponseWriter, r *http.Request) {
	issue, ok := h.findIssue(w, r)
	if !ok {
		return
	}

	tickets, err := h.store.GetLinkedTickets(issue.ID)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get linked tickets")
		return
	}
	api.RespondJSON(w, http.StatusOK, tickets)
}

// handleUpdateIssueStatus handles PUT /api/issues/{uuid}/status
func (h *APIHandler) handleUpdateIssueStatus(w http.ResponseWriter, r *http.Request) {
	issue, ok := h.findIssue(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateIssueStatus(issue.UUID, database.IssueStatus(req.Status)); err != nil {
		api.RespondErrorWithCode(w, http.StatusConflict, "invalid_transition", err.Error())
		return
	}

	updated, err := h.store.GetIssueByUUID(issue.UUID)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to reload issue")
		return
	}
	api.RespondJSON(w, http.StatusOK, updated)
}

// handleGenerateReport handles POST /api/issues/{uuid}/reports/{brandId}.
// Generation is idempotent per issue and brand; repeating the call returns
// the already drafted report.
func (h *APIHandler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	issueUUID := r.PathValue("uuid")
	brandID := r.PathValue("brandId")

	report, err := h.synthesizer.Generate(r.Context(), issueUUID, brandID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			api.RespondError(w, http.StatusNotFound, "Issue not found")
		case errors.Is(err, reports.ErrBrandNotAffected):
			api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, "brand_not_affected", err.Error())
		default:
			api.RespondError(w, http.StatusInternalServerError, "Failed to generate report")
		}
		return
	}
	api.RespondJSON(w, http.StatusOK, report)
}

// handleGetReportForBrand handles GET /api/issues/{uuid}/reports/{brandId}
func (h *APIHandler) handleGetReportForBrand(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.GetReportForBrand(r.PathValue("uuid"), r.PathValue("brandId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Report not found")
			return
		}
		api.RespondError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	api.RespondJSON(w, http.StatusOK, report)
}

// handleGetReport handles GET /api/reports/{uuid}
func (h *APIHandler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.GetReportByUUID(r.PathValue("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Report not found")
			return
		}
		api.RespondError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	api.RespondJSON(w, http.StatusOK, report)
}

// handleAdvanceReportStatus handles PUT /api/reports/{uuid}/status
func (h *APIHandler) handleAdvanceReportStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	uuid := r.PathValue("uuid")
	if err := h.store.AdvanceReportStatus(uuid, database.ReportStatus(req.Status)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Report not found")
			return
		}
		api.RespondErrorWithCode(w, http.StatusConflict, "invalid_transition", err.Error())
		return
	}

	report, err := h.store.GetReportByUUID(uuid)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to reload report")
		return
	}
	api.RespondJSON(w, http.StatusOK, report)
}

// handleGetSettings handles GET /api/settings
func (h *APIHandler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings()
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings handles PUT /api/settings
func (h *APIHandler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings()
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	var req struct {
		Enabled                   *bool    `json:"enabled"`
		CandidatePoolSize         *int     `json:"candidate_pool_size"`
		MatchThreshold            *float64 `json:"match_threshold"`
		AutoReportMemberThreshold *int     `json:"auto_report_member_threshold"`
		MaxReportAttempts         *int     `json:"max_report_attempts"`
	}
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.CandidatePoolSize != nil && *req.CandidatePoolSize > 0 {
		settings.CandidatePoolSize = *req.CandidatePoolSize
	}
	if req.MatchThreshold != nil && *req.MatchThreshold > 0 {
		settings.MatchThreshold = *req.MatchThreshold
	}
	if req.AutoReportMemberThreshold != nil && *req.AutoReportMemberThreshold > 0 {
		settings.AutoReportMemberThreshold = *req.AutoReportMemberThreshold
	}
	if req.MaxReportAttempts != nil && *req.MaxReportAttempts > 0 {
		settings.MaxReportAttempts = *req.MaxReportAttempts
	}

	if err := h.store.UpdateSettings(settings); err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}

// findIssue resolves the {uuid} path value, writing the error response itself
func (h *APIHandler) findIssue(w http.ResponseWriter, r *http.Request) (*database.Issue, bool) {
	issue, err := h.store.GetIssueByUUID(r.PathValue("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Issue not found")
			return nil, false
		}
		api.RespondError(w, http.StatusInternalServerError, "Failed to get issue")
		return nil, false
	}
	return issue, true
}
