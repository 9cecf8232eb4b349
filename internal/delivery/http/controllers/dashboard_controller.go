package controllers

import (
	"log/slog"
	"net/http"

	"meetupbot/internal/delivery/http/helpers"
	"meetupbot/internal/delivery/http/middleware"
	"meetupbot/internal/domain"
)

// ActiveProgramResponse is the response body for GET /events/active/program.
type ActiveProgramResponse struct {
	Event       *domain.Event           `json:"event"`
	CurrentTalk *domain.Talk            `json:"current_talk"`
	Talks       []*domain.TalkWithStats `json:"talks"`
}

// ActiveProgramSuccessResponse is the success envelope for GET /events/active/program (200).
type ActiveProgramSuccessResponse struct {
	Data  ActiveProgramResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// DonationSummarySuccessResponse is the success envelope for GET /events/active/donations (200).
type DonationSummarySuccessResponse struct {
	Data  *domain.DonationSummary `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// DashboardController serves the organizer dashboard. Every route expects organizer
// claims in the context.
type DashboardController struct {
	Logger    *slog.Logger
	Events    domain.EventService
	Scheduler domain.TalkScheduler
	Donations domain.DonationService
}

func NewDashboardController(logger *slog.Logger, events domain.EventService, scheduler domain.TalkScheduler, donations domain.DonationService) *DashboardController {
	return &DashboardController{
		Logger:    logger,
		Events:    events,
		Scheduler: scheduler,
		Donations: donations,
	}
}

// ActiveProgram godoc
// @Summary Program of the active event
// @Description Returns the active event, the talk currently on stage and every talk with its question stats.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ActiveProgramSuccessResponse "data contains event, current talk and talks"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no active event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/active/program [get]
func (c *DashboardController) ActiveProgram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, err := c.Events.Active(ctx)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	talks, err := c.Scheduler.Program(ctx, event)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	current, err := c.Scheduler.ResolveCurrent(ctx, event)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if talks == nil {
		talks = []*domain.TalkWithStats{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ActiveProgramResponse{Event: event, CurrentTalk: current, Talks: talks})
}

// ActiveDonations godoc
// @Summary Donation summary of the active event
// @Description Total of succeeded donations, donation count and the latest donations.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.DonationSummarySuccessResponse "data contains the summary"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no active event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/active/donations [get]
func (c *DashboardController) ActiveDonations(w http.ResponseWriter, r *http.Request) {
	event, err := c.Events.Active(r.Context())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	summary, err := c.Donations.Summary(r.Context(), event)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}

// ActivateEvent godoc
// @Summary Make an event the active one
// @Description Marks the event active and every other event inactive.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data.status: activated"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/activate [post]
func (c *DashboardController) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	actor := &domain.Participant{ID: claims.Subject, IsOrganizer: claims.HasRole(domain.RoleOrganizer)}
	if err := c.Events.Activate(r.Context(), actor, eventID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	c.Logger.InfoContext(r.Context(), "event activated", "event_id", eventID, "by", claims.Subject)
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "activated", "event_id": eventID})
}
