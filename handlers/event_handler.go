package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

type CreateEventInput struct {
	Name             string               `json:"name"`
	StartDate        string               `json:"start_date"`
	Active           bool                 `json:"active"`
	NRounds          int                  `json:"n_rounds"`
	RoundsDuration   []int                `json:"rounds_duration"`
	RoundsTimeFormat []models.TimeControl `json:"rounds_time_format"`
	Roster           []string             `json:"roster"`
}

func (in CreateEventInput) toEvent() (*models.Event, error) {
	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", services.ErrValidationFailed)
	}
	return &models.Event{
		Name:             in.Name,
		StartDate:        start,
		Active:           in.Active,
		NRounds:          in.NRounds,
		RoundsDuration:   in.RoundsDuration,
		RoundsTimeFormat: in.RoundsTimeFormat,
		Roster:           in.Roster,
	}, nil
}

type SetActiveInput struct {
	Active *bool `json:"active"`
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	event, err := input.toEvent()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.eventService.CreateEvent(r.Context(), event)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logAdminAction(r, "event created", zap.Int64("event_id", created.ID))

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"event": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetEventByID(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListEvents(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GenerateFixtures(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixtures, err := h.eventService.GenerateFixtures(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logAdminAction(r, "fixtures generated", zap.Int64("event_id", eventID), zap.Int("count", len(fixtures)))

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input SetActiveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Active == nil {
		badRequestResponse(w, r, fmt.Errorf("%w: active is required", services.ErrValidationFailed))
		return
	}

	event, err := h.eventService.SetActive(r.Context(), eventID, *input.Active)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logAdminAction(r, "event activity changed", zap.Int64("event_id", eventID), zap.Bool("active", event.Active))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
