package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/services"
)

type LeagueHandler struct {
	leagueService services.LeagueService
	source        lichess.GameSource
}

func NewLeagueHandler(ls services.LeagueService, source lichess.GameSource) *LeagueHandler {
	return &LeagueHandler{leagueService: ls, source: source}
}

// SubmitResultInput: либо полный экспорт партии lichess, либо только её ID.
type SubmitResultInput struct {
	Game   json.RawMessage `json:"game"`
	GameID string          `json:"game_id"`
}

func (h *LeagueHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	raw, err := h.resolveGame(r, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	record, err := models.DecodeLichessGame(raw)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	out, err := h.leagueService.SubmitResult(r.Context(), fixtureID, record)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	fixtures, err := h.leagueService.ListFixtures(r.Context(), repositories.FixtureFilter{EventID: &out.Fixture.EventID})
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"validation": out.Report,
		"standings":  out.Standings,
		"fixtures":   fixtures,
	}
	if out.Report.Accepted {
		response["game"] = out.Game
		response["rating_changes"] = out.RatingChanges
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) resolveGame(r *http.Request, input SubmitResultInput) ([]byte, error) {
	hasGame := len(input.Game) > 0 && string(input.Game) != "null"
	gameID := strings.TrimSpace(input.GameID)
	switch {
	case hasGame && gameID != "":
		return nil, fmt.Errorf("%w: provide either game or game_id, not both", services.ErrValidationFailed)
	case hasGame:
		return input.Game, nil
	case gameID == "":
		return nil, fmt.Errorf("%w: game or game_id is required", services.ErrValidationFailed)
	case h.source == nil:
		return nil, fmt.Errorf("%w: no game source configured", services.ErrGameSourceUnavailable)
	}

	raw, err := h.source.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, lichess.ErrGameNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", services.ErrGameSourceUnavailable, err)
	}
	return raw, nil
}

func (h *LeagueHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leagueService.ComputeStandings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	eventID, err := optionalInt(r, "event_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := optionalInt(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	onlyOpen, err := optionalBool(r, "open")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter := repositories.FixtureFilter{
		EventID:  eventID,
		MemberID: models.NormalizeMemberID(r.URL.Query().Get("member")),
		OnlyOpen: onlyOpen,
	}
	if round != nil {
		n := int(*round)
		filter.Round = &n
	}

	fixtures, err := h.leagueService.ListFixtures(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixtures": fixtures}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.leagueService.ListGames(r.Context(), r.URL.Query().Get("member"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
