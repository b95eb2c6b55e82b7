package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/services"
)

type MemberHandler struct {
	memberService services.MemberService
}

func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

type ImportMembersInput struct {
	IDs []string `json:"ids"`
}

func (h *MemberHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMemberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.memberService.CreateMember(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logAdminAction(r, "member created", zap.String("member_id", member.ID))

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.memberService.GetMember(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"member": member}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.ListMembers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"members": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MemberHandler) ImportMembers(w http.ResponseWriter, r *http.Request) {
	var input ImportMembersInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.IDs) == 0 {
		badRequestResponse(w, r, fmt.Errorf("%w: ids must not be empty", services.ErrValidationFailed))
		return
	}

	members, err := h.memberService.ImportFromLichess(r.Context(), input.IDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	logAdminAction(r, "members imported from lichess", zap.Int("count", len(members)))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"members": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
