package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mailsmithapp/mailsmith/internal/errs"
	"github.com/mailsmithapp/mailsmith/internal/generation"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/services"
)

type generateRequest struct {
	CampaignID  string                      `json:"campaignId"`
	BlueprintID string                      `json:"blueprintId,omitempty"`
	Customer    *generation.CustomerProfile `json:"customer,omitempty"`
}

type emailResponse struct {
	Success bool          `json:"success"`
	Email   *models.Email `json:"email"`
}

type emailsResponse struct {
	Success bool            `json:"success"`
	Emails  []*models.Email `json:"emails"`
}

// GenerateEmail generates a draft for a campaign.
func (h *Handlers) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, errs.ErrInvalidInput)
		return
	}

	campaignID, err := parseID("campaignId", req.CampaignID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in := services.GenerateInput{CampaignID: campaignID, Customer: req.Customer}
	if strings.TrimSpace(req.BlueprintID) != "" {
		blueprintID, err := parseID("blueprintId", req.BlueprintID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.BlueprintID = &blueprintID
	}

	created, err := h.emails.GenerateForCampaign(r.Context(), userID(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, emailResponse{Success: true, Email: created})
}

type sendRequest struct {
	To string `json:"to"`
}

func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	emailID, err := parseID("id", mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req sendRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, errs.ErrInvalidInput)
			return
		}
	}

	sent, err := h.emails.Send(r.Context(), userID(r), emailID, req.To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, emailResponse{Success: true, Email: sent})
}

func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	emails, err := h.emails.List(r.Context(), userID(r), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if emails == nil {
		emails = []*models.Email{}
	}
	writeJSON(w, r, http.StatusOK, emailsResponse{Success: true, Emails: emails})
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", errs.ErrInvalidInput, field)
	}
	return id, nil
}
