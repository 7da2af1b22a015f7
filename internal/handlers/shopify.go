package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mailsmithapp/mailsmith/internal/errs"
	"github.com/mailsmithapp/mailsmith/internal/models"
	"github.com/mailsmithapp/mailsmith/internal/shopify"
)

type installRequest struct {
	Shop string `json:"shop"`
}

type installResponse struct {
	Success    bool   `json:"success"`
	InstallURL string `json:"installUrl"`
}

// ShopifyInstall starts the OAuth install for the authenticated user.
func (h *Handlers) ShopifyInstall(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, errs.ErrInvalidInput)
		return
	}
	if strings.TrimSpace(req.Shop) == "" {
		h.writeError(w, r, shopify.ErrInvalidShop)
		return
	}

	installURL, err := h.shopify.StartInstall(r.Context(), userID(r), req.Shop)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, installResponse{Success: true, InstallURL: installURL})
}

type callbackResponse struct {
	Success bool   `json:"success"`
	Shop    string `json:"shop"`
	Scope   string `json:"scope"`
}

// ShopifyCallback completes the install. It is reached by Shopify's
// redirect, so it is authenticated by HMAC and state rather than a bearer
// token.
func (h *Handlers) ShopifyCallback(w http.ResponseWriter, r *http.Request) {
	result, err := h.shopify.CompleteCallback(r.Context(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if redirect := h.integrationsURL(result.Shop); redirect != "" {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	writeJSON(w, r, http.StatusOK, callbackResponse{
		Success: true,
		Shop:    result.Shop,
		Scope:   result.Scope,
	})
}

// integrationsURL is the dashboard page to land on after an install, or ""
// when the frontend is not served over https.
func (h *Handlers) integrationsURL(shop string) string {
	base := strings.TrimRight(strings.TrimSpace(h.config.FrontendURL), "/")
	parsed, err := url.Parse(base)
	if base == "" || err != nil || !strings.EqualFold(parsed.Scheme, "https") {
		return ""
	}
	return base + "/integrations?shop=" + url.QueryEscape(shop)
}

type storesResponse struct {
	Success bool                      `json:"success"`
	Stores  []*models.StoreCredential `json:"stores"`
}

func (h *Handlers) ShopifyStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.shopify.ListStores(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, storesResponse{Success: true, Stores: stores})
}

func (h *Handlers) ShopifyDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.shopify.Disconnect(r.Context(), userID(r), mux.Vars(r)["shop"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) ShopifyReconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.shopify.Reconnect(r.Context(), userID(r), mux.Vars(r)["shop"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true})
}

type customersResponse struct {
	Success   bool               `json:"success"`
	Customers []shopify.Customer `json:"customers"`
}

func (h *Handlers) ShopifyCustomers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, r, errs.ErrInvalidInput)
			return
		}
		limit = parsed
	}

	customers, err := h.shopify.FetchCustomers(r.Context(), userID(r), mux.Vars(r)["shop"], limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if customers == nil {
		customers = []shopify.Customer{}
	}
	writeJSON(w, r, http.StatusOK, customersResponse{Success: true, Customers: customers})
}
