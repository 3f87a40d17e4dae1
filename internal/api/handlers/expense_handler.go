package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/expensio/expensio-be/internal/auth"
	"github.com/expensio/expensio-be/internal/models"
	"github.com/expensio/expensio-be/internal/services"
)

// ExpenseHandler handles HTTP requests for expense management.
type ExpenseHandler struct {
	service services.ExpenseServiceProvider
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(service services.ExpenseServiceProvider) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// ExpensePayload defines the structure for create requests.
type ExpensePayload struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Notes       string  `json:"notes"`
	Date        string  `json:"date"`
	PaymentMode string  `json:"paymentMode"`
}

// ExpenseUpdatePayload defines the structure for partial update requests.
type ExpenseUpdatePayload struct {
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Notes       *string  `json:"notes"`
	Date        *string  `json:"date"`
	PaymentMode *string  `json:"paymentMode"`
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// Create handles new expense creation for the authenticated user.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	var payload ExpensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		respondError(w, &services.ValidationError{Details: []string{"date must be in valid ISO format"}})
		return
	}

	expense, err := h.service.Create(user.ID, services.ExpenseInput{
		Amount:      payload.Amount,
		Category:    models.Category(payload.Category),
		Notes:       payload.Notes,
		Date:        date,
		PaymentMode: models.PaymentMode(payload.PaymentMode),
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to create expense")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    expense,
		"message": "Expense created successfully",
	})
}

// queryValues gathers a multi-valued query parameter, also accepting a
// single comma-separated value.
func queryValues(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseListQuery(r *http.Request) (services.ExpenseFilters, int, int, *services.ValidationError) {
	var details []string
	var filters services.ExpenseFilters

	if df := r.URL.Query().Get("dateFilter"); df != "" {
		switch df {
		case services.DateFilterThisMonth, services.DateFilterLast30Days, services.DateFilterLast90Days, services.DateFilterAllTime:
			filters.DateFilter = df
		default:
			details = append(details, "invalid date filter")
		}
	}

	for _, c := range queryValues(r, "categories") {
		category := models.Category(c)
		if !category.Valid() {
			details = append(details, "invalid categories")
			break
		}
		filters.Categories = append(filters.Categories, category)
	}

	for _, m := range queryValues(r, "paymentModes") {
		mode := models.PaymentMode(m)
		if !mode.Valid() {
			details = append(details, "invalid payment modes")
			break
		}
		filters.PaymentModes = append(filters.PaymentModes, mode)
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			page = v
		} else {
			details = append(details, "page must be a positive integer")
		}
	}

	limit := services.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= services.MaxPageSize {
			limit = v
		} else {
			details = append(details, "limit must be between 1 and 100")
		}
	}

	if len(details) > 0 {
		return filters, 0, 0, &services.ValidationError{Details: details}
	}
	return filters, page, limit, nil
}

// List handles the filtered, paginated expense listing.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	filters, page, limit, vErr := parseListQuery(r)
	if vErr != nil {
		respondError(w, vErr)
		return
	}

	expenses, pagination, err := h.service.List(user.ID, filters, page, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to list expenses")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       expenses,
		"pagination": pagination,
	})
}

// Get handles retrieving one expense by ID.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	expense, err := h.service.GetByID(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    expense,
	})
}

// Update handles a partial update of one expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	var payload ExpenseUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	update := services.ExpenseUpdate{
		Amount: payload.Amount,
		Notes:  payload.Notes,
	}
	if payload.Category != nil {
		category := models.Category(*payload.Category)
		update.Category = &category
	}
	if payload.PaymentMode != nil {
		mode := models.PaymentMode(*payload.PaymentMode)
		update.PaymentMode = &mode
	}
	if payload.Date != nil {
		date, err := parseDate(*payload.Date)
		if err != nil {
			respondError(w, &services.ValidationError{Details: []string{"date must be in valid ISO format"}})
			return
		}
		update.Date = &date
	}

	expense, err := h.service.Update(user.ID, chi.URLParam(r, "id"), update)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to update expense")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    expense,
		"message": "Expense updated successfully",
	})
}

// Delete handles the permanent deletion of one expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	if err := h.service.Delete(user.ID, chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Expense deleted successfully",
	})
}

// Analytics handles the aggregate analytics request.
func (h *ExpenseHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	analytics, err := h.service.Analytics(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to compute analytics")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    analytics,
	})
}
