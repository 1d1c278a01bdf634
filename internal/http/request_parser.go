// This file implements utilities for parsing and validating HTTP request
// data: JSON bodies, query limits and free-text sanitizing.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"smartsave/internal/core"
	"smartsave/internal/services"
)

const maxJSONBody = 1 << 20

type (
	credentialsRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	whatsAppRequest struct {
		WhatsAppNumber string `json:"whatsapp_number"`
	}

	transactionRequest struct {
		Date          string          `json:"date"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Type          string          `json:"type"`
		AccountNumber string          `json:"account_number"`
		Currency      string          `json:"currency"`
		Category      string          `json:"category"`
	}

	budgetRequest struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Period   string          `json:"period"`
	}

	goalRequest struct {
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    string          `json:"target_date"`
	}

	// goalUpdateRequest leaves absent fields nil so they keep their stored
	// value. An empty target_date clears the date.
	goalUpdateRequest struct {
		Name         *string          `json:"name"`
		TargetAmount *decimal.Decimal `json:"target_amount"`
		TargetDate   *string          `json:"target_date"`
	}

	depositRequest struct {
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	}

	assistantRequest struct {
		UserMessage string `json:"userMessage"`
	}

	assistantResponse struct {
		BotMessage string `json:"botMessage"`
	}
)

// DecodeJSON reads a JSON body of at most 1 MiB into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		default:
			return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
		}
	}
	return nil
}

// ParseLimit reads a positive integer query parameter, returning def when
// absent and clamping to ceiling.
func ParseLimit(query url.Values, key string, def, ceiling int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadRequest, key)
	}
	return min(n, ceiling), nil
}

// parseOptionalDate parses YYYY-MM-DD style dates; empty input yields the
// zero Date.
func parseOptionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return d, nil
}

func (req transactionRequest) transaction() (core.Transaction, error) {
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:          date,
		Description:   sanitizeInput(req.Description),
		Amount:        req.Amount,
		Type:          sanitizeInput(req.Type),
		AccountNumber: sanitizeInput(req.AccountNumber),
		Currency:      strings.ToUpper(sanitizeInput(req.Currency)),
		Category:      sanitizeInput(req.Category),
	}, nil
}

func (req budgetRequest) budget() core.Budget {
	return core.Budget{
		Category: sanitizeInput(req.Category),
		Amount:   req.Amount,
		Period:   core.Period(strings.ToLower(strings.TrimSpace(req.Period))),
	}
}

func (req goalRequest) goal() (core.SavingsGoal, error) {
	date, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return core.SavingsGoal{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    date,
	}, nil
}

func (req goalUpdateRequest) update() (services.GoalUpdate, error) {
	var u services.GoalUpdate
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		u.Name = &name
	}
	u.TargetAmount = req.TargetAmount
	if req.TargetDate != nil {
		date, err := parseOptionalDate(*req.TargetDate)
		if err != nil {
			return services.GoalUpdate{}, err
		}
		u.TargetDate = &date
	}
	return u, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
