package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
	PeriodYearly  Period = "yearly"
)

const (
	CategoryIncome   = "Income"
	CategoryTransfer = "Transfer"
	CategoryOther    = "Other"
)

type (
	Period string

	// Date is a calendar date without time-of-day, always in UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id,omitempty"`
		Date          Date            `json:"date"`
		Description   string          `json:"description"`
		Amount        decimal.Decimal `json:"amount"`
		Type          string          `json:"type,omitempty"`
		AccountNumber string          `json:"account_number,omitempty"`
		Currency      string          `json:"currency,omitempty"`
		Category      string          `json:"category,omitempty"`
		CSVFileID     string          `json:"csv_file_id,omitempty"`
	}

	Budget struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id,omitempty"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Period      Period          `json:"period"`
		CreatedAt   time.Time       `json:"created_at"`
		LastUpdated time.Time       `json:"last_updated"`
	}

	SavingsGoal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id,omitempty"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		TargetDate    Date            `json:"target_date"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	// Deposit is an append-only ledger entry. Its Amount is exactly the delta
	// applied to the goal's CurrentAmount when it was recorded.
	Deposit struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id,omitempty"`
		SavingsGoalID string          `json:"savings_goal_id"`
		Amount        decimal.Decimal `json:"amount"`
		Description   string          `json:"description,omitempty"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	BudgetAlert struct {
		BudgetID        string          `json:"budget_id"`
		Category        string          `json:"category"`
		Threshold       float64         `json:"threshold"`
		CurrentSpending decimal.Decimal `json:"current_spending"`
		BudgetAmount    decimal.Decimal `json:"budget_amount"`
		PercentageUsed  float64         `json:"percentage_used"`
		Message         string          `json:"message"`
	}

	SavingsRecommendation struct {
		Category           string          `json:"category"`
		CurrentSpending    decimal.Decimal `json:"current_spending"`
		SuggestedReduction float64         `json:"suggested_reduction"`
		PotentialSavings   decimal.Decimal `json:"potential_savings"`
		Description        string          `json:"description"`
	}

	User struct {
		ID             string    `json:"id"`
		Email          string    `json:"email"`
		PasswordHash   string    `json:"-"`
		Name           string    `json:"name,omitempty"`
		WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	CSVFile struct {
		ID         string    `json:"id"`
		UserID     string    `json:"user_id"`
		Filename   string    `json:"filename"`
		Content    string    `json:"-"`
		ArchiveURI string    `json:"archive_uri,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDepositAmount = errors.New("deposit amount must be positive")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 500 characters)")
	ErrEmptyCategory        = errors.New("empty category")
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidPeriod        = errors.New("invalid budget period")
	ErrInvalidDate          = errors.New("invalid date")
	ErrMissingGoal          = errors.New("missing savings goal id")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
)

const maxDescriptionLength = 500

var whatsAppPattern = regexp.MustCompile(`^\+?[\d\s-]{10,15}$`)

// ValidWhatsAppNumber reports whether number looks like a phone number
// WhatsApp can deliver to.
func ValidWhatsAppNumber(number string) bool {
	return whatsAppPattern.MatchString(number)
}

func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodWeekly, PeriodYearly:
		return true
	}
	return false
}

// IsExpense reports whether the transaction moves money out of the account.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction moves money into the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Spend returns the absolute amount of an expense, zero for anything else.
func (t Transaction) Spend() decimal.Decimal {
	if !t.IsExpense() {
		return decimal.Zero
	}
	return t.Amount.Abs()
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Reached reports whether the goal's current amount covers its target.
func (g SavingsGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

func (d Deposit) Validate() error {
	if strings.TrimSpace(d.SavingsGoalID) == "" {
		return ErrMissingGoal
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidDepositAmount
	}
	return nil
}
