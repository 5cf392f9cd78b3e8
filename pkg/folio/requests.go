package folio

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
	MaxSymbolLength      = 20
	MaxNotesLength       = 2000

	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxPage          = 1_000_000
)

// CreatePortfolioRequest holds the fields for a new portfolio.
type CreatePortfolioRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (r *CreatePortfolioRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := checkLength("Name", r.Name, 1, MaxNameLength); err != nil {
		return err
	}
	if r.Description != nil {
		if err := checkLength("Description", *r.Description, 0, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePortfolioRequest is a partial update; nil fields are left untouched.
type UpdatePortfolioRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (r *UpdatePortfolioRequest) normalize() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if err := checkLength("Name", name, 1, MaxNameLength); err != nil {
			return err
		}
		r.Name = &name
	}
	if r.Description != nil {
		if err := checkLength("Description", *r.Description, 0, MaxDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvestmentRequest holds the fields for a new holding. Quantity and
// average price are not accepted; a holding always starts empty.
type CreateInvestmentRequest struct {
	PortfolioID  string  `json:"portfolioId"`
	AssetType    *string `json:"assetType,omitempty"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice *Amount `json:"currentPrice,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (r *CreateInvestmentRequest) normalize() error {
	if !IsValidID(r.PortfolioID) {
		return validationError("Invalid portfolio ID")
	}
	r.Symbol = normalizeSymbol(r.Symbol)
	if err := checkLength("Symbol", r.Symbol, 1, MaxSymbolLength); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := checkLength("Name", r.Name, 1, MaxNameLength); err != nil {
		return err
	}
	return normalizeHoldingFields(&r.AssetType, r.CurrentPrice, &r.Currency, r.Notes)
}

// UpdateInvestmentRequest is a partial update; nil fields are left untouched.
type UpdateInvestmentRequest struct {
	AssetType    *string `json:"assetType,omitempty"`
	Symbol       *string `json:"symbol,omitempty"`
	Name         *string `json:"name,omitempty"`
	CurrentPrice *Amount `json:"currentPrice,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (r *UpdateInvestmentRequest) normalize() error {
	if r.Symbol != nil {
		symbol := normalizeSymbol(*r.Symbol)
		if err := checkLength("Symbol", symbol, 1, MaxSymbolLength); err != nil {
			return err
		}
		r.Symbol = &symbol
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if err := checkLength("Name", name, 1, MaxNameLength); err != nil {
			return err
		}
		r.Name = &name
	}
	return normalizeHoldingFields(&r.AssetType, r.CurrentPrice, &r.Currency, r.Notes)
}

func (r *UpdateInvestmentRequest) empty() bool {
	return r.AssetType == nil && r.Symbol == nil && r.Name == nil &&
		r.CurrentPrice == nil && r.Currency == nil && r.Notes == nil
}

func normalizeHoldingFields(assetType **string, currentPrice *Amount, currency **string, notes *string) error {
	if *assetType != nil {
		code := strings.ToLower(strings.TrimSpace(**assetType))
		if code == "" {
			*assetType = nil
		} else {
			*assetType = &code
		}
	}
	if currentPrice != nil {
		if err := checkPrice("Current price", *currentPrice); err != nil {
			return err
		}
		if currentPrice.IsNegative() {
			return validationError("Current price must be non-negative")
		}
	}
	if *currency != nil {
		code := normalizeCurrency(**currency)
		if !isValidCurrency(code) {
			return validationError("Invalid currency: %s", **currency)
		}
		*currency = &code
	}
	if notes != nil {
		if err := checkLength("Notes", *notes, 0, MaxNotesLength); err != nil {
			return err
		}
	}
	return nil
}

// CreateTransactionRequest records a buy or sell against a holding.
type CreateTransactionRequest struct {
	InvestmentID    string          `json:"investmentId"`
	TransactionType TransactionType `json:"transactionType"`
	Quantity        Amount          `json:"quantity"`
	PricePerUnit    Amount          `json:"pricePerUnit"`
	Fees            *Amount         `json:"fees,omitempty"`
	TransactionDate *time.Time      `json:"transactionDate,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

func (r *CreateTransactionRequest) normalize() error {
	if !IsValidID(r.InvestmentID) {
		return validationError("Invalid investment ID")
	}
	txType, err := ParseTransactionType(strings.ToLower(strings.TrimSpace(string(r.TransactionType))))
	if err != nil {
		return err
	}
	r.TransactionType = txType
	if err := checkQuantity("Quantity", r.Quantity); err != nil {
		return err
	}
	if err := checkPrice("Price per unit", r.PricePerUnit); err != nil {
		return err
	}
	if r.Fees != nil {
		if err := checkPrice("Fees", *r.Fees); err != nil {
			return err
		}
	}
	r.Quantity = r.Quantity.asQuantity()
	if !r.Quantity.IsPositive() {
		return validationError("Quantity must be positive")
	}
	r.PricePerUnit = r.PricePerUnit.asPrice()
	if r.PricePerUnit.IsNegative() {
		return validationError("Price per unit must be non-negative")
	}
	if r.Fees != nil {
		fees := r.Fees.asPrice()
		if fees.IsNegative() {
			return validationError("Fees must be non-negative")
		}
		r.Fees = &fees
	}
	if r.Notes != nil {
		if err := checkLength("Notes", *r.Notes, 0, MaxNotesLength); err != nil {
			return err
		}
	}
	return nil
}

// TransactionFilter narrows a portfolio ledger query. Zero values mean no filter.
type TransactionFilter struct {
	Type      TransactionType
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

func (f *TransactionFilter) normalize() error {
	if f.Type != "" {
		txType, err := ParseTransactionType(strings.ToLower(string(f.Type)))
		if err != nil {
			return err
		}
		f.Type = txType
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return validationError("End date must not be before start date")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		return validationError("Page must be at most %d", MaxPage)
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return nil
}

func (f TransactionFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates. A bare date used
// as an upper bound expands to the last instant of that day.
func ParseDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, validationError("Invalid date: %s", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return validationError("%s is required", field)
		}
		return validationError("%s must be at least %d characters", field, min)
	}
	if n > max {
		return validationError("%s must be at most %d characters", field, max)
	}
	return nil
}
