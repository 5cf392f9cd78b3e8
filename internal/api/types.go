package api

import "folio/pkg/folio"

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// createTransactionPayload mirrors folio.CreateTransactionRequest but takes the
// date as a string so bare YYYY-MM-DD dates are accepted.
type createTransactionPayload struct {
	InvestmentID    string        `json:"investmentId"`
	TransactionType string        `json:"transactionType"`
	Quantity        *folio.Amount `json:"quantity"`
	PricePerUnit    *folio.Amount `json:"pricePerUnit"`
	Fees            *folio.Amount `json:"fees"`
	TransactionDate string        `json:"transactionDate"`
	Notes           *string       `json:"notes"`
}

func (p createTransactionPayload) toRequest() (folio.CreateTransactionRequest, error) {
	if p.Quantity == nil {
		return folio.CreateTransactionRequest{}, badRequest("quantity is required")
	}
	if p.PricePerUnit == nil {
		return folio.CreateTransactionRequest{}, badRequest("pricePerUnit is required")
	}
	req := folio.CreateTransactionRequest{
		InvestmentID:    p.InvestmentID,
		TransactionType: folio.TransactionType(p.TransactionType),
		Quantity:        *p.Quantity,
		PricePerUnit:    *p.PricePerUnit,
		Fees:            p.Fees,
		Notes:           p.Notes,
	}
	if p.TransactionDate != "" {
		date, err := folio.ParseDate(p.TransactionDate, false)
		if err != nil {
			return folio.CreateTransactionRequest{}, err
		}
		req.TransactionDate = &date
	}
	return req, nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
}
