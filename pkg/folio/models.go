package folio

import "time"

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// DefaultAssetTypes are seeded into a fresh database.
var DefaultAssetTypes = []AssetType{
	{Code: "stock", Label: "Stock", Description: "Equity shares of a listed company"},
	{Code: "etf", Label: "ETF", Description: "Exchange-traded fund"},
	{Code: "bond", Label: "Bond", Description: "Fixed income security"},
	{Code: "crypto", Label: "Cryptocurrency", Description: "Digital asset"},
	{Code: "mutual_fund", Label: "Mutual Fund", Description: "Pooled investment fund"},
	{Code: "commodity", Label: "Commodity", Description: "Physical goods such as gold or oil"},
	{Code: "real_estate", Label: "Real Estate", Description: "Property or REIT holdings"},
	{Code: "cash", Label: "Cash", Description: "Cash and cash equivalents"},
}

// User is a registered account holder.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is a stored, revocable refresh credential.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// AssetType classifies an investment.
type AssetType struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Portfolio groups investments owned by a single user.
type Portfolio struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsActive    bool       `json:"isActive"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Investment is a holding of one symbol inside one portfolio.
type Investment struct {
	ID                   string     `json:"id"`
	PortfolioID          string     `json:"portfolioId"`
	AssetType            *string    `json:"assetType"`
	Symbol               string     `json:"symbol"`
	Name                 string     `json:"name"`
	Quantity             Amount     `json:"quantity"`
	AveragePurchasePrice Amount     `json:"averagePurchasePrice"`
	CurrentPrice         *Amount    `json:"currentPrice"`
	Currency             *string    `json:"currency"`
	Notes                *string    `json:"notes"`
	IsActive             bool       `json:"isActive"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// State returns the cost-basis view of the holding.
func (i Investment) State() HoldingState {
	return HoldingState{Quantity: i.Quantity, AveragePrice: i.AveragePurchasePrice}
}

// Transaction is an immutable buy or sell entry in the ledger.
type Transaction struct {
	ID              string          `json:"id"`
	InvestmentID    string          `json:"investmentId"`
	TransactionType TransactionType `json:"transactionType"`
	Quantity        Amount          `json:"quantity"`
	PricePerUnit    Amount          `json:"pricePerUnit"`
	Fees            *Amount         `json:"fees"`
	TransactionDate time.Time       `json:"transactionDate"`
	Notes           *string         `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	Symbol          string          `json:"symbol,omitempty"`
}

// TransactionPage is one page of a filtered ledger query.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
}

// Performer identifies the best or worst holding of a summary.
type Performer struct {
	Symbol      string `json:"symbol"`
	GainPercent Amount `json:"gainPercent"`
}

// PortfolioSummary is derived on demand from the live holdings of a portfolio.
type PortfolioSummary struct {
	TotalValue         Amount     `json:"totalValue"`
	TotalInvested      Amount     `json:"totalInvested"`
	OverallGain        Amount     `json:"overallGain"`
	OverallGainPercent Amount     `json:"overallGainPercent"`
	HoldingsCount      int        `json:"holdingsCount"`
	BestPerformer      *Performer `json:"bestPerformer"`
	WorstPerformer     *Performer `json:"worstPerformer"`
}

// OperationLog represents an audit log record.
type OperationLog struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId"`
	Operation string    `json:"operation"`
	EntityID  *string   `json:"entityId"`
	Details   *string   `json:"details"`
	OldValue  *string   `json:"oldValue"`
	NewValue  *string   `json:"newValue"`
	CreatedAt time.Time `json:"createdAt"`
}

// Operation log kinds.
const (
	OpTransactionRecorded = "TRANSACTION_RECORDED"
	OpInvestmentCreated   = "INVESTMENT_CREATED"
	OpInvestmentUpdated   = "INVESTMENT_UPDATED"
	OpInvestmentDeleted   = "INVESTMENT_DELETED"
	OpPortfolioCreated    = "PORTFOLIO_CREATED"
	OpPortfolioUpdated    = "PORTFOLIO_UPDATED"
	OpPortfolioDeleted    = "PORTFOLIO_DELETED"
)
