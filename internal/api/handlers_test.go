package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/pkg/folio"
)

func TestAuthFlow(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})

	rr := doRequest(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Alice@Example.com", "password": "password123", "firstName": "Alice",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	session := dataOf(t, rr)
	user := session["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotEmpty(t, session["refreshToken"])

	rr = doRequest(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	assertErrorEnvelope(t, rr, http.StatusConflict, folio.ErrCodeDuplicate)

	rr = doRequest(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	body := assertErrorEnvelope(t, rr, http.StatusUnauthorized, folio.ErrCodeUnauthorized)
	assert.Equal(t, "Invalid email or password", body["message"])

	rr = doRequest(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	login := dataOf(t, rr)
	access := login["accessToken"].(string)
	refresh := login["refreshToken"].(string)

	rr = doRequest(router, http.MethodGet, "/api/auth/me", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Alice", dataOf(t, rr)["firstName"])

	rr = doRequest(router, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	rotated := dataOf(t, rr)["refreshToken"].(string)
	assert.NotEqual(t, refresh, rotated)

	rr = doRequest(router, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	assertErrorEnvelope(t, rr, http.StatusUnauthorized, folio.ErrCodeUnauthorized)

	rr = doRequest(router, http.MethodPost, "/api/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Logged out", parseJSON(t, rr)["message"])

	rr = doRequest(router, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": rotated})
	assertErrorEnvelope(t, rr, http.StatusUnauthorized, folio.ErrCodeUnauthorized)
}

func TestAuthRequired(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "bob@example.com")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic Ym9iOnNlY3JldA=="},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"tampered token", "Bearer " + token + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/portfolios", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assertErrorEnvelope(t, rr, http.StatusUnauthorized, folio.ErrCodeUnauthorized)
		})
	}

	rr := doRequest(router, http.MethodGet, "/api/portfolios", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	rr := doRequest(router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	refresh := dataOf(t, rr)["refreshToken"].(string)

	rr = doRequest(router, http.MethodGet, "/api/auth/me", refresh, nil)
	assertErrorEnvelope(t, rr, http.StatusUnauthorized, folio.ErrCodeUnauthorized)
}

func TestAuthRateLimit(t *testing.T) {
	router, _ := setupTestRouter(t, Options{AuthRatePerMinute: 2})

	login := map[string]string{"email": "nobody@example.com", "password": "password123"}
	for i := 0; i < 2; i++ {
		rr := doRequest(router, http.MethodPost, "/api/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := doRequest(router, http.MethodPost, "/api/auth/login", "", login)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMITED", parseJSON(t, rr)["error_code"])
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Other routes are not limited.
	rr = doRequest(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestIPRateLimiter_PerClient(t *testing.T) {
	limiter := newIPRateLimiter(1)
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))
	assert.Len(t, limiter.visitors, 2)
}

func TestPortfolioLifecycle(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "dave@example.com")

	rr := doRequest(router, http.MethodPost, "/api/portfolios", token, map[string]string{
		"name": "  Retirement  ", "description": "Long term",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	created := dataOf(t, rr)
	id := created["id"].(string)
	assert.Equal(t, "Retirement", created["name"])
	assert.Equal(t, true, created["isActive"])

	rr = doRequest(router, http.MethodGet, "/api/portfolios", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, dataList(t, rr), 1)

	rr = doRequest(router, http.MethodPut, "/api/portfolios/"+id, token, map[string]any{"name": "Pension"})
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	updated := dataOf(t, rr)
	assert.Equal(t, "Pension", updated["name"])
	assert.Equal(t, "Long term", updated["description"])

	rr = doRequest(router, http.MethodGet, "/api/portfolios/"+id+"/summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := dataOf(t, rr)
	assertNumber(t, "0", summary["totalValue"])
	assert.Equal(t, "0", fmt.Sprint(summary["holdingsCount"]))
	assert.Nil(t, summary["bestPerformer"])

	rr = doRequest(router, http.MethodDelete, "/api/portfolios/"+id, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, http.MethodGet, "/api/portfolios/"+id, token, nil)
	assertErrorEnvelope(t, rr, http.StatusNotFound, folio.ErrCodeNotFound)

	rr = doRequest(router, http.MethodGet, "/api/portfolios", token, nil)
	assert.Empty(t, dataList(t, rr))
}

func TestTransactionFlow(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "erin@example.com")
	portfolioID := createPortfolio(t, router, token, "Growth")
	investmentID := createInvestment(t, router, token, portfolioID, "acme")

	rr := doRequest(router, http.MethodGet, "/api/investments/"+investmentID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	inv := dataOf(t, rr)
	assert.Equal(t, "ACME", inv["symbol"])
	assertNumber(t, "0", inv["quantity"])

	steps := []struct {
		txType, quantity, price string
		wantQty, wantAvg        string
	}{
		{"buy", "10", "100", "10", "100"},
		{"buy", "10", "200", "20", "150"},
		{"sell", "5", "300", "15", "150"},
	}
	for _, step := range steps {
		rr := recordTransaction(router, token, investmentID, step.txType, step.quantity, step.price)
		require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
		txn := dataOf(t, rr)
		assert.Equal(t, step.txType, txn["transactionType"])
		assert.Equal(t, "ACME", txn["symbol"])

		rr = doRequest(router, http.MethodGet, "/api/investments/"+investmentID, token, nil)
		inv := dataOf(t, rr)
		assertNumber(t, step.wantQty, inv["quantity"])
		assertNumber(t, step.wantAvg, inv["averagePurchasePrice"])
		assertNumber(t, step.price, inv["currentPrice"])
	}

	rr = recordTransaction(router, token, investmentID, "sell", "20", "300")
	body := assertErrorEnvelope(t, rr, http.StatusBadRequest, folio.ErrCodeInsufficientQuantity)
	assert.Equal(t, "Insufficient quantity. You have 15 units but tried to sell 20.", body["message"])

	rr = doRequest(router, http.MethodGet, "/api/investments/"+investmentID, token, nil)
	assertNumber(t, "15", dataOf(t, rr)["quantity"])

	rr = doRequest(router, http.MethodGet, "/api/portfolios/"+portfolioID+"/summary", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := dataOf(t, rr)
	assertNumber(t, "4500", summary["totalValue"])
	assertNumber(t, "2250", summary["totalInvested"])
	assertNumber(t, "2250", summary["overallGain"])
	assertNumber(t, "100", summary["overallGainPercent"])
	best := summary["bestPerformer"].(map[string]interface{})
	assert.Equal(t, "ACME", best["symbol"])

	rr = doRequest(router, http.MethodGet, "/api/investments/"+investmentID+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	ledger := dataList(t, rr)
	require.Len(t, ledger, 3)

	firstID := ledger[0].(map[string]interface{})["id"].(string)
	rr = doRequest(router, http.MethodGet, "/api/transactions/"+firstID, token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, http.MethodDelete, "/api/investments/"+investmentID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(router, http.MethodGet, "/api/investments/"+investmentID, token, nil)
	assertErrorEnvelope(t, rr, http.StatusNotFound, folio.ErrCodeNotFound)
	rr = recordTransaction(router, token, investmentID, "buy", "1", "1")
	assertErrorEnvelope(t, rr, http.StatusNotFound, folio.ErrCodeNotFound)

	rr = doRequest(router, http.MethodGet, "/api/operation-logs?limit=2", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, dataList(t, rr), 2)
}

func TestTransactionAcceptsStringAmountsAndDates(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "frank@example.com")
	portfolioID := createPortfolio(t, router, token, "Main")
	investmentID := createInvestment(t, router, token, portfolioID, "BOND")

	rr := doRequest(router, http.MethodPost, "/api/transactions", token, map[string]any{
		"investmentId": investmentID, "transactionType": "BUY",
		"quantity": "2.5", "pricePerUnit": "99.999", "fees": "1.25",
		"transactionDate": "2024-03-01", "notes": "first lot",
	})
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	txn := dataOf(t, rr)
	assert.Equal(t, "buy", txn["transactionType"])
	assertNumber(t, "2.5", txn["quantity"])
	assertNumber(t, "100", txn["pricePerUnit"])
	assertNumber(t, "1.25", txn["fees"])
	assert.Equal(t, "2024-03-01T00:00:00Z", txn["transactionDate"])
	assert.Equal(t, "first lot", txn["notes"])
}

func TestPortfolioTransactionFilters(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "grace@example.com")
	portfolioID := createPortfolio(t, router, token, "Main")
	investmentID := createInvestment(t, router, token, portfolioID, "XYZ")

	for _, tx := range []struct{ txType, quantity, date string }{
		{"buy", "10", "2024-03-01"},
		{"buy", "5", "2024-03-15T10:00:00Z"},
		{"sell", "3", "2024-04-01"},
	} {
		rr := doRequest(router, http.MethodPost, "/api/transactions", token, map[string]any{
			"investmentId": investmentID, "transactionType": tx.txType,
			"quantity": tx.quantity, "pricePerUnit": "10", "transactionDate": tx.date,
		})
		require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	}

	base := "/api/portfolios/" + portfolioID + "/transactions"
	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantItems int
	}{
		{"all", "", 3, 3},
		{"buys", "?type=buy", 2, 2},
		{"date-only end is inclusive", "?endDate=2024-03-15", 2, 2},
		{"range", "?startDate=2024-03-02&endDate=2024-03-31", 1, 1},
		{"second page", "?limit=2&page=2", 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, http.MethodGet, base+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
			page := dataOf(t, rr)
			assert.Equal(t, fmt.Sprint(tt.wantTotal), fmt.Sprint(page["total"]))
			assert.Len(t, page["transactions"], tt.wantItems)
		})
	}

	rr := doRequest(router, http.MethodGet, base+"?startDate=yesterday", token, nil)
	assertErrorEnvelope(t, rr, http.StatusBadRequest, folio.ErrCodeValidation)
	rr = doRequest(router, http.MethodGet, base+"?type=hold", token, nil)
	assertErrorEnvelope(t, rr, http.StatusBadRequest, folio.ErrCodeValidation)
}

func TestValidationErrors(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "heidi@example.com")
	portfolioID := createPortfolio(t, router, token, "Main")
	investmentID := createInvestment(t, router, token, portfolioID, "VAL")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"non-uuid portfolio id", http.MethodGet, "/api/portfolios/123", nil},
		{"non-uuid investment id", http.MethodDelete, "/api/investments/abc", nil},
		{"non-uuid transaction id", http.MethodGet, "/api/transactions/abc", nil},
		{"malformed json", http.MethodPost, "/api/portfolios", "{"},
		{"empty body", http.MethodPost, "/api/portfolios", nil},
		{"unknown field", http.MethodPost, "/api/portfolios", map[string]string{"name": "x", "colour": "red"}},
		{"blank portfolio name", http.MethodPost, "/api/portfolios", map[string]string{"name": "   "}},
		{"bad portfolio reference", http.MethodPost, "/api/investments", map[string]string{"portfolioId": "nope", "symbol": "A", "name": "A"}},
		{"unknown asset type", http.MethodPost, "/api/investments", map[string]string{"portfolioId": portfolioID, "symbol": "A", "name": "A", "assetType": "tulips"}},
		{"bad transaction type", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "hold", "quantity": 1, "pricePerUnit": 1}},
		{"negative price", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": 1, "pricePerUnit": -1}},
		{"zero quantity", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": 0, "pricePerUnit": 1}},
		{"missing quantity", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "pricePerUnit": 1}},
		{"non-numeric quantity", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": "ten", "pricePerUnit": 1}},
		{"bad date", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": 1, "pricePerUnit": 1, "transactionDate": "03/01/2024"}},
		{"huge quantity exponent", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": "1e300000000", "pricePerUnit": 1}},
		{"quantity too many digits", http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "buy", "quantity": "12345678901", "pricePerUnit": 1}},
		{"current price out of range", http.MethodPut, "/api/investments/" + investmentID, map[string]any{"currentPrice": "1e40"}},
		{"oversized body", http.MethodPost, "/api/portfolios", `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`},
		{"non-numeric page", http.MethodGet, "/api/portfolios/" + portfolioID + "/transactions?page=two", nil},
		{"page out of range", http.MethodGet, "/api/portfolios/" + portfolioID + "/transactions?page=99999999999&limit=100", nil},
		{"non-numeric log limit", http.MethodGet, "/api/operation-logs?limit=all", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, tt.method, tt.path, token, tt.body)
			assertErrorEnvelope(t, rr, http.StatusBadRequest, folio.ErrCodeValidation)
		})
	}
}

func TestCrossUserAccessIsForbidden(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	owner := registerUser(t, router, "owner@example.com")
	intruder := registerUser(t, router, "intruder@example.com")

	portfolioID := createPortfolio(t, router, owner, "Private")
	investmentID := createInvestment(t, router, owner, portfolioID, "SECRET")
	rr := recordTransaction(router, owner, investmentID, "buy", "1", "10")
	require.Equal(t, http.StatusCreated, rr.Code)
	transactionID := dataOf(t, rr)["id"].(string)

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/portfolios/" + portfolioID, nil},
		{http.MethodPut, "/api/portfolios/" + portfolioID, map[string]string{"name": "mine"}},
		{http.MethodDelete, "/api/portfolios/" + portfolioID, nil},
		{http.MethodGet, "/api/portfolios/" + portfolioID + "/summary", nil},
		{http.MethodGet, "/api/portfolios/" + portfolioID + "/investments", nil},
		{http.MethodGet, "/api/portfolios/" + portfolioID + "/transactions", nil},
		{http.MethodPost, "/api/investments", map[string]string{"portfolioId": portfolioID, "symbol": "X", "name": "X"}},
		{http.MethodGet, "/api/investments/" + investmentID, nil},
		{http.MethodPut, "/api/investments/" + investmentID, map[string]string{"name": "mine"}},
		{http.MethodDelete, "/api/investments/" + investmentID, nil},
		{http.MethodGet, "/api/investments/" + investmentID + "/transactions", nil},
		{http.MethodPost, "/api/transactions", map[string]any{"investmentId": investmentID, "transactionType": "sell", "quantity": 1, "pricePerUnit": 1}},
		{http.MethodGet, "/api/transactions/" + transactionID, nil},
	}
	for _, req := range requests {
		t.Run(req.method+" "+req.path, func(t *testing.T) {
			rr := doRequest(router, req.method, req.path, intruder, req.body)
			body := assertErrorEnvelope(t, rr, http.StatusForbidden, folio.ErrCodeAccessDenied)
			assert.Equal(t, "Access denied", body["message"])
		})
	}

	rr = doRequest(router, http.MethodGet, "/api/investments/"+investmentID, owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assertNumber(t, "1", dataOf(t, rr)["quantity"])
}

func TestConcurrentBuysThroughAPI(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "ivan@example.com")
	portfolioID := createPortfolio(t, router, token, "Main")
	investmentID := createInvestment(t, router, token, portfolioID, "CONC")

	const buyers = 10
	var wg sync.WaitGroup
	codes := make([]int, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = recordTransaction(router, token, investmentID, "buy", "1", "10").Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusCreated, code)
	}
	rr := doRequest(router, http.MethodGet, "/api/investments/"+investmentID, token, nil)
	assertNumber(t, fmt.Sprint(buyers), dataOf(t, rr)["quantity"])
	assertNumber(t, "10", dataOf(t, rr)["averagePurchasePrice"])
}

func TestAssetTypesEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t, Options{})
	token := registerUser(t, router, "judy@example.com")

	rr := doRequest(router, http.MethodGet, "/api/asset-types", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	types := dataList(t, rr)
	require.NotEmpty(t, types)
	codes := make([]string, 0, len(types))
	for _, item := range types {
		codes = append(codes, item.(map[string]interface{})["code"].(string))
	}
	assert.Contains(t, codes, "stock")
}
