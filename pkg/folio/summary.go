package folio

import (
	"context"

	"github.com/shopspring/decimal"
)

// Summarize folds holdings into a portfolio summary.
//
// Holdings with quantity <= 0 contribute nothing, not even to HoldingsCount.
// A holding without a known current price is valued at its cost basis.
// Best and worst performers keep the first holding seen on ties, so the
// caller's ordering decides between equal gains.
func Summarize(investments []Investment) PortfolioSummary {
	totalValue := decimal.Zero
	totalInvested := decimal.Zero
	count := 0
	var best, worst *Performer
	var bestGain, worstGain decimal.Decimal

	for _, inv := range investments {
		if !inv.Quantity.IsPositive() {
			continue
		}
		count++

		price := inv.AveragePurchasePrice.Decimal
		if inv.CurrentPrice != nil {
			price = inv.CurrentPrice.Decimal
		}
		invested := inv.Quantity.Mul(inv.AveragePurchasePrice.Decimal)
		value := inv.Quantity.Mul(price)
		totalInvested = totalInvested.Add(invested)
		totalValue = totalValue.Add(value)

		gain := gainPercent(value, invested)
		if best == nil || gain.GreaterThan(bestGain) {
			bestGain = gain
			best = &Performer{Symbol: inv.Symbol, GainPercent: amountOf(gain.Round(percentScale))}
		}
		if worst == nil || gain.LessThan(worstGain) {
			worstGain = gain
			worst = &Performer{Symbol: inv.Symbol, GainPercent: amountOf(gain.Round(percentScale))}
		}
	}

	overallGain := totalValue.Sub(totalInvested)
	return PortfolioSummary{
		TotalValue:         amountOf(totalValue),
		TotalInvested:      amountOf(totalInvested),
		OverallGain:        amountOf(overallGain),
		OverallGainPercent: amountOf(gainPercent(totalValue, totalInvested).Round(percentScale)),
		HoldingsCount:      count,
		BestPerformer:      best,
		WorstPerformer:     worst,
	}
}

func gainPercent(value, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(invested).DivRound(invested, divisionPrecision).Mul(hundred)
}

// GetPortfolioSummary returns the summary of a portfolio owned by userID.
func (c *Core) GetPortfolioSummary(ctx context.Context, userID, portfolioID string) (*PortfolioSummary, error) {
	if err := c.VerifyPortfolioOwnership(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	cached, generation, ok := c.cache.get(portfolioID)
	if ok {
		return &cached, nil
	}
	investments, err := c.listInvestments(ctx, c.db, portfolioID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(investments)
	c.cache.set(portfolioID, generation, summary)
	return &summary, nil
}
