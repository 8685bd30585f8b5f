package services

import (
	"github.com/shopspring/decimal"

	"wholesale-backend/internal/models"
)

// DefaultVatRate applies when no rate is configured
var DefaultVatRate = decimal.RequireFromString("0.1")

// Pricing computes the monetary split of order lines and returns.
// VAT is floor(supply * rate) on taxable items only.
type Pricing struct {
	VatRate decimal.Decimal
}

func NewPricing(vatRate decimal.Decimal) Pricing {
	return Pricing{VatRate: vatRate}
}

// LineAmounts prices qty units at unitPrice
func (p Pricing) LineAmounts(qty int, unitPrice int64, taxable bool) models.Amounts {
	supply := int64(qty) * unitPrice
	a := models.Amounts{SupplyAmount: supply}
	if taxable {
		a.TaxableAmount = supply
		a.VatAmount = decimal.NewFromInt(supply).Mul(p.VatRate).Floor().IntPart()
	} else {
		a.TaxFreeAmount = supply
	}
	a.TotalAmount = supply + a.VatAmount
	return a
}

// ReturnAmounts prices a returned portion of line. The line's own split decides
// taxability so a later catalog change does not reprice old orders; a zero-priced
// line falls back to the item flag.
func (p Pricing) ReturnAmounts(line *models.OrderLine, qty int, itemTaxable bool) models.Amounts {
	taxable := itemTaxable
	if line.SupplyAmount > 0 {
		taxable = line.TaxableAmount > 0
	}
	return p.LineAmounts(qty, line.UnitPrice, taxable)
}

// HeaderTotals sums the amounts and quantities of lines
func HeaderTotals(lines []models.OrderLine) (models.Amounts, int) {
	var total models.Amounts
	qty := 0
	for _, l := range lines {
		total.Add(l.Amounts)
		qty += l.OrderQuantity
	}
	return total, qty
}
