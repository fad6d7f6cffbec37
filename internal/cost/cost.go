// Package cost totals equipment usage against a payment scheme.
package cost

import (
	"fmt"
	"sort"

	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
)

// Selection maps equipment names to used quantities.
type Selection map[string]int

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Positive returns the names with a quantity above zero, sorted.
func (s Selection) Positive() []string {
	var names []string
	for name, qty := range s {
		if qty > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Line is the cost of one equipment item.
type Line struct {
	Name              string
	Quantity          int
	UnitCost          decimal.Decimal
	UnitReimbursement decimal.Decimal
	Cost              decimal.Decimal
	Reimbursement     decimal.Decimal
}

// Summary is the itemized result of a calculation.
type Summary struct {
	Scheme             tables.SchemeID
	Lines              []Line
	TotalCost          decimal.Decimal
	TotalReimbursement decimal.Decimal
	OutOfPocket        decimal.Decimal
}

// ConsistencyError reports a selection that does not match the loaded
// catalog or scheme table. It is an internal error, never a user one.
type ConsistencyError struct {
	Item   string
	Scheme tables.SchemeID
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("inconsistent session data: scheme %q: %s", e.Scheme, e.Reason)
	}
	return fmt.Sprintf("inconsistent session data: equipment %q: %s", e.Item, e.Reason)
}

// Calculator prices selections against a catalog.
type Calculator struct {
	catalog *catalog.Catalog
	tables  *tables.Tables
}

// NewCalculator creates a calculator over immutable reference data.
func NewCalculator(c *catalog.Catalog, t *tables.Tables) *Calculator {
	return &Calculator{catalog: c, tables: t}
}

// Calculate totals a selection under a scheme. Quantities of zero or less are
// ignored. Lines follow catalog order.
func (c *Calculator) Calculate(scheme tables.SchemeID, sel Selection) (Summary, error) {
	if _, ok := c.tables.Scheme(scheme); !ok {
		return Summary{}, &ConsistencyError{Scheme: scheme, Reason: "unknown scheme"}
	}

	summary := Summary{
		Scheme:             scheme,
		TotalCost:          decimal.Zero,
		TotalReimbursement: decimal.Zero,
		OutOfPocket:        decimal.Zero,
	}

	// Resolve every positive entry first so unknown items fail the whole call.
	wanted := make(map[string]int, len(sel))
	for _, name := range sel.Positive() {
		item, ok := c.catalog.Lookup(name)
		if !ok {
			return Summary{}, &ConsistencyError{Item: name, Reason: "not in catalog"}
		}
		wanted[item.Name] += sel[name]
	}

	for _, item := range c.catalog.Items() {
		qty, ok := wanted[item.Name]
		if !ok {
			continue
		}
		unitReimb, ok := item.ReimbursementFor(scheme)
		if !ok {
			return Summary{}, &ConsistencyError{Item: item.Name, Scheme: scheme, Reason: "no reimbursement for scheme"}
		}

		q := decimal.NewFromInt(int64(qty))
		line := Line{
			Name:              item.Name,
			Quantity:          qty,
			UnitCost:          item.Cost,
			UnitReimbursement: unitReimb,
			Cost:              item.Cost.Mul(q),
			Reimbursement:     unitReimb.Mul(q),
		}
		summary.Lines = append(summary.Lines, line)
		summary.TotalCost = summary.TotalCost.Add(line.Cost)
		summary.TotalReimbursement = summary.TotalReimbursement.Add(line.Reimbursement)
	}

	summary.OutOfPocket = decimal.Max(decimal.Zero, summary.TotalCost.Sub(summary.TotalReimbursement))
	return summary, nil
}
