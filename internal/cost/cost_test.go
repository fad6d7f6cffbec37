package cost

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()

	tb, err := tables.Default()
	if err != nil {
		t.Fatalf("tables.Default failed: %v", err)
	}

	item := func(name string, cost, reimbA, reimbE float64) catalog.Item {
		return catalog.Item{
			Name: name,
			Cost: decimal.NewFromFloat(cost),
			Reimbursement: map[tables.SchemeID]decimal.Decimal{
				"A": decimal.NewFromFloat(reimbA),
				"B": decimal.NewFromFloat(reimbA),
				"C": decimal.NewFromFloat(reimbA),
				"D": decimal.NewFromFloat(reimbA),
				"E": decimal.NewFromFloat(reimbE),
			},
		}
	}

	cat, err := catalog.New([]catalog.Item{
		item("Wire", 100, 80, 0),
		item("Balloon", 50, 80, 0),
		item("Coil", 0.1, 0.05, 0),
	})
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	return NewCalculator(cat, tb)
}

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if got.StringFixed(2) != want {
		t.Errorf("Expected %s %s, got %s", label, want, got.StringFixed(2))
	}
}

func TestCalculate_SingleItem(t *testing.T) {
	c := testCalculator(t)

	s, err := c.Calculate("A", Selection{"Wire": 2})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	assertAmount(t, "total cost", s.TotalCost, "200.00")
	assertAmount(t, "total reimbursement", s.TotalReimbursement, "160.00")
	assertAmount(t, "out-of-pocket", s.OutOfPocket, "40.00")

	if len(s.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(s.Lines))
	}
	if s.Lines[0].Name != "Wire" || s.Lines[0].Quantity != 2 {
		t.Errorf("Unexpected line: %+v", s.Lines[0])
	}
}

func TestCalculate_EmptySelection(t *testing.T) {
	c := testCalculator(t)

	s, err := c.Calculate("A", Selection{})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	assertAmount(t, "total cost", s.TotalCost, "0.00")
	assertAmount(t, "total reimbursement", s.TotalReimbursement, "0.00")
	assertAmount(t, "out-of-pocket", s.OutOfPocket, "0.00")
	if len(s.Lines) != 0 {
		t.Errorf("Expected no lines, got %d", len(s.Lines))
	}
}

func TestCalculate_ReimbursementAboveCost(t *testing.T) {
	c := testCalculator(t)

	s, err := c.Calculate("A", Selection{"Balloon": 1})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	assertAmount(t, "total cost", s.TotalCost, "50.00")
	assertAmount(t, "total reimbursement", s.TotalReimbursement, "80.00")
	assertAmount(t, "out-of-pocket", s.OutOfPocket, "0.00")
}

func TestCalculate_ZeroQuantitiesIgnored(t *testing.T) {
	c := testCalculator(t)

	with, err := c.Calculate("E", Selection{"Wire": 1, "Balloon": 0, "Coil": -3})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	without, err := c.Calculate("E", Selection{"Wire": 1})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if !reflect.DeepEqual(with, without) {
		t.Errorf("Zero quantities changed the result:\n%+v\n%+v", with, without)
	}
	assertAmount(t, "out-of-pocket", with.OutOfPocket, "100.00")
}

func TestCalculate_NoFloatDrift(t *testing.T) {
	c := testCalculator(t)

	s, err := c.Calculate("A", Selection{"Coil": 3})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if !s.TotalCost.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("Expected exact 0.3, got %s", s.TotalCost)
	}
	if !s.OutOfPocket.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("Expected exact 0.15, got %s", s.OutOfPocket)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	c := testCalculator(t)
	sel := Selection{"Wire": 3, "Balloon": 2, "Coil": 10}

	first, err := c.Calculate("C", sel)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	second, err := c.Calculate("C", sel)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Calculate is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestCalculate_LinesFollowCatalogOrder(t *testing.T) {
	c := testCalculator(t)

	s, err := c.Calculate("A", Selection{"Coil": 1, "Wire": 1, "Balloon": 1})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	want := []string{"Wire", "Balloon", "Coil"}
	for i, line := range s.Lines {
		if line.Name != want[i] {
			t.Errorf("Line %d: expected %s, got %s", i, want[i], line.Name)
		}
	}
}

func TestCalculate_OutOfPocketNeverNegative(t *testing.T) {
	c := testCalculator(t)

	for _, scheme := range []tables.SchemeID{"A", "B", "C", "D", "E"} {
		for qty := 0; qty <= 5; qty++ {
			s, err := c.Calculate(scheme, Selection{"Wire": qty, "Balloon": 5 - qty})
			if err != nil {
				t.Fatalf("Calculate failed: %v", err)
			}
			if s.OutOfPocket.IsNegative() {
				t.Errorf("Scheme %s qty %d: negative out-of-pocket %s", scheme, qty, s.OutOfPocket)
			}
		}
	}
}

func TestCalculate_ConsistencyErrors(t *testing.T) {
	c := testCalculator(t)

	tests := []struct {
		name   string
		scheme tables.SchemeID
		sel    Selection
	}{
		{"unknown item", "A", Selection{"Stent": 1}},
		{"unknown scheme", "Z", Selection{"Wire": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Calculate(tt.scheme, tt.sel)
			var ce *ConsistencyError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ConsistencyError, got %v", err)
			}
		})
	}
}

func TestSelection_Positive(t *testing.T) {
	sel := Selection{"b": 1, "a": 2, "c": 0}
	got := sel.Positive()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", got)
	}

	clone := sel.Clone()
	clone["a"] = 9
	if sel["a"] != 2 {
		t.Error("Clone shares storage with the original")
	}
}
