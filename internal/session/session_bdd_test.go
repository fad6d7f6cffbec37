package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
)

// wizardContext holds state for a single scenario
type wizardContext struct {
	tables  *tables.Tables
	catalog *catalog.Catalog
	session *Session
	lastErr error
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	wc := &wizardContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tb, err := tables.Default()
		if err != nil {
			return ctx, err
		}
		*wc = wizardContext{tables: tb}
		return ctx, nil
	})

	sc.Step(`^a catalog with:$`, wc.aCatalogWith)
	sc.Step(`^a new session$`, wc.aNewSession)
	sc.Step(`^I enter patient "([^"]*)" with HN "([^"]*)" and scheme "([^"]*)"$`, wc.iEnterPatient)
	sc.Step(`^I choose operation "([^"]*)"$`, wc.iChooseOperation)
	sc.Step(`^I choose operation "([^"]*)" named "([^"]*)"$`, wc.iChooseOperationNamed)
	sc.Step(`^I set "([^"]*)" to (-?\d+)$`, wc.iSetQuantity)
	sc.Step(`^I go next$`, wc.iGoNext)
	sc.Step(`^I go back$`, wc.iGoBack)
	sc.Step(`^I try to go back$`, wc.iTryToGoBack)
	sc.Step(`^the step should be "([^"]*)"$`, wc.theStepShouldBe)
	sc.Step(`^the total cost should be "([^"]*)"$`, wc.theTotalCostShouldBe)
	sc.Step(`^the total reimbursement should be "([^"]*)"$`, wc.theTotalReimbursementShouldBe)
	sc.Step(`^the out-of-pocket cost should be "([^"]*)"$`, wc.theOutOfPocketShouldBe)
	sc.Step(`^every quantity should be 0$`, wc.everyQuantityShouldBeZero)
	sc.Step(`^the quantity of "([^"]*)" should be (\d+)$`, wc.theQuantityShouldBe)
	sc.Step(`^the patient HN should be "([^"]*)"$`, wc.thePatientHNShouldBe)
	sc.Step(`^the operation should be "([^"]*)"$`, wc.theOperationShouldBe)
	sc.Step(`^the report should contain "([^"]*)"$`, wc.theReportShouldContain)
	sc.Step(`^the report should not contain "([^"]*)"$`, wc.theReportShouldNotContain)
	sc.Step(`^the last error should be "([^"]*)"$`, wc.theLastErrorShouldBe)
}

func (wc *wizardContext) aCatalogWith(table *godog.Table) error {
	var items []catalog.Item
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 3 {
			return fmt.Errorf("row %d: expected name, cost, reimbursement", i)
		}
		c, err := decimal.NewFromString(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		r, err := decimal.NewFromString(row.Cells[2].Value)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}

		reimb := make(map[tables.SchemeID]decimal.Decimal, len(wc.tables.Schemes))
		for _, s := range wc.tables.Schemes {
			reimb[s.ID] = r
		}
		items = append(items, catalog.Item{Name: row.Cells[0].Value, Cost: c, Reimbursement: reimb})
	}

	cat, err := catalog.New(items)
	if err != nil {
		return err
	}
	wc.catalog = cat
	return nil
}

func (wc *wizardContext) aNewSession() error {
	if wc.catalog == nil {
		return fmt.Errorf("no catalog loaded")
	}
	wc.session = New("bdd", wc.catalog, wc.tables, Options{})
	return nil
}

func (wc *wizardContext) iEnterPatient(name, hn, scheme string) error {
	first, last, _ := strings.Cut(name, " ")
	id, err := wc.tables.ParseScheme(scheme)
	if err != nil {
		return err
	}
	return wc.session.CommitPatient(Patient{
		FirstName: first,
		LastName:  last,
		HN:        hn,
		Diagnosis: "n/a",
		Scheme:    id,
	})
}

func (wc *wizardContext) iChooseOperation(name string) error {
	return wc.session.CommitOperation(name, "")
}

func (wc *wizardContext) iChooseOperationNamed(choice, custom string) error {
	return wc.session.CommitOperation(choice, custom)
}

func (wc *wizardContext) iSetQuantity(item string, qty int) error {
	_, err := wc.session.CommitEquipment(cost.Selection{item: qty})
	return err
}

func (wc *wizardContext) iGoNext() error {
	return wc.session.Next()
}

func (wc *wizardContext) iGoBack() error {
	return wc.session.Previous()
}

func (wc *wizardContext) iTryToGoBack() error {
	wc.lastErr = wc.session.Previous()
	return nil
}

func (wc *wizardContext) theStepShouldBe(name string) error {
	if got := wc.session.Step().String(); got != name {
		return fmt.Errorf("expected step %s, got %s", name, got)
	}
	return nil
}

func (wc *wizardContext) summary() (cost.Summary, error) {
	s, ok := wc.session.Summary()
	if !ok {
		return cost.Summary{}, fmt.Errorf("no summary on step %s", wc.session.Step())
	}
	return s, nil
}

func checkAmount(label string, got decimal.Decimal, want string) error {
	if got.StringFixed(2) != want {
		return fmt.Errorf("expected %s %s, got %s", label, want, got.StringFixed(2))
	}
	return nil
}

func (wc *wizardContext) theTotalCostShouldBe(want string) error {
	s, err := wc.summary()
	if err != nil {
		return err
	}
	return checkAmount("total cost", s.TotalCost, want)
}

func (wc *wizardContext) theTotalReimbursementShouldBe(want string) error {
	s, err := wc.summary()
	if err != nil {
		return err
	}
	return checkAmount("total reimbursement", s.TotalReimbursement, want)
}

func (wc *wizardContext) theOutOfPocketShouldBe(want string) error {
	s, err := wc.summary()
	if err != nil {
		return err
	}
	return checkAmount("out-of-pocket cost", s.OutOfPocket, want)
}

func (wc *wizardContext) everyQuantityShouldBeZero() error {
	for name, qty := range wc.session.Record().Equipment {
		if qty != 0 {
			return fmt.Errorf("expected %s=0, got %d", name, qty)
		}
	}
	return nil
}

func (wc *wizardContext) theQuantityShouldBe(item string, want int) error {
	got, ok := wc.session.Record().Equipment[item]
	if !ok {
		return fmt.Errorf("no quantity for %s", item)
	}
	if got != want {
		return fmt.Errorf("expected %s=%s, got %d", item, strconv.Itoa(want), got)
	}
	return nil
}

func (wc *wizardContext) thePatientHNShouldBe(hn string) error {
	if got := wc.session.Record().Patient.HN; got != hn {
		return fmt.Errorf("expected HN %s, got %s", hn, got)
	}
	return nil
}

func (wc *wizardContext) theOperationShouldBe(name string) error {
	if got := wc.session.Record().Operation(); got != name {
		return fmt.Errorf("expected operation %q, got %q", name, got)
	}
	return nil
}

func (wc *wizardContext) reportText() (string, error) {
	doc, err := wc.session.Report(report.Format{})
	if err != nil {
		return "", err
	}
	return strings.Join(doc.Lines(), "\n"), nil
}

func (wc *wizardContext) theReportShouldContain(text string) error {
	out, err := wc.reportText()
	if err != nil {
		return err
	}
	if !strings.Contains(out, text) {
		return fmt.Errorf("report does not contain %q:\n%s", text, out)
	}
	return nil
}

func (wc *wizardContext) theReportShouldNotContain(text string) error {
	out, err := wc.reportText()
	if err != nil {
		return err
	}
	if strings.Contains(out, text) {
		return fmt.Errorf("report contains %q:\n%s", text, out)
	}
	return nil
}

func (wc *wizardContext) theLastErrorShouldBe(msg string) error {
	if wc.lastErr == nil {
		return fmt.Errorf("expected error %q, got none", msg)
	}
	if wc.lastErr.Error() != msg {
		return fmt.Errorf("expected error %q, got %q", msg, wc.lastErr.Error())
	}
	return nil
}
