package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
)

// writeCatalog creates a price list workbook in a temp dir.
func writeCatalog(t *testing.T) string {
	t.Helper()

	tb, err := tables.Default()
	if err != nil {
		t.Fatalf("tables.Default failed: %v", err)
	}

	item := func(name string, c, reimb int64) catalog.Item {
		r := make(map[tables.SchemeID]decimal.Decimal)
		for _, s := range tb.Schemes {
			r[s.ID] = decimal.NewFromInt(reimb)
		}
		return catalog.Item{Name: name, Cost: decimal.NewFromInt(c), Reimbursement: r}
	}
	cat, err := catalog.New([]catalog.Item{
		item("Angiogram", 5000, 4000),
		item("femoral sheath", 450, 400),
		item("0.038 Wire", 100, 80),
	})
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	data, err := catalog.Export(cat, catalog.DefaultColumns(), tb.Schemes)
	if err != nil {
		t.Fatalf("catalog.Export failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "equipment_costs.xlsx")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return path
}

func writeSession(t *testing.T) string {
	t.Helper()
	content := `step: cost_summary
patient:
  first_name: Somchai
  last_name: Jaidee
  hn: HN-0042
  diagnosis: AVM
  scheme: B
operation:
  choice: Diagnostic angiogram
equipment:
  Angiogram: 1
  0.038 Wire: 2
`
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write session: %v", err)
	}
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		code, out, _ := runCLI(args...)
		if code != 0 {
			t.Errorf("%v: expected exit 0, got %d", args, code)
		}
		if !strings.Contains(out, "ircost dev") {
			t.Errorf("%v: expected version output, got %q", args, out)
		}
	}
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCLI("help")
	if code != 0 {
		t.Errorf("Expected exit 0, got %d", code)
	}
	for _, want := range []string{"serve", "report --from", "--catalog", "IRCOST_CATALOG"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in help", want)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCLI("checkout")
	if code != 2 {
		t.Errorf("Expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Errorf("Expected unknown command error, got %q", errOut)
	}
}

func TestRun_BadFlag(t *testing.T) {
	code, _, _ := runCLI("catalog", "--no-such-flag")
	if code != 2 {
		t.Errorf("Expected exit 2, got %d", code)
	}
}

func TestCatalog_List(t *testing.T) {
	code, out, errOut := runCLI("catalog", "--catalog", writeCatalog(t))
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, errOut)
	}

	for _, want := range []string{"Angiogram", "femoral sheath", "5000.00", "UCEP Scheme", "3 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestCatalog_MissingWorkbook(t *testing.T) {
	code, _, errOut := runCLI("catalog", "--catalog", filepath.Join(t.TempDir(), "missing.xlsx"))
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if !strings.HasPrefix(errOut, "Error:") {
		t.Errorf("Expected error message, got %q", errOut)
	}
}

func TestCatalog_TemplateAndExport(t *testing.T) {
	dir := t.TempDir()

	tmpl := filepath.Join(dir, "template.xlsx")
	if code, _, errOut := runCLI("catalog", "--template", tmpl); code != 0 {
		t.Fatalf("Template failed with %d: %s", code, errOut)
	}
	if _, err := os.Stat(tmpl); err != nil {
		t.Errorf("Expected template file: %v", err)
	}

	exported := filepath.Join(dir, "export.xlsx")
	if code, _, errOut := runCLI("catalog", "--catalog", writeCatalog(t), "--export", exported); code != 0 {
		t.Fatalf("Export failed with %d: %s", code, errOut)
	}

	// The exported workbook loads back.
	code, out, errOut := runCLI("catalog", "--catalog", exported)
	if code != 0 {
		t.Fatalf("Reload failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "0.038 Wire") {
		t.Errorf("Expected items in reloaded catalog:\n%s", out)
	}
}

func TestReport_RequiresFrom(t *testing.T) {
	code, _, errOut := runCLI("report", "--catalog", writeCatalog(t))
	if code != 2 {
		t.Errorf("Expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut, "--from") {
		t.Errorf("Expected --from error, got %q", errOut)
	}
}

func TestReport_WritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "somchai.txt")
	code, stdout, errOut := runCLI("report",
		"--catalog", writeCatalog(t),
		"--from", writeSession(t),
		"--format", "txt",
		"--output", out)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(stdout, "Out-of-pocket Cost: 1040.00") {
		t.Errorf("Expected totals on stdout, got:\n%s", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	for _, want := range []string{"Name: Somchai Jaidee", "Healthcare Scheme: UCEP Scheme", "0.038 Wire: 2"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %q in report:\n%s", want, data)
		}
	}
}

func TestReport_Stdout(t *testing.T) {
	code, stdout, errOut := runCLI("report",
		"--catalog", writeCatalog(t),
		"--from", writeSession(t),
		"--format", "txt",
		"--output", "-")
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(stdout, "Total Cost: 5200.00") {
		t.Errorf("Expected report on stdout, got:\n%s", stdout)
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	code, _, errOut := runCLI("report",
		"--catalog", writeCatalog(t),
		"--from", writeSession(t),
		"--format", "docx")
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "unknown report format") {
		t.Errorf("Expected format error, got %q", errOut)
	}
}

func TestReport_BadTag(t *testing.T) {
	code, _, errOut := runCLI("report",
		"--catalog", writeCatalog(t),
		"--from", writeSession(t),
		"--format", "dcm",
		"--tag", "NoSuchAttribute=1")
	if code != 1 {
		t.Errorf("Expected exit 1, got %d", code)
	}
	if errOut == "" {
		t.Error("Expected an error message")
	}
}
