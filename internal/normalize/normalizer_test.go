package normalize

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/NaiduBugata/vema-society-sub001/internal/columns"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

func testMapping() columns.Mapping {
	return columns.Resolve([]string{
		"Emp ID", "Name", "Salary", "Thrift", "CB Thrift",
		"Loan Balance", "Loan Repayment", "Interest", "Surety 1", "Surety 2",
	})
}

func TestRowDefaultsAndWarnings(t *testing.T) {
	mapping := testMapping()
	row := sheet.Row{
		"Emp ID": "19.0",
		"Name":   " K. Rao ",
		"Salary": "45,000",
		"Thrift": "abc",
		// CB Thrift absent entirely, Loan Balance blank
		"Loan Balance": "",
	}

	rec, warnings := Row(4, row, mapping)

	if rec.EmpID != "19" {
		t.Errorf("expected canonical emp id 19, got %q", rec.EmpID)
	}
	if rec.Name != "K. Rao" {
		t.Errorf("expected trimmed name, got %q", rec.Name)
	}
	if !rec.Salary.Equal(decimal.NewFromInt(45000)) {
		t.Errorf("expected salary 45000, got %s", rec.Salary)
	}
	if !rec.ThriftContribution.IsZero() {
		t.Errorf("invalid thrift cell should default to 0, got %s", rec.ThriftContribution)
	}

	byColumn := make(map[string]string)
	for _, w := range warnings {
		if w.Row != 4 {
			t.Errorf("warning carries row %d, expected 4", w.Row)
		}
		byColumn[w.Column] = w.Issue
	}
	if byColumn["Thrift"] != IssueInvalidDefaulted {
		t.Errorf("expected invalid warning for Thrift, got %q", byColumn["Thrift"])
	}
	if byColumn["CB Thrift"] != IssueMissing {
		t.Errorf("expected missing warning for CB Thrift, got %q", byColumn["CB Thrift"])
	}
	if byColumn["Loan Balance"] != IssueMissing {
		t.Errorf("expected missing warning for blank Loan Balance, got %q", byColumn["Loan Balance"])
	}
}

func TestRowSuretyCodesCanonicalized(t *testing.T) {
	mapping := testMapping()
	row := sheet.Row{
		"Emp ID":   "7",
		"Surety 1": 23.0,
		"Surety 2": "A-104",
	}

	rec, _ := Row(2, row, mapping)

	if len(rec.SuretyCodes) != 2 {
		t.Fatalf("expected 2 surety codes, got %d", len(rec.SuretyCodes))
	}
	if rec.SuretyCodes[0] != "23" {
		t.Errorf("expected numeric surety canonicalized to 23, got %q", rec.SuretyCodes[0])
	}
	if rec.SuretyCodes[1] != "A-104" {
		t.Errorf("alphanumeric surety should pass through, got %q", rec.SuretyCodes[1])
	}
	if !rec.HasSureties() {
		t.Error("expected HasSureties to be true")
	}
}

func TestShouldSkip(t *testing.T) {
	mapping := testMapping()

	t.Run("empty row", func(t *testing.T) {
		if !ShouldSkip(sheet.Row{"Name": "  ", "Salary": nil}, mapping) {
			t.Error("blank row should be skipped")
		}
	})

	t.Run("total row", func(t *testing.T) {
		if !ShouldSkip(sheet.Row{"Name": "total", "Salary": "99000"}, mapping) {
			t.Error("TOTAL row should be skipped case-insensitively")
		}
	})

	t.Run("regular row", func(t *testing.T) {
		if ShouldSkip(sheet.Row{"Name": "B. Devi", "Salary": "30000"}, mapping) {
			t.Error("regular row should not be skipped")
		}
	})
}

func TestHasLoanSignal(t *testing.T) {
	rec := &Record{}
	if rec.HasLoanSignal() {
		t.Error("zeroed record should have no loan signal")
	}
	rec.InterestPaid = decimal.NewFromInt(120)
	if !rec.HasLoanSignal() {
		t.Error("interest alone should count as a loan signal")
	}
}

func TestCanonicalID(t *testing.T) {
	cases := map[interface{}]string{
		"19.0":   "19",
		19.0:     "19",
		"0042":   "42",
		"EMP-9":  "EMP-9",
		" 105 ":  "105",
	}
	for in, want := range cases {
		if got := CanonicalID(in); got != want {
			t.Errorf("CanonicalID(%v): expected %q, got %q", in, want, got)
		}
	}
}
