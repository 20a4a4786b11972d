package columns

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestResolveExactMatch(t *testing.T) {
	headers := []string{"EMP ID", "Name", "Salary", "Thrift", "CB Thrift", "Loan Balance"}
	m := Resolve(headers)

	want := map[string]string{
		FieldEmpID:                "EMP ID",
		FieldName:                 "Name",
		FieldSalary:               "Salary",
		FieldThriftContribution:   "Thrift",
		FieldThriftClosingBalance: "CB Thrift",
		FieldLoanBalance:          "Loan Balance",
	}
	for field, header := range want {
		if got, _ := m.Header(field); got != header {
			t.Errorf("field %s: expected header %q, got %q", field, header, got)
		}
	}
}

func TestResolvePrefixMatch(t *testing.T) {
	// "Loan Re payment" must resolve through the long "loan repayment"
	// alias, never through a short token.
	m := Resolve([]string{"Emp No", "Loan Re payment (Rs)"})

	if got, _ := m.Header(FieldLoanRepayment); got != "Loan Re payment (Rs)" {
		t.Errorf("expected loan repayment header, got %q", got)
	}
	if header, ok := m.Header(FieldLoanBalance); ok {
		t.Errorf("loan balance should not resolve, got %q", header)
	}
}

func TestResolveSuretyVariants(t *testing.T) {
	headers := []string{"Emp ID", "Surety 1", "SURITY 2", "Sur iety - 3", "surty4"}
	m := Resolve(headers)

	want := map[int]string{
		1: "Surety 1",
		2: "SURITY 2",
		3: "Sur iety - 3",
		4: "surty4",
	}
	for n, header := range want {
		if got, _ := m.Header(SuretyField(n)); got != header {
			t.Errorf("surety %d: expected %q, got %q", n, header, got)
		}
	}
	if _, ok := m.Header(SuretyField(5)); ok {
		t.Error("surety 5 should not resolve")
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	headers := []string{
		"EMP ID", "Name of Employee", "Salary", "Thrift", "CB Thrift",
		"Loan Balance", "Loan Repayment", "Interest", "Total Deduction",
		"Surety 1", "Surety 2",
	}
	base := Resolve(headers)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]string{}, headers...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Resolve(shuffled)
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("permutation %d changed resolution:\nbase: %v\ngot:  %v", i, base, got)
		}
	}
}

func TestResolveTotalColumnsDoNotCollide(t *testing.T) {
	m := Resolve([]string{"Emp ID", "Total Deduction", "Total Amount"})

	if got, _ := m.Header(FieldTotalDeduction); got != "Total Deduction" {
		t.Errorf("expected Total Deduction, got %q", got)
	}
	if got, _ := m.Header(FieldTotalAmount); got != "Total Amount" {
		t.Errorf("expected Total Amount, got %q", got)
	}
}

func TestHasIdentityColumn(t *testing.T) {
	if m := Resolve([]string{"Salary", "Thrift"}); m.HasIdentityColumn() {
		t.Error("expected no identity column")
	}
	if m := Resolve([]string{"Employee Name", "Thrift"}); !m.HasIdentityColumn() {
		t.Error("expected name to count as identity column")
	}
}

func TestSummaryListsAbsentFields(t *testing.T) {
	m := Resolve([]string{"Emp ID", "Thrift"})
	summary := m.Summary()

	if summary[FieldEmpID] == nil || *summary[FieldEmpID] != "Emp ID" {
		t.Error("expected emp_id in summary")
	}
	if summary[FieldLoanBalance] != nil {
		t.Errorf("expected nil for absent loan_balance, got %q", *summary[FieldLoanBalance])
	}
	if _, ok := summary[SuretyField(6)]; !ok {
		t.Error("summary should enumerate all surety slots")
	}
}
