package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NaiduBugata/vema-society-sub001/internal/columns"
	"github.com/NaiduBugata/vema-society-sub001/internal/sheet"
)

// Warning records a non-fatal field-level coercion. The row still
// processes; the field was defaulted to zero.
type Warning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Issue  string `json:"issue"`
}

// Warning issue kinds. "missing" and "invalid" are reported separately
// so operators can tell an absent cell from a garbled one.
const (
	IssueMissing          = "missing"
	IssueInvalidDefaulted = "invalid, defaulted to 0"
)

// Record is one sheet row converted to typed, defaulted fields.
// All numeric fields default to zero; zero doubles as "absent" in the
// reconciler, matching the source system's falsy-zero semantics.
type Record struct {
	RowNum               int
	EmpID                string
	Name                 string
	Salary               decimal.Decimal
	ThriftContribution   decimal.Decimal
	ThriftClosingBalance decimal.Decimal
	LoanBalance          decimal.Decimal
	LoanRepayment        decimal.Decimal
	InterestPaid         decimal.Decimal
	EMI                  decimal.Decimal
	TotalDeduction       decimal.Decimal
	TotalAmount          decimal.Decimal
	PaidAmount           decimal.Decimal
	SuretyCodes          []string
}

// HasLoanSignal reports whether the row shows any loan activity at all.
// Rows with no signal against an employee holding an active loan are
// treated as an implicit payoff by the reconciler.
func (r *Record) HasLoanSignal() bool {
	return r.LoanBalance.IsPositive() ||
		r.LoanRepayment.IsPositive() ||
		r.InterestPaid.IsPositive()
}

// HasSureties reports whether the row supplied at least one surety code.
func (r *Record) HasSureties() bool {
	for _, code := range r.SuretyCodes {
		if code != "" {
			return true
		}
	}
	return false
}

// ShouldSkip filters structurally empty rows and the trailing TOTAL row
// that hand-made sheets carry. Skipped rows are not failures.
func ShouldSkip(row sheet.Row, mapping columns.Mapping) bool {
	empty := true
	for _, v := range row {
		if !isBlank(v) {
			empty = false
			break
		}
	}
	if empty {
		return true
	}
	if header, ok := mapping.Header(columns.FieldName); ok {
		if name, found := cell(row, header); found {
			if strings.EqualFold(strings.TrimSpace(stringify(name)), "TOTAL") {
				return true
			}
		}
	}
	return false
}

// Row converts one raw row into a Record, collecting a warning for every
// numeric cell that is missing or not parseable. rowNum is the 1-based
// sheet row used in diagnostics.
func Row(rowNum int, raw sheet.Row, mapping columns.Mapping) (*Record, []Warning) {
	n := &normalizer{rowNum: rowNum, raw: raw, mapping: mapping}

	rec := &Record{
		RowNum:               rowNum,
		EmpID:                n.identifier(columns.FieldEmpID),
		Name:                 n.text(columns.FieldName),
		Salary:               n.amount(columns.FieldSalary),
		ThriftContribution:   n.amount(columns.FieldThriftContribution),
		ThriftClosingBalance: n.amount(columns.FieldThriftClosingBalance),
		LoanBalance:          n.amount(columns.FieldLoanBalance),
		LoanRepayment:        n.amount(columns.FieldLoanRepayment),
		InterestPaid:         n.amount(columns.FieldInterest),
		EMI:                  n.amount(columns.FieldEMI),
		TotalDeduction:       n.amount(columns.FieldTotalDeduction),
		TotalAmount:          n.amount(columns.FieldTotalAmount),
		PaidAmount:           n.amount(columns.FieldPaidAmount),
	}

	rec.SuretyCodes = make([]string, 0, columns.NumSuretySlots)
	for slot := 1; slot <= columns.NumSuretySlots; slot++ {
		code := n.identifier(columns.SuretyField(slot))
		if code != "" {
			rec.SuretyCodes = append(rec.SuretyCodes, code)
		}
	}

	return rec, n.warnings
}

type normalizer struct {
	rowNum   int
	raw      sheet.Row
	mapping  columns.Mapping
	warnings []Warning
}

func (n *normalizer) warn(column, issue string) {
	n.warnings = append(n.warnings, Warning{Row: n.rowNum, Column: column, Issue: issue})
}

// amount reads a numeric field, defaulting to zero on missing or
// unparseable cells. Unmapped columns are silent: their absence is a
// sheet-level condition already visible in the detection summary.
func (n *normalizer) amount(field string) decimal.Decimal {
	header, ok := n.mapping.Header(field)
	if !ok {
		return decimal.Zero
	}
	v, found := cell(n.raw, header)
	if !found || isBlank(v) {
		n.warn(header, IssueMissing)
		return decimal.Zero
	}
	d, err := toDecimal(v)
	if err != nil {
		n.warn(header, IssueInvalidDefaulted)
		return decimal.Zero
	}
	return d
}

func (n *normalizer) text(field string) string {
	header, ok := n.mapping.Header(field)
	if !ok {
		return ""
	}
	v, found := cell(n.raw, header)
	if !found {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// identifier reads an employee/surety code and canonicalizes numeric
// forms so "19.0", 19.0 and "19" all compare equal.
func (n *normalizer) identifier(field string) string {
	header, ok := n.mapping.Header(field)
	if !ok {
		return ""
	}
	v, found := cell(n.raw, header)
	if !found || isBlank(v) {
		return ""
	}
	return CanonicalID(v)
}

// CanonicalID stringifies an identifier cell, rounding purely numeric
// values so float-typed sheet cells match string-typed stored codes.
func CanonicalID(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatInt(int64(math.Round(t)), 10)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatInt(int64(math.Round(f)), 10)
	}
	return s
}

func cell(row sheet.Row, header string) (interface{}, bool) {
	v, ok := row[header]
	return v, ok
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		// Tolerate thousands separators and stray currency spacing.
		cleaned := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		return decimal.NewFromString(cleaned)
	}
	return decimal.Zero, fmt.Errorf("unsupported cell type %T", v)
}
