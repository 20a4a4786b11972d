package columns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Canonical field names the engine understands.
const (
	FieldEmpID                = "emp_id"
	FieldName                 = "name"
	FieldSalary               = "salary"
	FieldThriftContribution   = "thrift_contribution"
	FieldThriftClosingBalance = "thrift_closing_balance"
	FieldLoanBalance          = "loan_balance"
	FieldLoanRepayment        = "loan_repayment"
	FieldInterest             = "interest"
	FieldEMI                  = "emi"
	FieldTotalDeduction       = "total_deduction"
	FieldTotalAmount          = "total_amount"
	FieldPaidAmount           = "paid_amount"
)

// NumSuretySlots is the maximum number of surety columns per sheet.
const NumSuretySlots = 6

// minPrefixAliasLen keeps short tokens like "loan" from spuriously
// prefix-matching multi-word headers like "Loan Re payment".
const minPrefixAliasLen = 8

// SuretyField returns the canonical field name for surety slot n (1-6).
func SuretyField(n int) string {
	return fmt.Sprintf("surety_%d", n)
}

// aliases lists the accepted header spellings per canonical field, in
// priority order. Matching normalizes case and strips all whitespace, so
// "Loan Re payment" and "LOAN REPAYMENT" both hit "loan repayment".
var aliases = map[string][]string{
	FieldEmpID: {
		"emp id", "empid", "emp no", "emp code", "employee id",
		"employee no", "employee code", "staff id", "staff no",
		"member id", "member no",
	},
	FieldName: {
		"name", "employee name", "name of employee",
		"name of the employee", "member name", "staff name",
	},
	FieldSalary: {
		"salary", "gross salary", "gross pay", "basic pay", "basic salary",
	},
	FieldThriftContribution: {
		"thrift", "thrift fund", "thrift deduction", "thrift contribution",
		"monthly thrift", "thrift amount",
	},
	FieldThriftClosingBalance: {
		"cb thrift", "thrift cb", "cb of thrift", "closing balance",
		"thrift closing balance", "cumulative thrift", "total thrift",
		"thrift balance",
	},
	FieldLoanBalance: {
		"loan balance", "loan outstanding", "outstanding balance",
		"outstanding loan", "balance of loan", "loan o/s", "ob of loan",
	},
	FieldLoanRepayment: {
		"loan repayment", "loan re payment", "loan recovery",
		"loan instalment", "loan installment", "loan emi", "repayment",
		"recovery", "emi paid",
	},
	FieldInterest: {
		"interest", "interest on loan", "loan interest", "interest amount",
		"int", "intt",
	},
	FieldEMI: {
		"emi", "instalment", "installment", "monthly emi",
	},
	FieldTotalDeduction: {
		"total deduction", "total deductions", "total ded",
		"deduction total",
	},
	FieldTotalAmount: {
		"total amount", "total amt", "total",
	},
	FieldPaidAmount: {
		"paid amount", "amount paid", "net paid",
	},
}

// fieldOrder fixes the resolution order so a header claimed by one field
// is never re-resolved differently on a later run.
var fieldOrder = []string{
	FieldEmpID,
	FieldName,
	FieldSalary,
	FieldThriftContribution,
	FieldThriftClosingBalance,
	FieldLoanBalance,
	FieldLoanRepayment,
	FieldInterest,
	FieldEMI,
	FieldTotalDeduction,
	FieldTotalAmount,
	FieldPaidAmount,
}

var suretyPattern = regexp.MustCompile(`^sur[iey]*t?y?([1-6])$`)

// Mapping relates canonical field names to the concrete header that was
// resolved for them. Absent fields simply have no entry.
type Mapping map[string]string

// Header returns the concrete header for a canonical field.
func (m Mapping) Header(field string) (string, bool) {
	h, ok := m[field]
	return h, ok
}

// HasIdentityColumn reports whether at least one employee-identifying
// column resolved. Without one the whole batch is rejected.
func (m Mapping) HasIdentityColumn() bool {
	_, hasID := m[FieldEmpID]
	_, hasName := m[FieldName]
	return hasID || hasName
}

// Summary produces the operator-facing detection report: every canonical
// field mapped to its resolved header, or nil when absent.
func (m Mapping) Summary() map[string]*string {
	out := make(map[string]*string, len(fieldOrder)+NumSuretySlots)
	fields := append([]string{}, fieldOrder...)
	for n := 1; n <= NumSuretySlots; n++ {
		fields = append(fields, SuretyField(n))
	}
	for _, field := range fields {
		if h, ok := m[field]; ok {
			header := h
			out[field] = &header
		} else {
			out[field] = nil
		}
	}
	return out
}

// Resolve maps the observed header set to canonical fields. Pure and
// deterministic: permuting the input order yields the same mapping.
// Pass 1 is an exact match after case/whitespace normalization; pass 2
// is a prefix match restricted to long aliases; surety slots get a
// final permissive pattern match tolerating surity/surety misspellings.
func Resolve(headers []string) Mapping {
	sorted := append([]string{}, headers...)
	sort.Strings(sorted)

	mapping := make(Mapping)
	claimed := make(map[string]bool)

	for _, field := range fieldOrder {
		if header, ok := matchField(aliases[field], sorted, claimed); ok {
			mapping[field] = header
			claimed[header] = true
		}
	}

	for n := 1; n <= NumSuretySlots; n++ {
		field := SuretyField(n)
		fieldAliases := []string{
			fmt.Sprintf("surety %d", n),
			fmt.Sprintf("surety no %d", n),
		}
		if header, ok := matchField(fieldAliases, sorted, claimed); ok {
			mapping[field] = header
			claimed[header] = true
			continue
		}
		if header, ok := matchSurety(n, sorted, claimed); ok {
			mapping[field] = header
			claimed[header] = true
		}
	}

	return mapping
}

func matchField(fieldAliases, headers []string, claimed map[string]bool) (string, bool) {
	// Pass 1: exact match.
	for _, alias := range fieldAliases {
		na := normalize(alias)
		for _, header := range headers {
			if claimed[header] {
				continue
			}
			if normalize(header) == na {
				return header, true
			}
		}
	}
	// Pass 2: prefix match, long aliases only.
	for _, alias := range fieldAliases {
		na := normalize(alias)
		if len(na) < minPrefixAliasLen {
			continue
		}
		for _, header := range headers {
			if claimed[header] {
				continue
			}
			if strings.HasPrefix(normalize(header), na) {
				return header, true
			}
		}
	}
	return "", false
}

func matchSurety(n int, headers []string, claimed map[string]bool) (string, bool) {
	for _, header := range headers {
		if claimed[header] {
			continue
		}
		m := suretyPattern.FindStringSubmatch(alnum(header))
		if m != nil && m[1] == fmt.Sprint(n) {
			return header, true
		}
	}
	return "", false
}

// normalize lowercases and strips all whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// alnum lowercases and strips everything but letters and digits.
func alnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
