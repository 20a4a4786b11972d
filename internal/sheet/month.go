package sheet

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var (
	monthPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	ymPattern    = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// DetectMonth determines the target YYYY-MM month for a batch.
// Priority: explicit caller value, a month name plus 4-digit year found
// in a title line, the current calendar month as last resort.
func DetectMonth(explicit string, ds *Dataset) string {
	if ymPattern.MatchString(explicit) {
		return explicit
	}
	for _, title := range ds.Titles {
		if m := monthFromText(title); m != "" {
			return m
		}
	}
	// Some sheets carry the title inside the first data rows instead of
	// above the header.
	for i, row := range ds.Rows {
		if i >= 3 {
			break
		}
		for _, v := range row {
			if s, ok := v.(string); ok {
				if m := monthFromText(s); m != "" {
					return m
				}
			}
		}
	}
	return time.Now().Format("2006-01")
}

func monthFromText(text string) string {
	name := monthPattern.FindString(text)
	year := yearPattern.FindString(text)
	if name == "" || year == "" {
		return ""
	}
	prefix := strings.ToLower(name[:3])
	for full, num := range monthNames {
		if strings.HasPrefix(full, prefix) {
			return fmt.Sprintf("%s-%02d", year, num)
		}
	}
	return ""
}
