package sheet

// Row is one parsed spreadsheet row: header string to raw cell value.
// Cell values arrive as string, float64, int or nil depending on the
// upstream parser; the normalizer owns all coercion.
type Row map[string]interface{}

// Dataset is the format-agnostic tabular input consumed by the engine.
// Titles holds free-text lines found above the header row, kept for
// month detection.
type Dataset struct {
	FileName string   `json:"file_name"`
	FileType string   `json:"file_type"`
	Titles   []string `json:"titles,omitempty"`
	Rows     []Row    `json:"rows"`
}

// AllHeaders returns the set of header strings observed across every
// row, not just the first. Rows produced by hand-edited sheets routinely
// carry heterogeneous keys.
func (d *Dataset) AllHeaders() []string {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range d.Rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
	}
	return headers
}
