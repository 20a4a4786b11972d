package sheet

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// minHeaderCells is the number of non-empty cells a row must have to be
// taken as the header row; shorter rows above it are title lines.
const minHeaderCells = 3

// ReadXLSXFile parses the first worksheet of an .xlsx file into a Dataset.
func ReadXLSXFile(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return datasetFromWorkbook(f, filepath.Base(path))
}

// ReadXLSX parses workbook content from a reader, e.g. an upload body.
func ReadXLSX(r io.Reader, fileName string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return datasetFromWorkbook(f, fileName)
}

func datasetFromWorkbook(f *excelize.File, fileName string) (*Dataset, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	ds := &Dataset{
		FileName: fileName,
		FileType: "xlsx",
	}

	headerIdx := -1
	var headers []string
	for i, cells := range rows {
		if countNonEmpty(cells) >= minHeaderCells {
			headerIdx = i
			headers = cells
			break
		}
		// Short leading rows are treated as title lines.
		if line := strings.TrimSpace(strings.Join(cells, " ")); line != "" {
			ds.Titles = append(ds.Titles, line)
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row found in sheet %q", sheets[0])
	}

	for _, cells := range rows[headerIdx+1:] {
		row := make(Row)
		for c, value := range cells {
			if c >= len(headers) {
				break
			}
			header := strings.TrimSpace(headers[c])
			if header == "" || value == "" {
				continue
			}
			row[header] = value
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}
