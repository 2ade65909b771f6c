package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Row maps a column header (as it appears in the sheet) to a cell value.
type Row map[string]string

// Chunk is the normalized text block derived from one row, together with the
// raw image reference. It is the unit that gets embedded and indexed.
type Chunk struct {
	Text     string
	ImageRef string
}

// Columns is the result of header detection: the exact header names matched
// for the three required columns plus every other header in original order.
type Columns struct {
	Name        string
	Description string
	Image       string
	Other       []string
}

// MissingColumnError reports a required column absent from the sheet headers.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found", e.Column)
}

// RowError reports a row whose required fields were empty after trimming.
type RowError struct {
	Index         int
	MissingFields []string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d missing required fields: %s", e.Index, strings.Join(e.MissingFields, ", "))
}

// RowErrors collects every failed row of one batch so a vendor can fix the
// whole file in a single pass instead of resubmitting once per bad row.
type RowErrors []*RowError

func (e RowErrors) Error() string {
	msgs := make([]string, len(e))
	for i, re := range e {
		msgs[i] = re.Error()
	}
	return strings.Join(msgs, "; ")
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DetectColumns matches the required name/description/image columns
// case-insensitively (headers are trimmed before comparison) and returns the
// remaining headers as other columns in their original order.
func DetectColumns(headers []string) (Columns, error) {
	var cols Columns
	required := map[string]*string{
		"name":        &cols.Name,
		"description": &cols.Description,
		"image":       &cols.Image,
	}

	for _, h := range headers {
		if target, ok := required[normalizeHeader(h)]; ok && *target == "" {
			*target = h
			continue
		}
		cols.Other = append(cols.Other, h)
	}

	// Report missing columns in a stable order.
	var missing []string
	for col, target := range required {
		if *target == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Columns{}, &MissingColumnError{Column: missing[0]}
	}

	return cols, nil
}

// NormalizeRow trims the required fields, rejects the row if any of them is
// empty, and builds the chunk text: "Name: <n>. Description: <d>." followed by
// "<Column>: <value>." for every non-empty other column.
func NormalizeRow(row Row, cols Columns, index int) (Chunk, error) {
	name := strings.TrimSpace(row[cols.Name])
	description := strings.TrimSpace(row[cols.Description])
	imageRef := strings.TrimSpace(row[cols.Image])

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if imageRef == "" {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return Chunk{}, &RowError{Index: index, MissingFields: missing}
	}

	parts := []string{
		fmt.Sprintf("Name: %s", name),
		fmt.Sprintf("Description: %s", description),
	}
	for _, col := range cols.Other {
		if v := strings.TrimSpace(row[col]); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", col, v))
		}
	}

	return Chunk{Text: strings.Join(parts, ". ") + ".", ImageRef: imageRef}, nil
}
