package catalog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildXLSX writes a single-sheet workbook with the given cell rows.
func buildXLSX(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("setting row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return &buf
}

func TestParseSpreadsheet_XLSX(t *testing.T) {
	buf := buildXLSX(t, [][]string{
		{"Name", "Description", "Image", "Color"},
		{"Mug", "Ceramic mug", "https://example.com/mug.jpg", "Blue"},
		{"Vase", "Glass vase", "https://example.com/vase.jpg", ""},
	})

	sheet, err := ParseSpreadsheet(buf, "products.xlsx")
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(sheet.Headers) != 4 {
		t.Fatalf("Headers = %v, want 4 columns", sheet.Headers)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(sheet.Rows))
	}
	if sheet.Rows[0]["Name"] != "Mug" {
		t.Errorf("Rows[0][Name] = %q, want Mug", sheet.Rows[0]["Name"])
	}
	if sheet.Rows[1]["Color"] != "" {
		t.Errorf("Rows[1][Color] = %q, want empty", sheet.Rows[1]["Color"])
	}
}

func TestParseSpreadsheet_CSV(t *testing.T) {
	csvData := "Name,Description,Image\nMug,Ceramic mug,https://example.com/mug.jpg\n"

	sheet, err := ParseSpreadsheet(strings.NewReader(csvData), "products.csv")
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(sheet.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sheet.Rows))
	}
	if sheet.Rows[0]["Description"] != "Ceramic mug" {
		t.Errorf("Description = %q", sheet.Rows[0]["Description"])
	}
}

func TestParseSpreadsheet_SkipsEmptyRows(t *testing.T) {
	csvData := "Name,Description,Image\nMug,Ceramic mug,img.jpg\n,,\nVase,Glass vase,vase.jpg\n"

	sheet, err := ParseSpreadsheet(strings.NewReader(csvData), "products.csv")
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(sheet.Rows) != 2 {
		t.Errorf("got %d rows, want 2 (empty row skipped)", len(sheet.Rows))
	}
}

func TestParseSpreadsheet_BlankSpacerHeader(t *testing.T) {
	csvData := "Name,,Description,Image\nMug,spacer,Ceramic mug,https://example.com/mug.jpg\n"

	sheet, err := ParseSpreadsheet(strings.NewReader(csvData), "products.csv")
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(sheet.Headers) != 3 {
		t.Fatalf("Headers = %v, want 3 columns", sheet.Headers)
	}
	if sheet.Rows[0]["Description"] != "Ceramic mug" {
		t.Errorf("Description = %q, want Ceramic mug", sheet.Rows[0]["Description"])
	}
	if sheet.Rows[0]["Image"] != "https://example.com/mug.jpg" {
		t.Errorf("Image = %q, want the image url", sheet.Rows[0]["Image"])
	}
}

func TestParseSpreadsheet_HeaderOnly(t *testing.T) {
	_, err := ParseSpreadsheet(strings.NewReader("Name,Description,Image\n"), "p.csv")
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("error = %v, want ErrNoRows", err)
	}
}

func TestParseSpreadsheet_UnsupportedFormat(t *testing.T) {
	_, err := ParseSpreadsheet(strings.NewReader("x"), "products.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseSpreadsheet_ShortRowsPadded(t *testing.T) {
	csvData := "Name,Description,Image,Color\nMug,Ceramic mug,img.jpg\n"

	sheet, err := ParseSpreadsheet(strings.NewReader(csvData), "p.csv")
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if v, ok := sheet.Rows[0]["Color"]; !ok || v != "" {
		t.Errorf("Color = %q (present=%v), want empty present", v, ok)
	}
}
