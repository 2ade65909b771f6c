package catalog

import (
	"errors"
	"testing"
)

func TestDetectColumns_CaseAndWhitespaceInsensitive(t *testing.T) {
	cols, err := DetectColumns([]string{" name ", "Description", "IMAGE", "Color"})
	if err != nil {
		t.Fatalf("DetectColumns: %v", err)
	}
	if cols.Name != " name " {
		t.Errorf("Name = %q, want %q", cols.Name, " name ")
	}
	if cols.Description != "Description" {
		t.Errorf("Description = %q, want %q", cols.Description, "Description")
	}
	if cols.Image != "IMAGE" {
		t.Errorf("Image = %q, want %q", cols.Image, "IMAGE")
	}
	if len(cols.Other) != 1 || cols.Other[0] != "Color" {
		t.Errorf("Other = %v, want [Color]", cols.Other)
	}
}

func TestDetectColumns_MissingColumn(t *testing.T) {
	_, err := DetectColumns([]string{"Name", "Image", "Color"})
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("error = %v, want *MissingColumnError", err)
	}
	if mce.Column != "description" {
		t.Errorf("Column = %q, want %q", mce.Column, "description")
	}
}

func TestDetectColumns_OtherColumnsKeepOrder(t *testing.T) {
	cols, err := DetectColumns([]string{"Brand", "Name", "Color", "Description", "Image", "Size"})
	if err != nil {
		t.Fatalf("DetectColumns: %v", err)
	}
	want := []string{"Brand", "Color", "Size"}
	if len(cols.Other) != len(want) {
		t.Fatalf("Other = %v, want %v", cols.Other, want)
	}
	for i := range want {
		if cols.Other[i] != want[i] {
			t.Errorf("Other[%d] = %q, want %q", i, cols.Other[i], want[i])
		}
	}
}

func TestNormalizeRow_ChunkTextDeterminism(t *testing.T) {
	cols := Columns{Name: "Name", Description: "Description", Image: "Image", Other: []string{"Color"}}
	row := Row{
		"Name":        "Mug",
		"Description": "Ceramic mug",
		"Image":       "https://example.com/mug.jpg",
		"Color":       "Blue",
	}

	chunk, err := NormalizeRow(row, cols, 0)
	if err != nil {
		t.Fatalf("NormalizeRow: %v", err)
	}

	want := "Name: Mug. Description: Ceramic mug. Color: Blue."
	if chunk.Text != want {
		t.Errorf("Text = %q, want %q", chunk.Text, want)
	}
	if chunk.ImageRef != "https://example.com/mug.jpg" {
		t.Errorf("ImageRef = %q", chunk.ImageRef)
	}
}

func TestNormalizeRow_EmptyOtherFieldOmitted(t *testing.T) {
	cols := Columns{Name: "Name", Description: "Description", Image: "Image", Other: []string{"Color", "Size"}}
	row := Row{
		"Name":        "Mug",
		"Description": "Ceramic mug",
		"Image":       "https://example.com/mug.jpg",
		"Color":       "  ",
		"Size":        "Large",
	}

	chunk, err := NormalizeRow(row, cols, 0)
	if err != nil {
		t.Fatalf("NormalizeRow: %v", err)
	}

	want := "Name: Mug. Description: Ceramic mug. Size: Large."
	if chunk.Text != want {
		t.Errorf("Text = %q, want %q", chunk.Text, want)
	}
}

func TestNormalizeRow_RejectsEmptyRequiredField(t *testing.T) {
	cols := Columns{Name: "Name", Description: "Description", Image: "Image"}
	row := Row{
		"Name":        "",
		"Description": "Ceramic mug",
		"Image":       "https://example.com/mug.jpg",
	}

	_, err := NormalizeRow(row, cols, 3)
	var re *RowError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RowError", err)
	}
	if re.Index != 3 {
		t.Errorf("Index = %d, want 3", re.Index)
	}
	if len(re.MissingFields) != 1 || re.MissingFields[0] != "name" {
		t.Errorf("MissingFields = %v, want [name]", re.MissingFields)
	}
}

func TestNormalizeRow_TrimsRequiredFields(t *testing.T) {
	cols := Columns{Name: " name ", Description: "Description", Image: "IMAGE"}
	row := Row{
		" name ":      "  Mug  ",
		"Description": " Ceramic mug ",
		"IMAGE":       " https://example.com/mug.jpg ",
	}

	chunk, err := NormalizeRow(row, cols, 0)
	if err != nil {
		t.Fatalf("NormalizeRow: %v", err)
	}
	if chunk.Text != "Name: Mug. Description: Ceramic mug." {
		t.Errorf("Text = %q", chunk.Text)
	}
	if chunk.ImageRef != "https://example.com/mug.jpg" {
		t.Errorf("ImageRef = %q", chunk.ImageRef)
	}
}

func TestRowErrors_MessageListsAllRows(t *testing.T) {
	errs := RowErrors{
		{Index: 1, MissingFields: []string{"name"}},
		{Index: 4, MissingFields: []string{"description", "image"}},
	}
	msg := errs.Error()
	if msg != "row 1 missing required fields: name; row 4 missing required fields: description, image" {
		t.Errorf("Error() = %q", msg)
	}
}
