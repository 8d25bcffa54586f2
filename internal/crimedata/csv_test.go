package crimedata

import (
	"strings"
	"testing"
	"time"
)

func TestParseCSVValidRows(t *testing.T) {
	input := `date,category,description,jurisdiction,latitude,longitude,address
2026-03-01,burglary,Forced entry,RBPD,26.7712,-80.0585,101 Ocean Ave
2026-03-02 14:30,vehicle theft,,rbpd,26.7800,-80.0600,
`
	result, err := ParseCSV(strings.NewReader(input), "up1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected row errors: %+v", result.Errors)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	first := result.Records[0]
	if first.Category != "burglary" || first.Jurisdiction != "RBPD" {
		t.Errorf("first = %+v", first)
	}
	if first.UploadID != "up1" {
		t.Errorf("upload id = %s", first.UploadID)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !first.OccurredAt.Equal(want) {
		t.Errorf("occurred_at = %v, want %v", first.OccurredAt, want)
	}
	// Jurisdiction is normalized to upper case.
	if result.Records[1].Jurisdiction != "RBPD" {
		t.Errorf("jurisdiction = %s, want RBPD", result.Records[1].Jurisdiction)
	}
}

func TestParseCSVCollectsRowErrors(t *testing.T) {
	input := `date,category,latitude,longitude
2026-03-01,burglary,26.77,-80.05
not-a-date,burglary,26.77,-80.05
2026-03-01,,26.77,-80.05
2026-03-01,assault,999,-80.05
2026-03-01,assault,26.77,nope
`
	result, err := ParseCSV(strings.NewReader(input), "up1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("records = %d, want 1", len(result.Records))
	}
	if len(result.Errors) != 4 {
		t.Fatalf("errors = %d, want 4: %+v", len(result.Errors), result.Errors)
	}
	// Line numbers are 1-based including the header.
	if result.Errors[0].Line != 3 {
		t.Errorf("first error line = %d, want 3", result.Errors[0].Line)
	}
}

func TestParseCSVMissingRequiredColumn(t *testing.T) {
	input := "date,category,latitude\n2026-03-01,burglary,26.77\n"
	if _, err := ParseCSV(strings.NewReader(input), "up1"); err == nil {
		t.Error("expected error for missing longitude column")
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader(""), "up1"); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestParseCSVHeaderCaseInsensitive(t *testing.T) {
	input := "Date,Category,Latitude,Longitude\n2026-03-01,theft,26.77,-80.05\n"
	result, err := ParseCSV(strings.NewReader(input), "up1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("records = %d, want 1", len(result.Records))
	}
}
