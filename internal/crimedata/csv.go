package crimedata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// RowError describes a rejected CSV row. Line numbers are 1-based and
// include the header line, matching what the uploader sees in a text editor.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult holds the outcome of parsing one CSV upload.
type ParseResult struct {
	Records []Record
	Errors  []RowError
}

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// requiredColumns must be present in the header. Matching is
// case-insensitive; extra columns are ignored.
var requiredColumns = []string{"date", "category", "latitude", "longitude"}

// ParseCSV reads a crime record CSV and returns good rows plus per-row
// rejects. A missing header column fails the whole upload; individual bad
// rows are collected into Errors so the caller can report them instead of
// silently dropping records.
func ParseCSV(r io.Reader, uploadID string) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &ParseResult{}
	line := 1
	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		rec, rowErr := parseRow(row, cols, uploadID)
		if rowErr != "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: rowErr})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func parseRow(row []string, cols map[string]int, uploadID string) (Record, string) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := Record{
		Description:  field("description"),
		Jurisdiction: strings.ToUpper(field("jurisdiction")),
		Address:      field("address"),
		UploadID:     uploadID,
	}

	rec.Category = strings.ToLower(field("category"))
	if rec.Category == "" {
		return Record{}, "category is empty"
	}

	rawDate := field("date")
	occurred, ok := parseTime(rawDate)
	if !ok {
		return Record{}, fmt.Sprintf("unparseable date %q", rawDate)
	}
	rec.OccurredAt = occurred

	lat, err := strconv.ParseFloat(field("latitude"), 64)
	if err != nil {
		return Record{}, fmt.Sprintf("invalid latitude %q", field("latitude"))
	}
	lon, err := strconv.ParseFloat(field("longitude"), 64)
	if err != nil {
		return Record{}, fmt.Sprintf("invalid longitude %q", field("longitude"))
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Record{}, fmt.Sprintf("coordinates out of range (%f, %f)", lat, lon)
	}
	rec.Latitude = lat
	rec.Longitude = lon

	return rec, ""
}

func parseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
