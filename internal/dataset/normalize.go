package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedRow is returned when a source row cannot be normalized.
// The whole call fails; no partial event list is ever returned.
var ErrMalformedRow = errors.New("malformed source row")

const (
	eventDuration     = "0"
	eventDurationUnit = "days"
	eventTimezone     = "GMT+11"
)

// Normalize parses a raw CSV blob of the given kind into the uniform
// event sequence, preserving source row order. Blank trailing lines
// are skipped; a row without a value in the kind's date column fails
// the whole call. Pure transform, no side effects.
func Normalize(kind Kind, datasetName, rawCSV string) ([]Event, error) {
	m, ok := kindMeta[kind]
	if !ok || m.attributes == nil {
		return nil, fmt.Errorf("%w: no normalization schema for %q", ErrInvalidKind, string(kind))
	}

	reader := csv.NewReader(strings.NewReader(rawCSV))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", ErrMalformedRow, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	dateIdx, hasDate := columns[m.dateColumn]

	var events []Event
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row+1, err)
		}
		row++

		if blankRow(record) {
			continue
		}
		if !hasDate || dateIdx >= len(record) || strings.TrimSpace(record[dateIdx]) == "" {
			return nil, fmt.Errorf("%w: row %d has no %q value", ErrMalformedRow, row, m.dateColumn)
		}

		attrs := make(map[string]string, len(m.attributes)+1)
		for _, a := range m.attributes {
			if idx, ok := columns[a.column]; ok && idx < len(record) {
				attrs[a.field] = record[idx]
			} else {
				attrs[a.field] = ""
			}
		}
		attrs["stock_name"] = datasetName

		events = append(events, Event{
			Attribute: attrs,
			EventType: m.eventType,
			TimeObject: TimeObject{
				Duration:     eventDuration,
				DurationUnit: eventDurationUnit,
				Timestamp:    record[dateIdx],
				Timezone:     eventTimezone,
			},
		})
	}

	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func blankRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
