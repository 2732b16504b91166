// Package codec serializa las columnas JSON (dose_times, taken_history)
// compartidas por los adapters SQL.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"med-reminder/internal/domain/medications"
)

type doseEventRow struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func EncodeDoseTimes(in []string) ([]byte, error) {
	if in == nil {
		in = []string{}
	}
	return json.Marshal(in)
}

func DecodeDoseTimes(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("codec: dose_times: %w", err)
	}
	return out, nil
}

func EncodeHistory(in []medications.DoseEvent) ([]byte, error) {
	rows := make([]doseEventRow, 0, len(in))
	for _, e := range in {
		rows = append(rows, doseEventRow{Status: string(e.Status), Timestamp: e.Timestamp.UTC()})
	}
	return json.Marshal(rows)
}

func EncodeEvent(e medications.DoseEvent) ([]byte, error) {
	return json.Marshal(doseEventRow{Status: string(e.Status), Timestamp: e.Timestamp.UTC()})
}

func DecodeHistory(raw []byte) ([]medications.DoseEvent, error) {
	out := []medications.DoseEvent{}
	if len(raw) == 0 {
		return out, nil
	}
	var rows []doseEventRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("codec: taken_history: %w", err)
	}
	for _, r := range rows {
		out = append(out, medications.DoseEvent{
			Status:    medications.DoseStatus(r.Status),
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}
