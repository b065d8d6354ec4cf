// Package audit records catalog mutations for later inspection.
package audit

import (
	"context"
	"time"
)

// Operation is the kind of mutation recorded.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Record describes one mutation of one catalog record.
type Record struct {
	EventID    string    `bigquery:"event_id" json:"event_id"`
	Collection string    `bigquery:"collection" json:"collection"`
	Operation  string    `bigquery:"operation" json:"operation"`
	RecordID   string    `bigquery:"record_id" json:"record_id"`
	Actor      string    `bigquery:"actor" json:"actor"`
	At         time.Time `bigquery:"at" json:"at"`
}

// Recorder accepts audit records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// NopRecorder drops every record.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }
