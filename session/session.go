// Package session stores uploaded datasets between requests. Every
// dataset lives under an opaque UUID and expires after a configurable
// TTL; analysis results are attached to the dataset so exports can run
// without re-executing tests.
package session

import (
	"context"
	"encoding/json"
	"time"

	"labrat/domain/table"
)

// Dataset is the unit of session state: the parsed table, its column
// descriptors, and any analysis results produced so far.
type Dataset struct {
	Filename  string                     `json:"filename"`
	Columns   []table.ColumnInfo         `json:"columns"`
	Data      table.Table                `json:"data"`
	RowCount  int                        `json:"row_count"`
	CreatedAt time.Time                  `json:"created_at"`
	Results   map[string]json.RawMessage `json:"results,omitempty"`
}

// SetResult attaches (or replaces) a stored analysis result under the
// given test key.
func (d *Dataset) SetResult(test string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if d.Results == nil {
		d.Results = make(map[string]json.RawMessage)
	}
	d.Results[test] = raw
	return nil
}

// Store is a keyed dataset store with per-entry expiry. Get on a
// missing or expired key returns a SESSION_NOT_FOUND error. Save
// refreshes the entry's TTL.
type Store interface {
	Create(ctx context.Context, ds *Dataset) (string, error)
	Get(ctx context.Context, id string) (*Dataset, error)
	Save(ctx context.Context, id string, ds *Dataset) error
	Delete(ctx context.Context, id string) error
	Close() error
}
