package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goodtune/sessiontimer/internal/metrics"
	"github.com/goodtune/sessiontimer/internal/storage"
)

const (
	// ExportFilename is the suggested name for exported documents.
	ExportFilename = "session-timer-data.json"
	// ExportMediaType is the content type of exported documents.
	ExportMediaType = "application/json"
)

// Document is the portable snapshot written by export and read by import.
// ExportedAt is stamped on export only; import does not read it back.
type Document struct {
	Categories []storage.Category     `json:"categories"`
	Sessions   []storage.Session      `json:"sessions"`
	Active     *storage.ActiveSession `json:"active"`
	ExportedAt string                 `json:"exportedAt"`
}

// Encode writes d as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Snapshot converts the document into the records it replaces.
func (d Document) Snapshot() Snapshot {
	return Snapshot{
		Categories: d.Categories,
		Sessions:   d.Sessions,
		Active:     d.Active,
	}
}

// DecodeDocument parses an exported document leniently: non-list
// categories or sessions become empty, list entries without an id are
// dropped and an invalid active marker becomes nil. Only input that is not
// a JSON object at all is rejected.
func DecodeDocument(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &fields); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if fields == nil {
		return Document{}, fmt.Errorf("%w: document is null", ErrInvalidDocument)
	}

	doc := Document{
		Categories: decodeList(fields["categories"], func(c storage.Category) bool {
			return c.ID != ""
		}),
		Sessions: decodeList(fields["sessions"], func(s storage.Session) bool {
			return s.ID != ""
		}),
	}

	if raw, ok := fields["active"]; ok {
		var active *storage.ActiveSession
		if err := json.Unmarshal(raw, &active); err == nil && active.Valid() {
			doc.Active = active
		}
	}

	return doc, nil
}

func decodeList[T any](raw json.RawMessage, keep func(T) bool) []T {
	out := make([]T, 0)
	if raw == nil {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// ExportAll snapshots every record.
func (t *Tracker) ExportAll(ctx context.Context) Document {
	snapshot := t.records.Load(ctx)
	return Document{
		Categories: snapshot.Categories,
		Sessions:   snapshot.Sessions,
		Active:     snapshot.Active,
		ExportedAt: storage.FormatInstant(t.clock.Now()),
	}
}

// ImportAll replaces all records with the document read from r. A
// malformed document or a failed write leaves existing state untouched.
func (t *Tracker) ImportAll(ctx context.Context, r io.Reader) error {
	doc, err := DecodeDocument(r)
	if err != nil {
		metrics.Imports.WithLabelValues("rejected").Inc()
		t.logger.Warn().Err(err).Msg("Import rejected")
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.records.Replace(ctx, doc.Snapshot()); err != nil {
		metrics.Imports.WithLabelValues("failed").Inc()
		return err
	}

	if doc.Active != nil {
		metrics.ActiveSession.Set(1)
	} else {
		metrics.ActiveSession.Set(0)
	}
	metrics.Imports.WithLabelValues("applied").Inc()
	t.logger.Info().
		Int("categories", len(doc.Categories)).
		Int("sessions", len(doc.Sessions)).
		Bool("active", doc.Active != nil).
		Msg("Import applied")
	return nil
}
