package tracker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, clock, _ := newTestTracker(t)

	work, err := source.AddCategory(ctx, "Work")
	require.NoError(t, err)
	_, err = source.StartSession(ctx, work.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = source.StopSession(ctx)
	require.NoError(t, err)
	_, err = source.StartSession(ctx, work.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	doc := source.ExportAll(ctx)
	require.Equal(t, "2025-03-12T10:00:00.000Z", doc.ExportedAt)
	require.NoError(t, doc.Encode(&buf))

	target, _, _ := newTestTracker(t)
	require.NoError(t, target.ImportAll(ctx, &buf))

	require.Equal(t, source.Categories(ctx), target.Categories(ctx))
	require.Equal(t, source.Sessions(ctx), target.Sessions(ctx))
	require.Equal(t, source.ActiveSession(ctx), target.ActiveSession(ctx))
}

func TestDocumentEncodeIndented(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{
		Categories: []storage.Category{{ID: "c1", Name: "Work"}},
		Sessions:   []storage.Session{},
		ExportedAt: "2025-03-12T10:00:00.000Z",
	}
	require.NoError(t, doc.Encode(&buf))

	out := buf.String()
	require.Contains(t, out, "\n  \"categories\": [\n    {\n      \"id\": \"c1\",")
	require.Contains(t, out, "\"active\": null")
	require.Contains(t, out, "\"sessions\": []")
}

func TestImportMalformedLeavesState(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	_, err := tr.AddCategory(ctx, "Work")
	require.NoError(t, err)

	for _, input := range []string{"", "{", "null", "[]", `"text"`, "42"} {
		err := tr.ImportAll(ctx, strings.NewReader(input))
		require.ErrorIs(t, err, ErrInvalidDocument, "input %q", input)
	}
	require.Len(t, tr.Categories(ctx), 1)
}

func TestImportFailingStore(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)
	tr.records = NewRecords(failingStore{}, DefaultKeys(""), tr.logger)

	err := tr.ImportAll(ctx, strings.NewReader(`{"categories":[]}`))
	require.ErrorIs(t, err, errStoreDown)
}

func TestImportReplacesEverything(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t)

	work, err := tr.AddCategory(ctx, "Work")
	require.NoError(t, err)
	_, err = tr.StartSession(ctx, work.ID)
	require.NoError(t, err)

	require.NoError(t, tr.ImportAll(ctx, strings.NewReader(`{"categories":[{"id":"c9","name":"Imported"}]}`)))

	require.Equal(t, []storage.Category{{ID: "c9", Name: "Imported"}}, tr.Categories(ctx))
	require.Empty(t, tr.Sessions(ctx))
	require.Nil(t, tr.ActiveSession(ctx))
}

func TestDecodeDocumentLenient(t *testing.T) {
	input := `{
		"categories": "oops",
		"sessions": [
			{"id":"s1","categoryId":"c1","categoryName":"Work","startTime":"2025-01-01T10:00:00.000Z","endTime":"2025-01-01T11:00:00.000Z"},
			{"categoryId":"c1"},
			17,
			{"id":"s2","categoryId":"c1","categoryName":"Work","startTime":"2025-01-01T12:00:00.000Z","endTime":null}
		],
		"active": {"categoryId":"c1","startTime":"not a time"},
		"exportedAt": "2025-01-02T08:00:00.000Z",
		"extra": true
	}`

	doc, err := DecodeDocument(strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, doc.Categories)
	require.Empty(t, doc.Categories)
	require.Len(t, doc.Sessions, 2)
	require.Equal(t, "s1", doc.Sessions[0].ID)
	require.True(t, doc.Sessions[1].Open())
	require.Nil(t, doc.Active)
	require.Empty(t, doc.ExportedAt)
}

func TestDecodeDocumentEmptyObject(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(" {} "))
	require.NoError(t, err)
	require.Empty(t, doc.Categories)
	require.Empty(t, doc.Sessions)
	require.Nil(t, doc.Active)
}
