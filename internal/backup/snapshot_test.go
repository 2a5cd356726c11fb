package backup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/mima/internal/cryptox"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2024, 5, 6, 10, 11, 12, 0, loc)
	assert.Equal(t, "mima-backup-20240506T071112Z.json", ObjectName(ts))
}

func TestSnapshot_CarriesCiphertextOnly(t *testing.T) {
	key := cryptox.DeriveKey("pw")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	boot, err := models.NewBootstrap(key, now)
	require.NoError(t, err)
	rec, err := models.NewRecord(models.Fields{Title: "mail", Username: "me", Password: "hunter2", Notes: "pin 1234"}, key, now)
	require.NoError(t, err)
	h := rec.Snapshot(now.Add(time.Minute))

	data, err := NewSnapshot(now, []*models.Record{boot, rec}, []*models.HistoryEntry{h}).Marshal()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "pin 1234")
	assert.NotContains(t, string(data), models.ProbeText)

	var got Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Records, 2)
	require.Len(t, got.History, 1)
	assert.Equal(t, models.BootstrapID, got.Records[0].ID)
	assert.Equal(t, rec.Password, got.Records[1].Password)
	assert.Equal(t, rec.NotesNonce, got.Records[1].NotesNonce)
	assert.Equal(t, rec.ID, got.History[0].MimaID)
	assert.True(t, got.CreatedAt.Equal(now))

	plain, err := cryptox.Open(got.Records[1].Password, got.Records[1].PasswordNonce, key)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := NewSnapshot(time.Now(), nil, nil).Marshal()
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotNil(t, got.Records)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.History)
}

func TestParseSnapshot_RoundTrip(t *testing.T) {
	key := cryptox.DeriveKey("pw")
	now := time.Date(2024, 1, 2, 3, 4, 5, 678000, time.UTC)

	boot, err := models.NewBootstrap(key, now)
	require.NoError(t, err)
	rec, err := models.NewRecord(models.Fields{Title: "mail", Password: "hunter2"}, key, now)
	require.NoError(t, err)
	rec.Favorite = true
	gone, err := models.NewRecord(models.Fields{Title: "old", Notes: "n"}, key, now)
	require.NoError(t, err)
	gone.MarkDeleted(now.Add(time.Hour))
	h := rec.Snapshot(now.Add(time.Minute))

	recs := []*models.Record{boot, rec, gone}
	hist := []*models.HistoryEntry{h}
	data, err := NewSnapshot(now, recs, hist).Marshal()
	require.NoError(t, err)

	snap, err := ParseSnapshot(data)
	require.NoError(t, err)
	gotRecs, gotHist := snap.Models()

	if diff := cmp.Diff(recs, gotRecs); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(hist, gotHist); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSnapshot_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{ nope`},
		{"unknown field", `{"records": [], "history": [], "extra": 1}`},
		{"record without id", `{"records": [{"title": "t"}]}`},
		{"duplicate record", `{"records": [{"id": "a"}, {"id": "a"}]}`},
		{"nonce missing", `{"records": [{"id": "a", "password_cipher": "AAEC"}]}`},
		{"history without record", `{"history": [{"id": "h"}]}`},
		{"history nonce missing", `{"history": [{"id": "h", "mima_id": "a", "notes_nonce": "AAEC"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
