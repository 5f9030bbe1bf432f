package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hubsession/internal/clock"
	"github.com/roach88/hubsession/internal/engine"
	"github.com/roach88/hubsession/internal/journal"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outcomes.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.RecordTelemetry(ctx, engine.Outcome{
		Kind: engine.OutcomeTelemetry, DeviceID: "dev1", MessageID: "m-1",
		Result: "OK", Payload: []byte(`{"temp":21.5}`), At: testStart,
	}))
	require.NoError(t, j.RecordTelemetry(ctx, engine.Outcome{
		Kind: engine.OutcomeTelemetry, DeviceID: "dev1", MessageID: "m-2",
		Result: "MESSAGE_TIMEOUT", Payload: make([]byte, 2048), At: testStart.Add(time.Minute),
	}))
	require.NoError(t, j.RecordReportedState(ctx, engine.Outcome{
		Kind: engine.OutcomeReportedState, DeviceID: "dev1", ModuleID: "filter", ItemID: 2,
		Result: engine.ReportedAcked, Status: 204, Payload: []byte(`{"fw":"1.0"}`), At: testStart.Add(2 * time.Minute),
	}))
	return path
}

func TestJournalList_Text(t *testing.T) {
	db := seedJournal(t)
	opts := &RootOptions{Format: "text", Clock: clock.NewManual(testStart.Add(time.Hour))}

	out, err := execute(t, NewJournalCommand(opts), "list", "--db", db)
	require.NoError(t, err)

	assert.Regexp(t, `1\s+telemetry\s+OK\s+m-1\s+13 B\s+1 hour ago`, out)
	assert.Regexp(t, `2\s+telemetry\s+MESSAGE_TIMEOUT\s+m-2\s+2.0 kB\s+59 minutes ago`, out)
	assert.Regexp(t, `3\s+reported_state\s+ACKED\s+item 2 status 204`, out)
}

func TestJournalList_LimitJSON(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "json"}), "list", "--db", db, "-n", "1")
	require.NoError(t, err)

	var resp struct {
		Data []JournalEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(3), resp.Data[0].Seq)
	assert.Equal(t, "dev1/filter", resp.Data[0].Device)
	assert.Equal(t, 204, resp.Data[0].Status)
	assert.Equal(t, journal.PayloadDigest([]byte(`{"fw":"1.0"}`)), resp.Data[0].PayloadDigest)
}

func TestJournalSummary(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "json"}), "summary", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data JournalSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(3), resp.Data.Total)
	assert.Equal(t, []JournalCount{
		{Kind: "reported_state", Result: "ACKED", Count: 1},
		{Kind: "telemetry", Result: "MESSAGE_TIMEOUT", Count: 1},
		{Kind: "telemetry", Result: "OK", Count: 1},
	}, resp.Data.Counts)
}

func TestJournal_EmptyAndMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), "list", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "Journal is empty.\n", out)

	_, err = execute(t, NewJournalCommand(&RootOptions{Format: "text"}), "summary", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}
