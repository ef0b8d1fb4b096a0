package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReadBack(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordToolCall("turn-1", "k8s_list_pods", "{}", true, 120*time.Millisecond, "3 pods"))
	require.NoError(t, store.RecordToolCall("turn-1", "k8s_scale_deployment", `{"name":"web","replicas":5}`, false, 40*time.Millisecond, "Error: not found"))
	require.NoError(t, store.RecordToolCall("turn-2", "file_read", `{"path":"/tmp/a"}`, true, time.Millisecond, "ok"))

	records, err := store.TurnRecords("turn-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "k8s_list_pods", records[0].Tool)
	assert.True(t, records[0].OK)
	assert.Equal(t, int64(120), records[0].DurationMS)

	assert.Equal(t, "k8s_scale_deployment", records[1].Tool)
	assert.False(t, records[1].OK)
	assert.Equal(t, "Error: not found", records[1].Summary)
}

func TestEmptyTurn(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	records, err := store.TurnRecords("nope")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordToolCall("turn-1", "file_list", "{}", true, time.Millisecond, "2 entries"))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.TurnRecords("turn-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
