package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	first, err := json.Marshal(ActivityEvent{
		Type: PurchaseRecorded, RefID: "0xtx-1", BookID: 2, Address: "0xbuyer",
		TxHash: "0xtx", Amount: "1000", OccurredAt: "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	second, err := json.Marshal(ActivityEvent{
		Type: BorrowRequestUpdated, RefID: "req-1", BookID: 2, Status: "approved", OccurredAt: "2025-01-02T00:00:00Z",
	})
	require.NoError(t, err)

	require.NoError(t, handleMessage(dir, first))
	require.NoError(t, handleMessage(dir, second))

	raw, err := os.ReadFile(filepath.Join(dir, activityLogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2025-01-01T00:00:00Z] purchase.recorded | ref=0xtx-1 | book_id=2 | address=0xbuyer | tx=0xtx | amount=1000", lines[0])
	assert.Equal(t, "[2025-01-02T00:00:00Z] borrow_request.updated | ref=req-1 | book_id=2 | status=approved", lines[1])
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, handleMessage(dir, []byte("not json")))
	assert.Error(t, handleMessage(dir, []byte(`{"ref_id":"x"}`)))
}
