package worker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLQKeyPorCola(t *testing.T) {
	assert.Equal(t, "stockai:dlq:jobs:alertas", dlqKey(QueueAlertas))
}

func TestDLQEntrySerializacion(t *testing.T) {
	entry := DLQEntry{
		OriginalQueue: QueueAlertas,
		JobType:       "alerta_stock",
		Payload:       json.RawMessage(`{"criticos":[]}`),
		Reason:        "smtp: conexion rechazada",
		FailedAt:      "2026-03-14T10:00:00Z",
		Attempts:      3,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var releida DLQEntry
	require.NoError(t, json.Unmarshal(data, &releida))
	assert.Equal(t, entry, releida)
}
