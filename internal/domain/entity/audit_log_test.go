package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditMetadata_ValueScan(t *testing.T) {
	meta, err := NewAuditMetadata("profile", "abc", "Patient", "Doctor")
	require.NoError(t, err)

	stored, err := meta.Value()
	require.NoError(t, err)

	// postgres returns jsonb as bytes, sqlite as text
	for _, raw := range []interface{}{stored, []byte(stored.(string))} {
		var got AuditMetadata
		require.NoError(t, got.Scan(raw))
		assert.Equal(t, "profile", got.Entity)
		assert.Equal(t, "abc", got.EntityID)
		assert.JSONEq(t, `"Patient"`, string(got.OldValue))

		var role string
		require.NoError(t, got.DecodeNew(&role))
		assert.Equal(t, "Doctor", role)
	}
}

func TestAuditMetadata_ScanEmpty(t *testing.T) {
	var got AuditMetadata
	require.NoError(t, got.Scan(nil))
	assert.Empty(t, got.Entity)
	require.NoError(t, got.Scan([]byte{}))
	assert.Error(t, got.DecodeNew(&struct{}{}))
	assert.Error(t, got.Scan(42))
}

func TestNewAuditMetadata_OmitsMissingOld(t *testing.T) {
	meta, err := NewAuditMetadata("report", "7", nil, map[string]string{"prediction": "meningioma"})
	require.NoError(t, err)
	assert.Nil(t, meta.OldValue)

	_, err = NewAuditMetadata("report", "7", nil, make(chan int))
	assert.Error(t, err)
}

func TestIsAuditAction(t *testing.T) {
	assert.True(t, IsAuditAction(AuditActionAnalysisSubmit))
	assert.False(t, IsAuditAction(""))
	assert.False(t, IsAuditAction("report.delete"))

	actions := AuditActions()
	actions[0] = "mutated"
	assert.True(t, IsAuditAction(AuditActionReportCreate))
}
