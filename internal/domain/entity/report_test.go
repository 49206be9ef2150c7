package entity

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStatus_Transitions(t *testing.T) {
	tests := []struct {
		from ReportStatus
		to   ReportStatus
		want bool
	}{
		{ReportStatusPendingReview, ReportStatusCompleted, true},
		{ReportStatusPendingReview, ReportStatusPendingReview, false},
		{ReportStatusCompleted, ReportStatusPendingReview, false},
		{ReportStatusCompleted, ReportStatusCompleted, false},
		{ReportStatus("Archived"), ReportStatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%q -> %q", tt.from, tt.to)
	}
}

func TestReportStatus_IsValid(t *testing.T) {
	assert.True(t, ReportStatusPendingReview.IsValid())
	assert.True(t, ReportStatusCompleted.IsValid())
	assert.False(t, ReportStatus("pending").IsValid())
}

func TestReport_Complete(t *testing.T) {
	report := &Report{Status: ReportStatusPendingReview}
	require.NoError(t, report.Complete())
	assert.True(t, report.IsCompleted())

	err := report.Complete()
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReportStatusCompleted, te.From)
	assert.Equal(t, ReportStatusCompleted, te.To)
}

func TestReport_PatientName(t *testing.T) {
	report := &Report{}
	assert.Equal(t, PlaceholderFullName, report.PatientName())

	report.Patient = &Profile{FullName: "Jane Roe"}
	assert.Equal(t, "Jane Roe", report.PatientName())
}

func TestReport_IsOwnedBy(t *testing.T) {
	owner := uuid.New()
	report := &Report{PatientID: owner}
	assert.True(t, report.IsOwnedBy(owner))
	assert.False(t, report.IsOwnedBy(uuid.New()))
}

func TestProfile_Roles(t *testing.T) {
	assert.True(t, RoleDoctor.IsValid())
	assert.False(t, Role("Admin").IsValid())

	placeholder := NewPlaceholderProfile(uuid.New())
	assert.Equal(t, RolePatient, placeholder.Role)
	assert.False(t, placeholder.IsDoctor())

	var missing *Profile
	assert.False(t, missing.IsDoctor())
}
