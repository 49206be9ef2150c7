package entity

import "github.com/google/uuid"

// ReportFilter is a domain-level filter for querying reports.
// A nil PatientID returns every report.
type ReportFilter struct {
	PatientID *uuid.UUID
}
