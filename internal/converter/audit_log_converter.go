package converter

import (
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
)

func AuditLogToResponse(entry *entity.AuditLog) *dto.AuditLogResponse {
	if entry == nil {
		return nil
	}

	return &dto.AuditLogResponse{
		ID:        entry.ID,
		ActorID:   entry.UserID,
		Action:    entry.Action,
		Entity:    entry.Metadata.Entity,
		EntityID:  entry.Metadata.EntityID,
		OldValue:  entry.Metadata.OldValue,
		NewValue:  entry.Metadata.NewValue,
		CreatedAt: entry.CreatedAt,
	}
}

// AuditLogsToResponses never returns nil so an empty listing encodes as [].
func AuditLogsToResponses(entries []entity.AuditLog) []dto.AuditLogResponse {
	responses := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, *AuditLogToResponse(&entries[i]))
	}
	return responses
}
