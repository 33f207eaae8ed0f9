package service

import (
	"context"
	"time"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/platform/audit"
	"blueprints/pkg/requestcontext"
)

var actionEvents = map[models.Action]audit.AuditEvent{
	models.ActionCreate:  audit.EventRequestCreated,
	models.ActionClaim:   audit.EventRequestClaimed,
	models.ActionReopen:  audit.EventRequestReopened,
	models.ActionCancel:  audit.EventRequestCancelled,
	models.ActionFulfill: audit.EventRequestFulfilled,
}

// emitChange records the latest history entry of r. Runs inside the unit of
// work; a failure aborts the command.
func (s *Service) emitChange(ctx context.Context, r *models.Request) error {
	if s.auditPublisher == nil || len(r.History) == 0 {
		return nil
	}
	last := r.History[len(r.History)-1]
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp:     last.At,
		Action:        actionEvents[last.Action],
		ActorID:       last.Actor,
		RequestID:     r.ID,
		From:          string(last.From),
		To:            string(last.To),
		Version:       r.Version,
		CorrelationID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// emitRejected records a refused command on a visible request. Best effort.
func (s *Service) emitRejected(ctx context.Context, requestID id.RequestID, actor id.UserID, action models.Action, cause error, at time.Time) {
	publisher := s.rejections
	if publisher == nil {
		publisher = s.auditPublisher
	}
	if publisher == nil {
		return
	}
	err := publisher.Emit(ctx, audit.Event{
		Timestamp:     at,
		Action:        audit.EventTransitionRejected,
		ActorID:       actor,
		RequestID:     requestID,
		Command:       string(action),
		Reason:        string(dErrors.CodeOf(cause)),
		CorrelationID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record rejected transition",
			"request_id", requestID.String(),
			"error", err,
		)
	}
}
