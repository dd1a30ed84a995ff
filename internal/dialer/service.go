// Package dialer originates outbound calls. It is the single write path from
// lead selection to the voice provider: every attempt is persisted before the
// caller learns its outcome, so a crash between dispatch and response never
// loses a call record.
package dialer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dialdesk_backend/platform/apperr"
	"dialdesk_backend/platform/logger"
	"dialdesk_backend/platform/phone"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/events"
	"dialdesk_backend/internal/voice"
)

// CallProvider is the slice of the voice client the dialer needs.
type CallProvider interface {
	CreateCall(ctx context.Context, req voice.CreateCallRequest) (*voice.Call, error)
}

// CallStore persists call attempts.
type CallStore interface {
	RecordDispatch(ctx context.Context, params callhistory.DispatchParams) (callhistory.CallRecord, error)
}

// LeadStore flips lead contact state after an attempt.
type LeadStore interface {
	MarkContacted(ctx context.Context, id uuid.UUID, status string) error
}

// Service places outbound calls and records each attempt.
type Service struct {
	provider CallProvider
	calls    CallStore
	leads    LeadStore
	bus      events.Bus
	logger   *logger.Logger

	defaultFromNumber string
	defaultAgentID    string
}

// NewService creates a dialer service.
func NewService(provider CallProvider, calls CallStore, leads LeadStore, bus events.Bus,
	log *logger.Logger, defaultFromNumber, defaultAgentID string) *Service {
	return &Service{
		provider:          provider,
		calls:             calls,
		leads:             leads,
		bus:               bus,
		logger:            log,
		defaultFromNumber: defaultFromNumber,
		defaultAgentID:    defaultAgentID,
	}
}

// PlaceCallParams describes one call to originate.
type PlaceCallParams struct {
	LeadID     *uuid.UUID
	ToNumber   string
	FromNumber string // defaults to the configured outbound number
	AgentID    string // defaults to the configured agent
	JobName    string // empty for manual triggers
}

// PlaceCall originates a call through the provider and records the attempt.
// Provider rejections are persisted as error rows with a locally generated
// call id, the lead is marked contacted with an error status, and an upstream
// error is returned so the caller can count the failure.
func (s *Service) PlaceCall(ctx context.Context, params PlaceCallParams) (callhistory.CallRecord, error) {
	if !phone.IsDialable(params.ToNumber) {
		return callhistory.CallRecord{}, apperr.Validation("invalid destination number")
	}
	toNumber := phone.NormalizeE164(params.ToNumber)

	fromNumber := params.FromNumber
	if fromNumber == "" {
		fromNumber = s.defaultFromNumber
	}
	agentID := params.AgentID
	if agentID == "" {
		agentID = s.defaultAgentID
	}

	metadata := map[string]string{}
	if params.LeadID != nil {
		metadata["lead_id"] = params.LeadID.String()
	}
	if params.JobName != "" {
		metadata["job_name"] = params.JobName
	}

	now := time.Now().UnixMilli()
	call, callErr := s.provider.CreateCall(ctx, voice.CreateCallRequest{
		FromNumber: fromNumber,
		ToNumber:   toNumber,
		AgentID:    agentID,
		Metadata:   metadata,
	})

	if callErr != nil {
		return s.recordFailure(ctx, params, fromNumber, toNumber, agentID, now, callErr)
	}

	rec, err := s.calls.RecordDispatch(ctx, callhistory.DispatchParams{
		LeadID:         params.LeadID,
		CallID:         call.CallID,
		AgentID:        &agentID,
		Status:         callhistory.StatusPending,
		FromNumber:     fromNumber,
		ToNumber:       toNumber,
		StartTimestamp: now,
	})
	if err != nil {
		return callhistory.CallRecord{}, apperr.Wrap(apperr.KindInternal, "failed to record call attempt", err)
	}

	s.publishDispatched(ctx, rec, params.JobName)
	return rec, nil
}

// recordFailure persists a rejected dispatch. The provider never assigned a
// call id, so a local one keeps the history row addressable.
func (s *Service) recordFailure(ctx context.Context, params PlaceCallParams,
	fromNumber, toNumber, agentID string, startTs int64, callErr error) (callhistory.CallRecord, error) {

	s.logger.DispatchError(params.JobName, toNumber, callErr)

	msg := callErr.Error()
	rec, err := s.calls.RecordDispatch(ctx, callhistory.DispatchParams{
		LeadID:         params.LeadID,
		CallID:         "local-" + uuid.NewString(),
		AgentID:        &agentID,
		Status:         callhistory.StatusError,
		FromNumber:     fromNumber,
		ToNumber:       toNumber,
		StartTimestamp: startTs,
		ErrorMessage:   &msg,
	})
	if err != nil {
		return callhistory.CallRecord{}, apperr.Wrap(apperr.KindInternal, "failed to record call failure", err)
	}

	if params.LeadID != nil {
		if err := s.leads.MarkContacted(ctx, *params.LeadID, "error"); err != nil {
			s.logger.DatabaseError("mark lead contacted after dispatch failure", err)
		}
	}

	s.publishDispatched(ctx, rec, params.JobName)
	return rec, apperr.Wrap(apperr.KindUpstream, "voice provider rejected call", callErr)
}

func (s *Service) publishDispatched(ctx context.Context, rec callhistory.CallRecord, jobName string) {
	if s.bus == nil {
		return
	}
	callID := ""
	if rec.CallID != nil {
		callID = *rec.CallID
	}
	s.bus.Publish(ctx, events.CallDispatched{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     rec.LeadID,
		CallID:     callID,
		JobName:    jobName,
		FromNumber: rec.FromNumber,
		ToNumber:   rec.ToNumber,
		Status:     rec.Status,
	})
}
