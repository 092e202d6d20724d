// Package bot runs the inbound message pipeline: dedup claim, handoff gate,
// engine transition, persistence, reply dispatch and audit logging.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/blackbot/blackbot/internal/engine"
	"github.com/blackbot/blackbot/internal/observability"
	"github.com/blackbot/blackbot/internal/store"
)

// Sender delivers one outbound text. Any status >= 400 is a failure the
// pipeline records in the outbox; it never retries.
type Sender interface {
	SendText(ctx context.Context, to, text string) (int, string)
}

// Service wires the engine to its collaborators. One invocation per inbound
// message; invocations for different conversations run concurrently under
// the HTTP layer. Session saves are last-writer-wins (see store.Store).
type Service struct {
	store   store.Store
	sender  Sender
	engine  *engine.Engine
	metrics *observability.Metrics
}

func New(st store.Store, sender Sender, eng *engine.Engine, metrics *observability.Metrics) *Service {
	return &Service{
		store:   st,
		sender:  sender,
		engine:  eng,
		metrics: metrics,
	}
}

// HandleInbound processes one inbound text message end to end and returns
// the reply that was dispatched, or empty when the message was dropped
// (duplicate) or absorbed (bot paused). A message without an external id is
// always processed: there is nothing to dedup against.
func (s *Service) HandleInbound(ctx context.Context, conversationID, externalID, text string) (string, error) {
	if externalID != "" {
		fresh, err := s.store.ClaimMessage(ctx, externalID, conversationID)
		if err != nil {
			return "", fmt.Errorf("claim message: %w", err)
		}
		if !fresh {
			s.metrics.DuplicatesDropped.Inc()
			return "", nil
		}
	}
	s.metrics.InboundMessages.WithLabelValues("text").Inc()

	if err := s.store.AppendMessage(ctx, store.MessageRecord{
		ConversationID: conversationID,
		Direction:      store.DirectionIn,
		ContentType:    "text",
		Body:           text,
		ExternalID:     externalID,
	}); err != nil {
		return "", fmt.Errorf("log inbound: %w", err)
	}

	paused, err := s.store.GetPaused(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("handoff gate: %w", err)
	}
	if paused {
		// Logged for the operator; no engine, no automatic reply.
		s.metrics.PausedAbsorbed.Inc()
		return "", nil
	}

	rec, err := s.store.LoadSession(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !engine.KnownState(engine.State(rec.State)) {
		// Should be unreachable; the engine resets it, we leave a trace.
		log.Printf("[engine] conversation %s has unknown state %q, resetting", conversationID, rec.State)
	}

	now := time.Now().UTC()
	res := s.engine.Transition(engine.Snapshot{
		State:     engine.State(rec.State),
		DataJSON:  rec.DataJSON,
		UpdatedAt: rec.UpdatedAt,
	}, text, now)
	s.metrics.Transitions.WithLabelValues(string(res.From), string(res.State)).Inc()

	if err := s.store.SaveSession(ctx, store.SessionRecord{
		ConversationID: conversationID,
		State:          string(res.State),
		DataJSON:       engine.EncodeData(res.Data),
		UpdatedAt:      now,
		Paused:         rec.Paused,
	}); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	if res.Order != nil {
		if err := s.store.SaveOrder(ctx, store.OrderRecord{
			ConversationID: conversationID,
			Date:           res.Order.Date,
			Type:           res.Order.Type,
			Quantity:       res.Order.Quantity,
			Status:         res.Order.Status,
		}); err != nil {
			return "", fmt.Errorf("commit order: %w", err)
		}
		s.metrics.OrdersCommitted.Inc()
	}

	s.dispatch(ctx, conversationID, res.Reply, store.DirectionOutBot)
	return res.Reply, nil
}

// HandleNonText logs inbound media and, unless the bot is paused, answers
// with a canned text-only notice. The engine is never invoked.
func (s *Service) HandleNonText(ctx context.Context, conversationID, externalID, contentType string) error {
	if externalID != "" {
		fresh, err := s.store.ClaimMessage(ctx, externalID, conversationID)
		if err != nil {
			return fmt.Errorf("claim message: %w", err)
		}
		if !fresh {
			s.metrics.DuplicatesDropped.Inc()
			return nil
		}
	}
	s.metrics.InboundMessages.WithLabelValues(contentType).Inc()

	if err := s.store.AppendMessage(ctx, store.MessageRecord{
		ConversationID: conversationID,
		Direction:      store.DirectionIn,
		ContentType:    contentType,
		Body:           "<conteúdo não-texto>",
		ExternalID:     externalID,
	}); err != nil {
		return fmt.Errorf("log inbound: %w", err)
	}

	paused, err := s.store.GetPaused(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("handoff gate: %w", err)
	}
	if paused {
		s.metrics.PausedAbsorbed.Inc()
		return nil
	}

	s.dispatch(ctx, conversationID, engine.NonTextReply, store.DirectionOutBot)
	return nil
}

// SendHuman dispatches an operator-written reply and returns the send
// status. Failures are recorded in the outbox like any other send.
func (s *Service) SendHuman(ctx context.Context, conversationID, text string) int {
	return s.dispatch(ctx, conversationID, text, store.DirectionOutHuman)
}

// Pause transfers reply responsibility to the human operator. Form state and
// data are untouched; resuming continues where the user left off.
func (s *Service) Pause(ctx context.Context, conversationID string) error {
	if err := s.store.SetPaused(ctx, conversationID, true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	s.metrics.HandoffEvents.WithLabelValues("pause").Inc()
	return nil
}

// Resume hands replies back to the bot.
func (s *Service) Resume(ctx context.Context, conversationID string) error {
	if err := s.store.SetPaused(ctx, conversationID, false); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	s.metrics.HandoffEvents.WithLabelValues("resume").Inc()
	return nil
}

// dispatch sends, logs the outbound message, and files failures in the
// outbox. Store errors here are logged but not propagated: the session
// mutation already committed and each store commits independently, so the
// worst case is a gap in the audit log, not corrupted state.
func (s *Service) dispatch(ctx context.Context, conversationID, text string, direction store.Direction) int {
	status, body := s.sender.SendText(ctx, conversationID, text)

	if err := s.store.AppendMessage(ctx, store.MessageRecord{
		ConversationID: conversationID,
		Direction:      direction,
		ContentType:    "text",
		Body:           text,
	}); err != nil {
		log.Printf("[dispatch] log outbound failed for %s: %v", conversationID, err)
	}

	if status >= 400 {
		s.metrics.SendFailures.Inc()
		if err := s.store.AddOutbox(ctx, conversationID, text, body); err != nil {
			log.Printf("[dispatch] outbox write failed for %s: %v", conversationID, err)
		}
	}
	return status
}
