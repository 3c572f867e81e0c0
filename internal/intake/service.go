// Package intake runs collector dialogues as persistent sessions.
package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/casebrief/internal/audit"
	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/experts"
	"github.com/ziadkadry99/casebrief/internal/logger"
)

// actorID identifies casebrief itself in audit entries.
const actorID = "casebrief"

// Options wires the optional collaborators of a Service.
type Options struct {
	Slots       []collector.Slot
	Policy      collector.Policy
	Oracle      collector.Oracle
	Cache       Cache
	Audit       *audit.Store
	Selector    *experts.Selector
	ExpertStore *experts.Store
	Logger      *logger.Logger
}

// Service drives intake sessions. Calls for the same session are serialised;
// different sessions proceed in parallel.
type Service struct {
	store       *Store
	slots       []collector.Slot
	policy      collector.Policy
	oracle      collector.Oracle
	cache       Cache
	audit       *audit.Store
	selector    *experts.Selector
	expertStore *experts.Store
	log         *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a Service. It validates the slot and policy
// configuration by building a throwaway collector.
func NewService(store *Store, opts Options) (*Service, error) {
	if len(opts.Slots) == 0 {
		opts.Slots = collector.DefaultSlots()
	}
	if opts.Cache == nil {
		opts.Cache = NopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Selector == nil {
		opts.Selector = experts.NewSelector(nil, "", opts.Logger)
	}

	check, err := collector.New(opts.Slots, opts.Policy, opts.Oracle, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("invalid collector configuration: %w", err)
	}

	return &Service{
		store:       store,
		slots:       check.Slots(),
		policy:      check.Policy(),
		oracle:      opts.Oracle,
		cache:       opts.Cache,
		audit:       opts.Audit,
		selector:    opts.Selector,
		expertStore: opts.ExpertStore,
		log:         opts.Logger.With("component", "intake"),
		locks:       map[string]*sync.Mutex{},
	}, nil
}

// Slots returns the configured slots.
func (s *Service) Slots() []collector.Slot {
	return append([]collector.Slot(nil), s.slots...)
}

// Start opens a new session for userID.
func (s *Service) Start(ctx context.Context, userID string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		userID = "anonymous"
	}
	snap, err := s.store.CreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, snap)
	s.record(ctx, audit.Entry{
		ActorType: audit.ActorUser,
		ActorID:   userID,
		Action:    audit.ActionSessionStarted,
		SessionID: snap.Session.ID,
		Summary:   "Intake session started",
	})
	s.log.Info("session started", "session_id", snap.Session.ID, "user_id", userID)
	return &snap.Session, nil
}

// Submit feeds text to the session's collector. slot optionally names the
// slot the text answers.
func (s *Service) Submit(ctx context.Context, sessionID, text, slot string) (*SubmitResponse, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c, err := s.collectorFor(sessionID, snap.State)
	if err != nil {
		return nil, err
	}

	before := snap.State
	res, err := c.Submit(ctx, text, slot)
	if err != nil {
		return nil, err
	}
	after := c.Snapshot()

	prev := snap.Session
	next := &Snapshot{Session: snap.Session, State: after}
	next.Session.Status = res.Status
	next.Session.Reason = res.Reason
	if err := s.store.SaveSnapshot(ctx, next); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, next)

	s.transcribe(ctx, prev, before, after, text, res)

	return &SubmitResponse{SessionID: sessionID, Result: res}, nil
}

// Context returns the collected answers of a session without changing it.
func (s *Service) Context(ctx context.Context, sessionID string) (map[string]string, error) {
	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c, err := s.collectorFor(sessionID, snap.State)
	if err != nil {
		return nil, err
	}
	return c.Context(), nil
}

// Session returns the stored header of a session.
func (s *Service) Session(ctx context.Context, sessionID string) (*Session, error) {
	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &snap.Session, nil
}

// Sessions lists recent sessions.
func (s *Service) Sessions(ctx context.Context, limit int) ([]Session, error) {
	return s.store.ListSessions(ctx, limit)
}

// Messages returns the transcript of a session.
func (s *Service) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.load(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.GetMessages(ctx, sessionID)
}

// SelectExperts picks a panel for a completed session and records it.
func (s *Service) SelectExperts(ctx context.Context, sessionID string) (*Panel, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	snap, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap.Session.Status != collector.StatusComplete {
		return nil, ErrIncomplete
	}

	c, err := s.collectorFor(sessionID, snap.State)
	if err != nil {
		return nil, err
	}

	sel := s.selector.Select(ctx, c.Context())
	panel := &Panel{SessionID: sessionID, Experts: sel.Experts, Fallback: sel.Fallback}

	if s.expertStore != nil {
		count, err := s.expertStore.Save(ctx, sessionID, sel)
		if err != nil {
			return nil, err
		}
		panel.MeetingCount = count
	}

	s.record(ctx, audit.Entry{
		ActorType: audit.ActorSystem,
		ActorID:   actorID,
		Action:    audit.ActionExpertsSelected,
		SessionID: sessionID,
		Summary:   strings.Join(sel.Experts, ", "),
	})
	return panel, nil
}

// Panel returns the most recent expert selection for a session.
func (s *Service) Panel(ctx context.Context, sessionID string) (*Panel, error) {
	if _, err := s.load(ctx, sessionID); err != nil {
		return nil, err
	}
	if s.expertStore == nil {
		return nil, ErrNoPanel
	}
	rec, err := s.expertStore.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNoPanel
	}
	count, err := s.expertStore.MeetingCount(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Panel{SessionID: sessionID, Experts: rec.Experts, Fallback: rec.Fallback, MeetingCount: count}, nil
}

// Count returns the number of stored sessions.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountSessions(ctx)
}

// Prune deletes sessions idle since before together with their cache entries
// and locks. Audit entries older than the same cutoff go too.
func (s *Service) Prune(ctx context.Context, before time.Time) (int, error) {
	ids, err := s.store.DeleteBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn("session cache evict failed", "session_id", id, "error", err)
		}
	}
	s.mu.Lock()
	for _, id := range ids {
		delete(s.locks, id)
	}
	s.mu.Unlock()
	if s.audit != nil {
		if _, err := s.audit.DeleteBefore(ctx, before); err != nil {
			return len(ids), fmt.Errorf("pruning audit trail: %w", err)
		}
	}
	s.log.Info("sessions pruned", "count", len(ids), "before", before.UTC().Format(time.RFC3339))
	return len(ids), nil
}

func (s *Service) collectorFor(sessionID string, state collector.State) (*collector.Collector, error) {
	c, err := collector.New(s.slots, s.policy, s.oracle, s.log.With("session_id", sessionID))
	if err != nil {
		return nil, err
	}
	if err := c.Restore(state); err != nil {
		return nil, fmt.Errorf("restoring session %s: %w", sessionID, err)
	}
	return c, nil
}

// load reads a snapshot through the cache.
func (s *Service) load(ctx context.Context, sessionID string) (*Snapshot, error) {
	snap, ok, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		s.log.Warn("session cache read failed", "session_id", sessionID, "error", err)
	}
	if ok {
		return snap, nil
	}

	snap, err = s.store.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, snap)
	return snap, nil
}

func (s *Service) cacheSet(ctx context.Context, snap *Snapshot) {
	if err := s.cache.Set(ctx, snap); err != nil {
		s.log.Warn("session cache write failed", "session_id", snap.Session.ID, "error", err)
	}
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// transcribe writes the transcript messages and audit entries implied by the
// change from before to after. It runs only once the new state is stored.
func (s *Service) transcribe(ctx context.Context, sess Session, before, after collector.State, text string, res *collector.Result) {
	text = strings.TrimSpace(text)

	answered := ""
	for _, slot := range s.slots {
		if after.Answers[slot.Name] != before.Answers[slot.Name] {
			answered = slot.Name
			break
		}
	}

	if text != "" {
		s.addMessage(ctx, Message{SessionID: sess.ID, Role: RoleUser, Slot: answered, Content: text})
	}
	if answered != "" {
		s.record(ctx, audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   sess.UserID,
			Action:    audit.ActionAnswerRecorded,
			SessionID: sess.ID,
			Slot:      answered,
			Summary:   "Answer recorded for " + answered,
			Detail:    text,
		})
	}

	for _, slot := range s.slots {
		if after.Complete[slot.Name] && !before.Complete[slot.Name] {
			s.record(ctx, audit.Entry{
				ActorType: audit.ActorSystem,
				ActorID:   actorID,
				Action:    audit.ActionSlotCompleted,
				SessionID: sess.ID,
				Slot:      slot.Name,
				Summary:   "Slot " + slot.Name + " completed",
			})
		}
	}

	if after.TurnsUsed > before.TurnsUsed && res.Status == collector.StatusIncomplete {
		s.addMessage(ctx, Message{SessionID: sess.ID, Role: RoleAssistant, Slot: res.Slot, Content: res.Question})
		actor := audit.ActorSystem
		if s.oracle != nil {
			actor = audit.ActorOracle
		}
		s.record(ctx, audit.Entry{
			ActorType: actor,
			ActorID:   actorID,
			Action:    audit.ActionQuestionIssued,
			SessionID: sess.ID,
			Slot:      res.Slot,
			Summary:   res.Question,
		})
	}

	if res.Status == collector.StatusComplete && sess.Status != collector.StatusComplete {
		s.record(ctx, audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   actorID,
			Action:    audit.ActionDialogueCompleted,
			SessionID: sess.ID,
			Summary:   "Dialogue completed: " + string(res.Reason),
		})
		s.log.Info("dialogue completed", "session_id", sess.ID, "reason", string(res.Reason), "turns_used", after.TurnsUsed)
	}
}

func (s *Service) addMessage(ctx context.Context, msg Message) {
	if _, err := s.store.AddMessage(ctx, msg); err != nil {
		s.log.Error("transcript write failed", "session_id", msg.SessionID, "error", err)
	}
}

// record writes an audit entry if an audit store is configured. Audit
// failures are logged and do not fail the turn.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, e); err != nil {
		s.log.Error("audit write failed", "action", string(e.Action), "error", err)
	}
}
