package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialloom.io/internal/briefing"
	"socialloom.io/internal/identity"
	"socialloom.io/internal/ids"
	"socialloom.io/internal/obs"
	"socialloom.io/internal/sched"
	"socialloom.io/internal/tenant"
	"socialloom.io/internal/workflow"
)

const (
	maxAgents = 5
	maxRounds = 3
)

// Service manages generation sessions: synchronous creation, one deferred
// completion per session, polling via Get.
type Service struct {
	repo      *tenant.Repo[*Session]
	briefings *briefing.Service
	workflows *workflow.Engine
	completer *sched.Completer
	delay     time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewService wires the session manager. delay is how long sessions stay in
// "processing" before the deferred completion fires.
func NewService(
	repo *tenant.Repo[*Session],
	briefings *briefing.Service,
	workflows *workflow.Engine,
	completer *sched.Completer,
	delay time.Duration,
	log zerolog.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("session repo is required")
	}
	if briefings == nil {
		return nil, errors.New("briefing service is required")
	}
	if workflows == nil {
		return nil, errors.New("workflow engine is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if delay <= 0 {
		return nil, errors.New("completion delay must be positive")
	}
	return &Service{
		repo:      repo,
		briefings: briefings,
		workflows: workflows,
		completer: completer,
		delay:     delay,
		log:       log,
		now:       time.Now,
	}, nil
}

// Start validates the request against its briefing, creates the session in
// "processing" and schedules the one-shot completion. Nothing is stored when
// validation fails.
func (s *Service) Start(ctx context.Context, p identity.Principal, briefingID, subject string, numAgents, numRounds int, platforms []string) (*Session, error) {
	briefingID = strings.TrimSpace(briefingID)
	if briefingID == "" {
		return nil, ErrBriefingRequired
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if numAgents < 1 || numAgents > maxAgents {
		return nil, fmt.Errorf("%w: num_agents must be between 1 and %d", ErrInvalidInput, maxAgents)
	}
	if numRounds < 1 || numRounds > maxRounds {
		return nil, fmt.Errorf("%w: num_rounds must be between 1 and %d", ErrInvalidInput, maxRounds)
	}

	brief, err := s.briefings.Get(ctx, p, briefingID)
	if err != nil {
		return nil, ErrBriefingNotFound
	}
	if len(platforms) == 0 {
		platforms = append([]string(nil), brief.Data.Platforms...)
	}

	rosterSize := numAgents
	if rosterSize > len(specialties) {
		rosterSize = len(specialties)
	}
	agents := make([]Agent, rosterSize)
	for i := 0; i < rosterSize; i++ {
		agents[i] = Agent{
			Name:      fmt.Sprintf("agent-%d", i+1),
			Specialty: specialties[i],
		}
	}

	sess := &Session{
		ID:         ids.New(),
		TenantID:   p.TenantID,
		UserID:     p.UserID,
		BriefingID: brief.ID,
		Subject:    subject,
		Status:     StatusProcessing,
		Agents:     agents,
		Rounds:     numRounds,
		Platforms:  platforms,
		CreatedAt:  s.now().UTC(),
	}
	s.repo.Insert(sess.ID, sess)

	s.completer.Schedule(sess.ID, s.delay, func() {
		s.complete(sess.ID, sess.TenantID)
	})

	s.log.Debug().
		Str("session_id", sess.ID).
		Str("tenant_id", sess.TenantID).
		Str("briefing_id", brief.ID).
		Int("agents", rosterSize).
		Msg("generation session started")

	return sess, nil
}

// complete is the deferred task. The whole outcome (status flip, synthesized
// draft, the one workflow) is applied under the session repository lock, so
// a poller observes either "processing" or the fully completed session, and a
// concurrent reaper can never overwrite the result.
func (s *Service) complete(sessionID, tenantID string) {
	var workflowID string
	_, err := s.repo.Update(tenantID, sessionID, func(sess *Session) (*Session, error) {
		if sess.Status != StatusProcessing {
			return nil, fmt.Errorf("session already %s", sess.Status)
		}
		principal := identity.Principal{UserID: sess.UserID, TenantID: tenantID}
		brief, err := s.briefings.Get(context.Background(), principal, sess.BriefingID)
		if err != nil {
			return nil, fmt.Errorf("briefing %s unavailable: %w", sess.BriefingID, err)
		}
		content := compose(brief, sess.Subject, sess.Platforms)
		wf := s.workflows.Begin(tenantID, sess.ID, brief.ID, sess.UserID, workflow.Content{
			Text:     content.Text,
			Hashtags: content.Hashtags,
		})
		now := s.now().UTC()
		sess.Status = StatusCompleted
		sess.Result = &content
		sess.WorkflowID = wf.ID
		sess.CompletedAt = &now
		workflowID = wf.ID
		return sess, nil
	})
	if err != nil {
		obs.ObserveCompletion("session", "failed")
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("session completion skipped")
		return
	}

	obs.ObserveCompletion("session", "completed")
	s.log.Info().
		Str("session_id", sessionID).
		Str("workflow_id", workflowID).
		Msg("generation session completed")
}

// fail marks a still-processing session as failed. Sessions that already
// reached a terminal status are left alone.
func (s *Service) fail(sessionID, tenantID, reason string) {
	now := s.now().UTC()
	_, err := s.repo.Update(tenantID, sessionID, func(sess *Session) (*Session, error) {
		if sess.Status != StatusProcessing {
			return nil, fmt.Errorf("session already %s", sess.Status)
		}
		sess.Status = StatusFailed
		sess.FailureReason = reason
		sess.CompletedAt = &now
		return sess, nil
	})
	if err != nil {
		return
	}
	obs.ObserveCompletion("session", "failed")
	s.log.Warn().Str("session_id", sessionID).Str("reason", reason).Msg("generation session failed")
}

// Get resolves one session within the caller's tenant for polling.
func (s *Service) Get(ctx context.Context, p identity.Principal, id string) (*Session, error) {
	sess, err := s.repo.Get(p.TenantID, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// FailStale marks sessions stuck in "processing" beyond deadline as failed
// and cancels their pending completions. Returns how many were reaped.
func (s *Service) FailStale(deadline time.Duration) int {
	cutoff := s.now().UTC().Add(-deadline)
	var reaped int
	for _, sess := range s.repo.All() {
		if sess.Status != StatusProcessing || sess.CreatedAt.After(cutoff) {
			continue
		}
		s.completer.Cancel(sess.ID)
		s.fail(sess.ID, sess.TenantID, "processing deadline exceeded")
		reaped++
	}
	return reaped
}
