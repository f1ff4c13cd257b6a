package generation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"socialloom.io/internal/briefing"
	"socialloom.io/internal/identity"
	"socialloom.io/internal/sched"
	"socialloom.io/internal/tenant"
	"socialloom.io/internal/workflow"
)

func managerPrincipal() identity.Principal {
	return identity.NewPrincipal("u1", "manager@agency.com", "agency-demo",
		identity.RoleContentManager, identity.RoleContentManager.Permissions())
}

func clientPrincipal() identity.Principal {
	return identity.NewPrincipal("u2", "approver@client.com", "client-demo",
		identity.RoleClientApprover, identity.RoleClientApprover.Permissions())
}

type fixture struct {
	sessions  *Service
	briefings *briefing.Service
	workflows *workflow.Engine
	completer *sched.Completer
	brief     *briefing.Briefing
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()

	briefings, err := briefing.NewService(tenant.NewRepo[*briefing.Briefing]())
	require.NoError(t, err)
	workflows, err := workflow.NewEngine(tenant.NewRepo[*workflow.Workflow]())
	require.NoError(t, err)
	completer := sched.New()
	t.Cleanup(completer.Close)

	sessions, err := NewService(
		tenant.NewRepo[*Session](),
		briefings, workflows, completer, delay, zerolog.Nop(),
	)
	require.NoError(t, err)

	brief, err := briefings.Create(context.Background(), managerPrincipal(), "product-launch", "Spring launch", briefing.Data{
		Objective: "Launch the sparkling line",
		Audience:  "urban 25-34",
		Tone:      "playful",
		Platforms: []string{"instagram", "tiktok"},
		Keywords:  []string{"spring", "sparkling water"},
	})
	require.NoError(t, err)

	return &fixture{sessions: sessions, briefings: briefings, workflows: workflows, completer: completer, brief: brief}
}

func waitForStatus(t *testing.T, f *fixture, p identity.Principal, id string, want Status) *Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sess, err := f.sessions.Get(context.Background(), p, id)
		require.NoError(t, err)
		if sess.Status == want {
			return sess
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session %s never reached %s", id, want)
	return nil
}

func TestStartReturnsProcessingImmediately(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	ctx := context.Background()

	sess, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "New flavor drop", 3, 2, nil)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, sess.Status)
	require.Len(t, sess.Agents, 3)
	require.Equal(t, 2, sess.Rounds)
	// Platforms default to the briefing's targets.
	require.Equal(t, []string{"instagram", "tiktok"}, sess.Platforms)
	require.Nil(t, sess.Result)

	// Polling before the delay elapses still observes processing.
	polled, err := f.sessions.Get(ctx, managerPrincipal(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, polled.Status)
}

func TestCompletionSynthesizesContentAndOpensOneWorkflow(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	ctx := context.Background()

	sess, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "New flavor drop", 2, 1, nil)
	require.NoError(t, err)

	done := waitForStatus(t, f, managerPrincipal(), sess.ID, StatusCompleted)
	require.NotNil(t, done.Result)
	require.Contains(t, done.Result.Text, "New flavor drop")
	require.Contains(t, done.Result.Text, "playful")
	require.Contains(t, done.Result.Hashtags, "#Spring")
	require.Contains(t, done.Result.Hashtags, "#SparklingWater")
	require.NotNil(t, done.CompletedAt)

	// Exactly one workflow exists, in generation, referencing the session.
	wfs := f.workflows.List(ctx, managerPrincipal())
	require.Len(t, wfs, 1)
	require.Equal(t, sess.ID, wfs[0].SessionID)
	require.Equal(t, workflow.StateGeneration, wfs[0].State)
	require.Equal(t, done.WorkflowID, wfs[0].ID)
	require.Equal(t, done.Result.Text, wfs[0].Content.Text)

	// Completed sessions are never mutated again.
	time.Sleep(20 * time.Millisecond)
	again, err := f.sessions.Get(ctx, managerPrincipal(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, done.CompletedAt, again.CompletedAt)
	require.Len(t, f.workflows.List(ctx, managerPrincipal()), 1)
}

func TestPollersNeverObserveTornCompletion(t *testing.T) {
	f := newFixture(t, 2*time.Millisecond)
	ctx := context.Background()

	// Hammer Get while completions fire: every observed session is either
	// still processing or carries the full outcome (result and workflow id),
	// never a half-applied completion.
	for i := 0; i < 20; i++ {
		sess, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "New flavor drop", 2, 1, nil)
		require.NoError(t, err)

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			polled, err := f.sessions.Get(ctx, managerPrincipal(), sess.ID)
			require.NoError(t, err)
			if polled.Status == StatusProcessing {
				require.Nil(t, polled.Result)
				require.Empty(t, polled.WorkflowID)
				continue
			}
			require.Equal(t, StatusCompleted, polled.Status)
			require.NotNil(t, polled.Result)
			require.NotEmpty(t, polled.Result.Text)
			require.NotEmpty(t, polled.WorkflowID)
			require.NotNil(t, polled.CompletedAt)
			break
		}
	}
}

func TestStartWithoutBriefing(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.sessions.Start(context.Background(), managerPrincipal(), "", "Subject", 2, 1, nil)
	require.ErrorIs(t, err, ErrBriefingRequired)

	// No session was created: completer has nothing pending.
	require.Equal(t, 0, f.completer.Pending())
}

func TestStartWithForeignBriefing(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.sessions.Start(context.Background(), clientPrincipal(), f.brief.ID, "Subject", 2, 1, nil)
	require.ErrorIs(t, err, ErrBriefingNotFound)
}

func TestStartValidatesAgentAndRoundBounds(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	_, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "Subject", 0, 1, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "Subject", 6, 1, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "Subject", 2, 4, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRosterClampedToSpecialties(t *testing.T) {
	f := newFixture(t, time.Minute)

	sess, err := f.sessions.Start(context.Background(), managerPrincipal(), f.brief.ID, "Subject", 5, 1, nil)
	require.NoError(t, err)
	require.Len(t, sess.Agents, 5)
	seen := map[string]bool{}
	for _, a := range sess.Agents {
		require.False(t, seen[a.Specialty], "specialties must be distinct")
		seen[a.Specialty] = true
	}
}

func TestGetCrossTenantLooksLikeMissing(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	sess, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "Subject", 1, 1, nil)
	require.NoError(t, err)

	_, foreignErr := f.sessions.Get(ctx, clientPrincipal(), sess.ID)
	_, missingErr := f.sessions.Get(ctx, clientPrincipal(), "nope")
	require.ErrorIs(t, foreignErr, ErrSessionNotFound)
	require.Equal(t, foreignErr, missingErr)
}

func TestFailStaleReapsStuckSessions(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	sess, err := f.sessions.Start(ctx, managerPrincipal(), f.brief.ID, "Subject", 1, 1, nil)
	require.NoError(t, err)

	// Deadline of zero makes every processing session stale.
	reaped := f.sessions.FailStale(0)
	require.Equal(t, 1, reaped)

	got, err := f.sessions.Get(ctx, managerPrincipal(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, "processing deadline exceeded", got.FailureReason)

	// Its pending completion was cancelled; no workflow ever appears.
	require.Equal(t, 0, f.completer.Pending())
	require.Empty(t, f.workflows.List(ctx, managerPrincipal()))

	// Second sweep finds nothing.
	require.Equal(t, 0, f.sessions.FailStale(0))
}
