package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"socialloom.io/internal/identity"
	"socialloom.io/internal/ids"
	"socialloom.io/internal/obs"
	"socialloom.io/internal/sched"
	"socialloom.io/internal/tenant"
	"socialloom.io/internal/workflow"
)

// Generator creates simulated creative assets against existing workflows.
type Generator struct {
	repo       *tenant.Repo[*Asset]
	workflows  *workflow.Engine
	completer  *sched.Completer
	videoDelay time.Duration
	cdnBase    string
	log        zerolog.Logger
	now        func() time.Time
}

// NewGenerator wires the asset generator. videoDelay is how long video assets
// stay in "processing".
func NewGenerator(
	repo *tenant.Repo[*Asset],
	workflows *workflow.Engine,
	completer *sched.Completer,
	videoDelay time.Duration,
	cdnBase string,
	log zerolog.Logger,
) (*Generator, error) {
	if repo == nil {
		return nil, errors.New("asset repo is required")
	}
	if workflows == nil {
		return nil, errors.New("workflow engine is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if videoDelay <= 0 {
		return nil, errors.New("video delay must be positive")
	}
	cdnBase = strings.TrimRight(strings.TrimSpace(cdnBase), "/")
	if cdnBase == "" {
		return nil, errors.New("cdn base url is required")
	}
	return &Generator{
		repo:       repo,
		workflows:  workflows,
		completer:  completer,
		videoDelay: videoDelay,
		cdnBase:    cdnBase,
		log:        log,
		now:        time.Now,
	}, nil
}

// GenerateImage produces an image asset synchronously: it is stored already
// in its terminal "generated" status.
func (g *Generator) GenerateImage(ctx context.Context, p identity.Principal, workflowID, platform, prompt string) (*Asset, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if _, err := g.workflows.Get(ctx, p, workflowID); err != nil {
		return nil, err
	}

	now := g.now().UTC()
	a := &Asset{
		ID:          ids.New(),
		TenantID:    p.TenantID,
		WorkflowID:  workflowID,
		Kind:        KindImage,
		Status:      StatusGenerated,
		Platform:    strings.TrimSpace(platform),
		Prompt:      prompt,
		MediaURL:    g.mediaURL("images", "png"),
		CreatedAt:   now,
		CompletedAt: &now,
	}
	g.repo.Insert(a.ID, a)

	g.log.Debug().
		Str("asset_id", a.ID).
		Str("workflow_id", workflowID).
		Msg("image asset generated")
	return a, nil
}

// GenerateVideo creates a video asset in "processing" and schedules its
// one-shot completion, mirroring the generation session pattern.
func (g *Generator) GenerateVideo(ctx context.Context, p identity.Principal, workflowID, script, avatarType string) (*Asset, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, fmt.Errorf("%w: script is required", ErrInvalidInput)
	}
	if _, err := g.workflows.Get(ctx, p, workflowID); err != nil {
		return nil, err
	}

	a := &Asset{
		ID:         ids.New(),
		TenantID:   p.TenantID,
		WorkflowID: workflowID,
		Kind:       KindVideo,
		Status:     StatusProcessing,
		Script:     script,
		AvatarType: strings.TrimSpace(avatarType),
		CreatedAt:  g.now().UTC(),
	}
	g.repo.Insert(a.ID, a)

	g.completer.Schedule(a.ID, g.videoDelay, func() {
		g.completeVideo(a.ID, a.TenantID)
	})

	g.log.Debug().
		Str("asset_id", a.ID).
		Str("workflow_id", workflowID).
		Msg("video asset processing")
	return a, nil
}

// completeVideo is the deferred task: the asset flips from processing to
// completed exactly once, receiving its media, thumbnail and duration.
func (g *Generator) completeVideo(assetID, tenantID string) {
	_, err := g.repo.Update(tenantID, assetID, func(a *Asset) (*Asset, error) {
		if a.Status != StatusProcessing {
			return nil, fmt.Errorf("asset already %s", a.Status)
		}
		now := g.now().UTC()
		a.Status = StatusCompleted
		a.MediaURL = g.mediaURL("videos", "mp4")
		a.ThumbnailURL = g.mediaURL("thumbnails", "jpg")
		a.DurationSeconds = videoDuration(a.Script)
		a.CompletedAt = &now
		return a, nil
	})
	if err != nil {
		obs.ObserveCompletion("asset", "failed")
		g.log.Warn().Err(err).Str("asset_id", assetID).Msg("video completion skipped")
		return
	}
	obs.ObserveCompletion("asset", "completed")
	g.log.Info().Str("asset_id", assetID).Msg("video asset completed")
}

// List returns the caller's tenant assets in creation order.
func (g *Generator) List(ctx context.Context, p identity.Principal) []*Asset {
	return g.repo.List(p.TenantID)
}

// Get resolves one asset within the caller's tenant.
func (g *Generator) Get(ctx context.Context, p identity.Principal, id string) (*Asset, error) {
	a, err := g.repo.Get(p.TenantID, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Download returns a reference to the produced media. It never blocks on a
// pending generation.
func (g *Generator) Download(ctx context.Context, p identity.Principal, id string) (DownloadLink, error) {
	a, err := g.repo.Get(p.TenantID, id)
	if err != nil {
		return DownloadLink{}, ErrNotFound
	}
	ext := "png"
	if a.Kind == KindVideo {
		ext = "mp4"
	}
	return DownloadLink{
		URL:      a.MediaURL,
		Filename: fmt.Sprintf("%s.%s", a.ID, ext),
	}, nil
}

// FailStale marks video assets stuck in "processing" beyond deadline as
// failed and cancels their pending completions.
func (g *Generator) FailStale(deadline time.Duration) int {
	cutoff := g.now().UTC().Add(-deadline)
	var reaped int
	for _, a := range g.repo.All() {
		if a.Status != StatusProcessing || a.CreatedAt.After(cutoff) {
			continue
		}
		g.completer.Cancel(a.ID)
		now := g.now().UTC()
		_, err := g.repo.Update(a.TenantID, a.ID, func(stored *Asset) (*Asset, error) {
			if stored.Status != StatusProcessing {
				return nil, fmt.Errorf("asset already %s", stored.Status)
			}
			stored.Status = StatusFailed
			stored.FailureReason = "processing deadline exceeded"
			stored.CompletedAt = &now
			return stored, nil
		})
		if err != nil {
			continue
		}
		obs.ObserveCompletion("asset", "failed")
		reaped++
	}
	return reaped
}

// mediaURL builds a unique CDN reference for a produced artifact.
func (g *Generator) mediaURL(folder, ext string) string {
	return fmt.Sprintf("%s/%s/%s.%s", g.cdnBase, folder, uuid.NewString(), ext)
}

// videoDuration derives a deterministic runtime from the script length,
// clamped to a social-friendly 15..75 seconds.
func videoDuration(script string) int {
	return 15 + len(script)%61
}
