package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contraventions/internal/pricing"
	"contraventions/internal/recidive"
	"contraventions/internal/report/models"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
	"contraventions/pkg/platform/sentinel"
	"contraventions/pkg/requestcontext"
)

// PreviewInput identifies the party a hypothetical confirmation would be
// counted against. ResidentID takes priority over the location pair, matching
// key resolution on real reports.
type PreviewInput struct {
	Motif      string
	ResidentID string
	Room       string
	Building   string
}

// Preview is the answer to "what would confirming cost next". Tiers exposes
// the motif's full ladder so callers can show what later occurrences cost.
type Preview struct {
	Key            string
	PreviousCount  int
	NextOccurrence int
	NextAmount     *int64
	Tiers          [4]*int64
}

// PreviewRecidive reports the confirmed-occurrence standing for a party and
// motif without touching any report. The count is a snapshot; a concurrent
// confirmation can change it before the caller acts.
func (s *Service) PreviewRecidive(ctx context.Context, in PreviewInput) (*Preview, error) {
	label, err := id.ParseMotifLabel(in.Motif)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid motif label")
	}
	motif, err := s.motifs.FindByLabel(ctx, label)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown motif %s", label)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to resolve motif")
	}

	key := previewKey(in)
	prior, err := s.counter.CountPrior(ctx, key, label, "")
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		Key:            key.String(),
		PreviousCount:  prior,
		NextOccurrence: prior + 1,
		Tiers:          motif.Tiers(),
	}
	amount, err := pricing.SelectTier(motif, preview.NextOccurrence)
	switch {
	case err == nil:
		preview.NextAmount = &amount
	case dErrors.HasCode(err, dErrors.CodeDataIntegrity):
		// The catalog has no amount for that tier; the preview stays
		// informative with a null next amount.
	default:
		return nil, err
	}
	return preview, nil
}

func previewKey(in PreviewInput) recidive.Key {
	if resident := strings.TrimSpace(in.ResidentID); resident != "" {
		return recidive.ResidentKey(id.ResidentID(resident))
	}
	if strings.TrimSpace(in.Room) != "" && strings.TrimSpace(in.Building) != "" {
		return recidive.LocationKey(in.Room, in.Building)
	}
	return recidive.Key{Kind: recidive.KindNone}
}

// ListByAuthor returns an agent's filings, newest first.
func (s *Service) ListByAuthor(ctx context.Context, author id.AgentID) ([]*models.Report, error) {
	if author == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "agent identity is required")
	}
	reports, err := s.store.ListByAuthor(ctx, author)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list reports")
	}
	return reports, nil
}

// ListByResident returns every report filed against a resident, newest first.
func (s *Service) ListByResident(ctx context.Context, resident id.ResidentID) ([]*models.Report, error) {
	if resident.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "resident id is required")
	}
	reports, err := s.store.ListByResident(ctx, resident)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list reports")
	}
	return reports, nil
}

// Stats is an agent's filing activity.
type Stats struct {
	Today    int `json:"today"`
	ThisWeek int `json:"thisWeek"`
}

// AgentStats counts an agent's filings for the current day and ISO week,
// relative to the request time.
func (s *Service) AgentStats(ctx context.Context, author id.AgentID) (*Stats, error) {
	if author == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "agent identity is required")
	}
	now := requestcontext.Now(ctx)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.store.CountByAuthorBetween(ctx, author, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count reports")
	}

	weekStart := dayStart.AddDate(0, 0, -daysSinceMonday(dayStart.Weekday()))
	week, err := s.store.CountByAuthorBetween(ctx, author, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count reports")
	}

	return &Stats{Today: today, ThisWeek: week}, nil
}

// daysSinceMonday maps a weekday onto its offset in the ISO week.
func daysSinceMonday(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d - time.Monday)
}
