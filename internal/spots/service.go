// Package spots implements the nomination and moderation workflows on top of
// the repository, duplicate detection and link classification.
package spots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"builder-maps/internal/dedupe"
	"builder-maps/internal/domain"
	"builder-maps/internal/geocode"
	"builder-maps/internal/models"
	"builder-maps/internal/screening"
	"builder-maps/internal/sociallink"
	"builder-maps/internal/validation"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/geo"
	"builder-maps/pkg/logging"
)

// ErrDuplicate is matched (with errors.Is) by the error Nominate returns when
// a submission looks like an existing spot and was not forced.
var ErrDuplicate = errors.New("possible duplicate spot")

// DuplicateError carries the duplicate check that blocked a nomination.
type DuplicateError struct {
	Result dedupe.Result
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s (%d matches)", ErrDuplicate, len(e.Result.Matches))
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// DuplicateResultOf returns the blocking result if err came from a duplicate check.
func DuplicateResultOf(err error) (dedupe.Result, bool) {
	var d *DuplicateError
	if errors.As(err, &d) {
		return d.Result, true
	}
	return dedupe.Result{}, false
}

// candidateStatuses are the spots a nomination is compared against.
// Rejected spots are excluded so a bad earlier entry never blocks a good one.
var candidateStatuses = []models.SpotStatus{models.StatusPending, models.StatusApproved}

// NominateOptions controls Nominate.
type NominateOptions struct {
	// Force stores the spot even when duplicates were found.
	Force bool
}

// NominationResult is returned by a successful Nominate.
type NominationResult struct {
	Spot       *models.Spot  `json:"spot"`
	Duplicates dedupe.Result `json:"duplicates"`
	Forced     bool          `json:"forced"`
}

// Deps are the collaborators of Service. Geocoder and Screener are optional.
type Deps struct {
	Repo       domain.Repository
	UoW        domain.UnitOfWorkFactory
	Geocoder   geocode.Geocoder
	Screener   screening.Screener
	Classifier *sociallink.Classifier
	Logger     *logging.Logger
	Dedupe     dedupe.Options
}

// Service coordinates spot nomination and moderation.
type Service struct {
	repo       domain.Repository
	uow        domain.UnitOfWorkFactory
	geocoder   geocode.Geocoder
	screener   screening.Screener
	classifier *sociallink.Classifier
	log        *logging.ComponentLogger
	opts       dedupe.Options
}

// NewService builds a Service. Repo, UoW and Logger are required.
func NewService(d Deps) *Service {
	return &Service{
		repo:       d.Repo,
		uow:        d.UoW,
		geocoder:   d.Geocoder,
		screener:   d.Screener,
		classifier: d.Classifier,
		log:        d.Logger.WithComponent("spots"),
		opts:       d.Dedupe,
	}
}

// CheckDuplicates validates sub and compares it with the spots of its city.
func (s *Service) CheckDuplicates(ctx context.Context, sub models.SpotSubmission) (*dedupe.Result, error) {
	if err := validation.CheckSpotSubmission(sub); err != nil {
		return nil, err
	}
	ctx = logging.WithCityID(ctx, sub.CityID)

	coords, _, err := s.resolveCoordinates(ctx, sub)
	if err != nil {
		return nil, err
	}
	res, err := s.check(ctx, sub.Name, coords, sub.CityID)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) check(ctx context.Context, name string, coords geo.Coordinate, cityID string) (dedupe.Result, error) {
	existing, err := s.repo.ListSpotsByCityCtx(ctx, cityID, candidateStatuses)
	if err != nil {
		return dedupe.Result{}, err
	}
	res := dedupe.CheckForDuplicates(name, coords, cityID, models.Candidates(existing), s.opts)
	s.log.Debug(ctx, "duplicate check",
		logging.Int("candidates", len(existing)),
		logging.Int("matches", len(res.Matches)),
		logging.Bool("is_duplicate", res.IsDuplicate))
	return res, nil
}

// resolveCoordinates returns the submitted coordinates, geocoding the
// address when none were given. The formatted address is returned when the
// geocoder ran.
func (s *Service) resolveCoordinates(ctx context.Context, sub models.SpotSubmission) (geo.Coordinate, string, error) {
	if sub.Coordinates != nil {
		return *sub.Coordinates, "", nil
	}
	if s.geocoder == nil {
		return geo.Coordinate{}, "", errs.NewFieldValidation("spots.resolveCoordinates", map[string]string{
			"coordinates": "coordinates are required",
		})
	}

	place, err := s.geocoder.Geocode(ctx, sub.Address)
	if errs.Is(err, errs.ErrNotFound) {
		return geo.Coordinate{}, "", errs.NewFieldValidation("spots.resolveCoordinates", map[string]string{
			"address": "address could not be located",
		})
	}
	if err != nil {
		return geo.Coordinate{}, "", err
	}
	if place.CityID != "" && place.CityID != sub.CityID {
		s.log.Warn(ctx, "geocoded city differs from submitted city",
			logging.String("geocoded_city", place.CityID))
	}
	return place.Coordinates, place.FormattedAddress, nil
}

// Nominate validates, checks for duplicates and stores a new pending spot.
// When duplicates are found and opts.Force is false nothing is stored and the
// returned error satisfies errors.Is(err, ErrDuplicate).
func (s *Service) Nominate(ctx context.Context, sub models.SpotSubmission, opts NominateOptions) (*NominationResult, error) {
	const op = "spots.Nominate"

	if err := validation.CheckSpotSubmission(sub); err != nil {
		return nil, err
	}
	ctx = logging.WithCityID(ctx, sub.CityID)

	coords, formatted, err := s.resolveCoordinates(ctx, sub)
	if err != nil {
		return nil, err
	}

	dups, err := s.check(ctx, sub.Name, coords, sub.CityID)
	if err != nil {
		return nil, err
	}
	if dups.IsDuplicate && !opts.Force {
		s.log.Info(ctx, "nomination blocked as duplicate",
			logging.String("name", sub.Name), logging.Int("matches", len(dups.Matches)))
		return nil, errs.NewBiz(op, "nomination matches existing spots", &DuplicateError{Result: dups})
	}

	spot := s.buildSpot(sub, coords, formatted)

	if s.screener != nil {
		result, err := s.screener.Screen(ctx, *spot)
		if err != nil {
			s.log.Warn(ctx, "screening failed; storing without verdict", logging.String("error", err.Error()))
		} else {
			spot.Screening = result
		}
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CreateSpotCtx(ctx, spot); err != nil {
		return nil, err
	}
	entry := domain.NewAuditLog(spot.ID, nil, domain.ActionNominated, nil)
	entry.Details = nominationDetails(dups, opts.Force, spot.Screening)
	if err := uow.CreateAuditLogCtx(ctx, entry); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.log.Info(logging.WithSpotID(ctx, spot.ID), "spot nominated",
		logging.String("name", spot.Name),
		logging.Bool("forced", opts.Force && dups.IsDuplicate))

	return &NominationResult{Spot: spot, Duplicates: dups, Forced: opts.Force && dups.IsDuplicate}, nil
}

func (s *Service) buildSpot(sub models.SpotSubmission, coords geo.Coordinate, formattedAddress string) *models.Spot {
	spot := &models.Spot{
		Name:        strings.TrimSpace(sub.Name),
		CityID:      sub.CityID,
		Category:    models.Category(sub.Category),
		Coordinates: coords,
		Address:     optional(sub.Address),
		Description: optional(sub.Description),
		Website:     optional(sub.Website),
		SocialLinks: s.ClassifyLinks(sub.SocialLinks),
		Status:      models.StatusPending,
		SubmittedBy: optional(sub.SubmittedBy),
	}
	if spot.Address == nil && formattedAddress != "" {
		spot.Address = &formattedAddress
	}
	if len(spot.SocialLinks) == 0 {
		spot.SocialLinks = nil
	}
	return spot
}

// ClassifyLinks tags each URL with the platform it points at.
func (s *Service) ClassifyLinks(urls []string) []sociallink.Link {
	if s.classifier != nil {
		return s.classifier.ClassifyAll(urls)
	}
	return sociallink.ClassifyAll(urls)
}

// Approve marks a pending spot approved.
func (s *Service) Approve(ctx context.Context, id int64, adminID int, note string) (*models.Spot, error) {
	return s.moderate(ctx, "spots.Approve", id, adminID, models.StatusApproved, domain.ActionApproved, note)
}

// Reject marks a pending spot rejected. A note is required.
func (s *Service) Reject(ctx context.Context, id int64, adminID int, note string) (*models.Spot, error) {
	if strings.TrimSpace(note) == "" {
		return nil, errs.NewFieldValidation("spots.Reject", map[string]string{"note": "a reason is required to reject a spot"})
	}
	return s.moderate(ctx, "spots.Reject", id, adminID, models.StatusRejected, domain.ActionRejected, note)
}

func (s *Service) moderate(ctx context.Context, op string, id int64, adminID int, status models.SpotStatus, action domain.AuditAction, note string) (*models.Spot, error) {
	ctx = logging.WithSpotID(ctx, id)

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	spot, err := uow.GetSpotByIDCtx(ctx, id)
	if err != nil {
		return nil, err
	}
	if spot.Status != models.StatusPending {
		return nil, errs.NewBiz(op, fmt.Sprintf("spot is already %s", spot.Status), nil)
	}

	notePtr := optional(note)
	if err := uow.UpdateSpotStatusCtx(ctx, id, status, adminID, notePtr); err != nil {
		return nil, err
	}
	if err := uow.CreateAuditLogCtx(ctx, domain.NewAuditLog(id, &adminID, action, notePtr)); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	spot.Status = status
	spot.ReviewedBy = &adminID
	spot.ReviewedAt = &now
	spot.ReviewNote = notePtr
	spot.UpdatedAt = now

	s.log.Info(ctx, "spot moderated", logging.String("status", string(status)), logging.Int("admin_id", adminID))
	return spot, nil
}

// GetSpot loads one spot.
func (s *Service) GetSpot(ctx context.Context, id int64) (*models.Spot, error) {
	return s.repo.GetSpotByIDCtx(ctx, id)
}

// ListCitySpots lists the spots of a city in the given statuses.
func (s *Service) ListCitySpots(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error) {
	if err := validation.ValidateCityID(cityID); err != nil {
		return nil, errs.NewFieldValidation("spots.ListCitySpots", map[string]string{"cityId": err.Error()})
	}
	return s.repo.ListSpotsByCityCtx(ctx, cityID, statuses)
}

// CityStats counts the spots of a city per status.
func (s *Service) CityStats(ctx context.Context, cityID string) (*models.CityStats, error) {
	if err := validation.ValidateCityID(cityID); err != nil {
		return nil, errs.NewFieldValidation("spots.CityStats", map[string]string{"cityId": err.Error()})
	}
	return s.repo.GetCityStatsCtx(ctx, cityID)
}

// History returns the audit trail of a spot, newest first.
func (s *Service) History(ctx context.Context, id int64) ([]domain.AuditLog, error) {
	if _, err := s.repo.GetSpotByIDCtx(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetAuditLogsBySpotIDCtx(ctx, id)
}

type nominationAudit struct {
	Forced    bool                    `json:"forced"`
	Matches   []string                `json:"matches,omitempty"`
	Screening models.ScreeningVerdict `json:"screening,omitempty"`
}

func nominationDetails(dups dedupe.Result, forced bool, sr *models.ScreeningResult) *string {
	d := nominationAudit{Forced: forced && dups.IsDuplicate}
	for _, m := range dups.Matches {
		d.Matches = append(d.Matches, m.Candidate.ID)
	}
	if sr != nil {
		d.Screening = sr.Verdict
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	out := string(b)
	return &out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
