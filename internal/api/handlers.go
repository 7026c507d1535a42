package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"builder-maps/internal/auth"
	"builder-maps/internal/dedupe"
	"builder-maps/internal/domain"
	"builder-maps/internal/models"
	"builder-maps/internal/sociallink"
	"builder-maps/internal/spots"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/logging"
	"builder-maps/pkg/metrics"
)

// SpotService is what the handlers need from spots.Service.
type SpotService interface {
	CheckDuplicates(ctx context.Context, sub models.SpotSubmission) (*dedupe.Result, error)
	Nominate(ctx context.Context, sub models.SpotSubmission, opts spots.NominateOptions) (*spots.NominationResult, error)
	ClassifyLinks(urls []string) []sociallink.Link
	Approve(ctx context.Context, id int64, adminID int, note string) (*models.Spot, error)
	Reject(ctx context.Context, id int64, adminID int, note string) (*models.Spot, error)
	GetSpot(ctx context.Context, id int64) (*models.Spot, error)
	ListCitySpots(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error)
	CityStats(ctx context.Context, cityID string) (*models.CityStats, error)
	History(ctx context.Context, id int64) ([]domain.AuditLog, error)
}

var _ SpotService = (*spots.Service)(nil)

var (
	mNominated      = metrics.Default.Counter("spots_nominated_total", "Nominations stored")
	mDuplicateBlock = metrics.Default.Counter("spots_duplicate_blocked_total", "Nominations blocked as likely duplicates")
	mForced         = metrics.Default.Counter("spots_forced_total", "Nominations stored despite duplicate matches")
	mChecks         = metrics.Default.Counter("spots_duplicate_checks_total", "Duplicate checks served")
	mModerated      = metrics.Default.Counter("spots_moderated_total", "Moderation decisions recorded")
)

// CheckDuplicatesHandler reports likely duplicates without storing anything.
func CheckDuplicatesHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub models.SpotSubmission
		if err := decodeJSON(w, r, &sub); err != nil {
			writeError(w, r, log, err)
			return
		}
		res, err := svc.CheckDuplicates(r.Context(), sub)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		mChecks.Inc()
		writeJSON(w, http.StatusOK, res)
	}
}

// NominateHandler stores a new pending spot. ?force=true overrides the
// duplicate block.
func NominateHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub models.SpotSubmission
		if err := decodeJSON(w, r, &sub); err != nil {
			writeError(w, r, log, err)
			return
		}
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		res, err := svc.Nominate(r.Context(), sub, spots.NominateOptions{Force: force})
		if err != nil {
			if _, dup := spots.DuplicateResultOf(err); dup {
				mDuplicateBlock.Inc()
			}
			writeError(w, r, log, err)
			return
		}
		mNominated.Inc()
		if res.Forced {
			mForced.Inc()
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

type classifyRequest struct {
	URLs []string `json:"urls"`
}

type classifyResponse struct {
	Links []sociallink.Link `json:"links"`
}

// ClassifyLinksHandler tags URLs with their platform.
func ClassifyLinksHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}
		if len(req.URLs) > 50 {
			writeError(w, r, log, errs.NewFieldValidation("api.ClassifyLinks", map[string]string{"urls": "at most 50 urls per request"}))
			return
		}
		writeJSON(w, http.StatusOK, classifyResponse{Links: svc.ClassifyLinks(req.URLs)})
	}
}

// GetSpotHandler returns an approved spot. Pending and rejected spots are
// only visible on the admin routes.
func GetSpotHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, r, log, errs.NewValidation("api.GetSpot", "invalid spot id", nil))
			return
		}
		spot, err := svc.GetSpot(r.Context(), id)
		if err == nil && spot.Status != models.StatusApproved {
			err = errs.NewNotFound("api.GetSpot", "spot", strconv.FormatInt(id, 10))
		}
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, spot)
	}
}

type spotsResponse struct {
	CityID string        `json:"cityId"`
	Spots  []models.Spot `json:"spots"`
}

// CitySpotsHandler lists the approved spots of a city.
func CitySpotsHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := mux.Vars(r)["city"]
		list, err := svc.ListCitySpots(r.Context(), city, []models.SpotStatus{models.StatusApproved})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, spotsResponse{CityID: city, Spots: list})
	}
}

// CityStatsHandler returns per-status counts for a city.
func CityStatsHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.CityStats(r.Context(), mux.Vars(r)["city"])
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// AdminCitySpotsHandler lists a city's spots in any status, filtered by
// ?status=pending,approved (default pending).
func AdminCitySpotsHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := parseStatuses(r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		city := mux.Vars(r)["city"]
		list, err := svc.ListCitySpots(r.Context(), city, statuses)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, spotsResponse{CityID: city, Spots: list})
	}
}

func parseStatuses(raw string) ([]models.SpotStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return []models.SpotStatus{models.StatusPending}, nil
	}
	var out []models.SpotStatus
	for _, part := range strings.Split(raw, ",") {
		st := models.SpotStatus(strings.TrimSpace(strings.ToLower(part)))
		switch st {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			out = append(out, st)
		case "all":
			return nil, nil
		default:
			return nil, errs.NewFieldValidation("api.parseStatuses", map[string]string{"status": "unknown status " + string(st)})
		}
	}
	return out, nil
}

type adminSpotResponse struct {
	Spot    *models.Spot      `json:"spot"`
	History []domain.AuditLog `json:"history"`
}

// AdminSpotHandler returns a spot in any status together with its audit trail.
func AdminSpotHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, r, log, errs.NewValidation("api.AdminSpot", "invalid spot id", nil))
			return
		}
		spot, err := svc.GetSpot(r.Context(), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		history, err := svc.History(r.Context(), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, adminSpotResponse{Spot: spot, History: history})
	}
}

type moderationRequest struct {
	Note string `json:"note"`
}

// ApproveSpotHandler approves a pending spot.
func ApproveSpotHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return moderationHandler(svc.Approve, log)
}

// RejectSpotHandler rejects a pending spot; the body must carry a note.
func RejectSpotHandler(svc SpotService, log *logging.ComponentLogger) http.HandlerFunc {
	return moderationHandler(svc.Reject, log)
}

func moderationHandler(decide func(ctx context.Context, id int64, adminID int, note string) (*models.Spot, error), log *logging.ComponentLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			writeError(w, r, log, errs.NewValidation("api.moderate", "invalid spot id", nil))
			return
		}
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "admin access required"})
			return
		}

		// The body is optional; chunked requests report ContentLength -1
		// even when empty, so only io.EOF from the decoder means "no body".
		var req moderationRequest
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, log, err)
			return
		}

		spot, err := decide(r.Context(), id, adminID, req.Note)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		mModerated.Inc()
		writeJSON(w, http.StatusOK, spot)
	}
}
