package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seattleflu/husky-musher/internal/api/middleware"
	"github.com/seattleflu/husky-musher/internal/api/render"
	"github.com/seattleflu/husky-musher/internal/metrics"
	"github.com/seattleflu/husky-musher/internal/redcap"
	"github.com/seattleflu/husky-musher/internal/shibboleth"
)

// Enrollment event instruments. REDCap's survey queue forwards a
// participant past instruments they have already completed, so pointing
// everyone at the first enrollment instrument is enough.
const (
	enrollmentEvent      = "enrollment_arm_1"
	enrollmentInstrument = redcap.RegistrationInstrument

	weeklyInstrument = "test_form"
)

// SurveyClient is the slice of the REDCap client the redirect flow needs.
type SurveyClient interface {
	FetchParticipant(ctx context.Context, info shibboleth.UserInfo) (redcap.Record, error)
	RegisterParticipant(ctx context.Context, info shibboleth.UserInfo) (string, error)
	GenerateSurveyLink(ctx context.Context, recordID, event, instrument string, instance int) (string, error)
	CurrentWeek(now time.Time) int
}

// RedirectHandler implements the service's sole purpose: send each
// authenticated user to the survey they should fill out next.
type RedirectHandler struct {
	client SurveyClient
	now    func() time.Time
}

func NewRedirectHandler(client SurveyClient) *RedirectHandler {
	return &RedirectHandler{client: client, now: time.Now}
}

func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.LoggerFromContext(ctx)
	identity := middleware.IdentityFromContext(ctx)

	if identity.RemoteUser == "" || identity.User.NetID == "" {
		logger.Error().Msg("no remote user on an authenticated route")
		writeErrorPage(w)
		return
	}

	netid := identity.User.NetID
	if err := shibboleth.ValidateNetID(netid); err != nil {
		// The NetID is user-controlled at this point; keep it out of logs.
		logger.Warn().Err(err).Msg("rejected malformed NetID [redacted]")
		writePage(w, http.StatusBadRequest, render.InvalidNetIDPage(netid))
		return
	}

	record, err := h.client.FetchParticipant(ctx, identity.User)
	if err != nil {
		if errors.Is(err, redcap.ErrAmbiguousNetID) {
			logger.Error().Err(err).Msg("participant lookup is ambiguous")
		} else {
			logger.Error().Err(err).Msg("participant lookup failed")
		}
		writeErrorPage(w)
		return
	}

	if record == nil {
		recordID, err := h.client.RegisterParticipant(ctx, identity.User)
		if err != nil {
			logger.Error().Err(err).Msg("participant registration failed")
			writeErrorPage(w)
			return
		}
		logger.Info().Str("record_id", recordID).Msg("registered new participant")
		record = redcap.Record{"record_id": recordID}
	}

	event, instrument := enrollmentEvent, enrollmentInstrument
	if record.RegistrationComplete() {
		week := h.client.CurrentWeek(h.now())
		if week < 1 {
			// Only possible with a study start date in the future.
			logger.Error().Int("week", week).Msg("current study week is before week 1")
			writeErrorPage(w)
			return
		}
		event = fmt.Sprintf("week_%d_arm_1", week)
		instrument = weeklyInstrument
	}

	link, err := h.client.GenerateSurveyLink(ctx, record.ID(), event, instrument, 0)
	if err != nil {
		logger.Error().Err(err).Str("event", event).Str("instrument", instrument).Msg("survey link generation failed")
		writeErrorPage(w)
		return
	}

	metrics.SurveyRedirectsTotal.WithLabelValues(instrument).Inc()
	http.Redirect(w, r, link, http.StatusFound)
}

// NotFound renders the 404 page for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writePage(w, http.StatusNotFound, render.NotFoundPage())
}

func writeErrorPage(w http.ResponseWriter) {
	writePage(w, http.StatusInternalServerError, render.ErrorPage())
}

func writePage(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
