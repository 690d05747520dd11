package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/rgehrsitz/whatif/internal/calculation"
	"github.com/rgehrsitz/whatif/internal/config"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type handler struct {
	versions VersionRepository
	calc     *calculation.CalculationEngine
	parser   *config.InputParser
	now      func() time.Time
}

type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

type validateResponse struct {
	Valid     bool     `json:"valid"`
	Messages  []string `json:"messages,omitempty"`
	Scenarios int      `json:"scenarios"`
	Accounts  int      `json:"accounts"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFrom(r.Context()).WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Messages = ve.Messages
	}
	if status >= http.StatusInternalServerError {
		loggerFrom(r.Context()).WithError(err).Error("request failed")
	}
	writeJSON(w, r, status, resp)
}

// statusFor maps domain and store errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve      *domain.ValidationError
		missing *domain.MissingDriverTemplateError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrYearMismatch):
		return http.StatusConflict
	case errors.As(err, &ve), errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *handler) requireVersions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.versions == nil {
			writeError(w, r, http.StatusServiceUnavailable, errors.New("version store is not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// calculateImpacts evaluates a scenario posted as JSON. A missing start year
// defaults to the current year.
func (h *handler) calculateImpacts(w http.ResponseWriter, r *http.Request) {
	var scenario domain.Scenario
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&scenario); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if scenario.StartYear == 0 {
		scenario.StartYear = h.now().Year()
	}

	summary, err := h.calc.RunScenario(&scenario)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// validateWorkspace checks a workspace document (YAML or JSON). Problems are
// reported in the body with status 200.
func (h *handler) validateWorkspace(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	ws, err := h.parser.Parse(data)
	if err != nil {
		resp := validateResponse{Valid: false}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Messages = ve.Messages
		} else {
			resp.Messages = []string{err.Error()}
		}
		writeJSON(w, r, http.StatusOK, resp)
		return
	}

	writeJSON(w, r, http.StatusOK, validateResponse{
		Valid:     true,
		Scenarios: len(ws.Scenarios),
		Accounts:  len(ws.Accounts),
	})
}

func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0, errors.New("year must be a positive integer")
	}
	return year, nil
}

func (h *handler) listVersions(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), year)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	writeJSON(w, r, http.StatusOK, versions)
}

func (h *handler) versionCells(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cells, err := h.versions.GetVersionCells(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if cells == nil {
		cells = []domain.ForecastCell{}
	}
	writeJSON(w, r, http.StatusOK, cells)
}

func (h *handler) diffVersions(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("from and to version ids are required"))
		return
	}

	diff, err := h.versions.Diff(r.Context(), from, to)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, diff)
}

// activateVersion makes the version active for its year, or for ?year= when
// given.
func (h *handler) activateVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year, err := yearParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := h.versions.SetActive(r.Context(), id, year); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	loggerFrom(r.Context()).WithField("version_id", id).Info("version activated")
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.versions.DeleteVersion(r.Context(), id); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	loggerFrom(r.Context()).WithField("version_id", id).Info("version deleted")
	w.WriteHeader(http.StatusNoContent)
}
