package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
)

// upstashMessageIDHeader identifies a QStash delivery; it stands in when the payload has no dispatch id.
const upstashMessageIDHeader = "Upstash-Message-Id"

func (h *Handler) RunFixtureTick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFixtureTick")
	defer span.End()

	var req usecase.FixtureTickInput
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.DispatchID) == "" {
		req.DispatchID = strings.TrimSpace(r.Header.Get(upstashMessageIDHeader))
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.jobs.RunTick(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "run fixture tick failed",
			"fixture_id", req.FixtureExternalID,
			"phase", req.Phase,
			"dispatch_id", req.DispatchID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) StartFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartFixture")
	defer span.End()

	var req fixtureStartRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	phase := matchphase.PreMatch
	if req.Phase != "" {
		parsed, err := matchphase.ParsePhase(req.Phase)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
		phase = parsed
	}

	if err := h.jobs.Start(ctx, req.FixtureExternalID, phase); err != nil {
		h.logger.WarnContext(ctx, "start fixture polling failed", "fixture_id", req.FixtureExternalID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, map[string]any{
		"fixture_id": req.FixtureExternalID,
		"phase":      string(phase),
	})
}

func (h *Handler) RunFixtureBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFixtureBatch")
	defer span.End()

	var req fixtureBatchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	results, err := h.jobs.RunBatch(ctx, req.Fixtures)
	if err != nil {
		h.logger.WarnContext(ctx, "run fixture batch failed", "fixtures", len(req.Fixtures), "error", err)
		writeError(ctx, w, err)
		return
	}

	failed := 0
	for _, row := range results {
		if row.Error != "" {
			failed++
		}
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"items":  results,
		"failed": failed,
	})
}

func (h *Handler) ListFixtureDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtureDispatches")
	defer span.End()

	fixtureID, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("fixtureID")), 10, 64)
	if err != nil || fixtureID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: fixtureID must be a positive integer", usecase.ErrInvalidInput))
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
	}

	items, err := h.jobs.ListDispatches(ctx, fixtureID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]jobDispatchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, jobDispatchToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func decodeJSONBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
