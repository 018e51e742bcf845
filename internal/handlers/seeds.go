package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/internal/services/events"
	"github.com/jwebster45206/rando-engine/internal/services/queue"
	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	queuePkg "github.com/jwebster45206/rando-engine/pkg/queue"
	"github.com/jwebster45206/rando-engine/pkg/randomize"
	"github.com/jwebster45206/rando-engine/pkg/spoilertext"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

var validate = validator.New()

// CreateSeedRequest is the body of POST /v1/seeds. Every field is optional.
type CreateSeedRequest struct {
	Seed            *uint64 `json:"seed,omitempty"`
	Tier            string  `json:"tier,omitempty" validate:"omitempty,max=64"`
	RandomizedStart *bool   `json:"randomized_start,omitempty"`
	DoorsMode       *string `json:"doors_mode,omitempty" validate:"omitempty,oneof=blue ammo"`
}

// CreateSeedResponse acknowledges an enqueued seed job.
type CreateSeedResponse struct {
	ID        uuid.UUID         `json:"id"`
	RequestID string            `json:"request_id"`
	Seed      uint64            `json:"seed"`
	Status    storage.SeedState `json:"status"`
}

// SeedResponse is the body of GET /v1/seeds/{id}. Result is set once the
// job has completed.
type SeedResponse struct {
	Status *storage.SeedStatus      `json:"status"`
	Result *randomize.Randomization `json:"result,omitempty"`
}

// SeedsHandler serves seed job creation and lookup.
type SeedsHandler struct {
	storage     storage.Storage
	queue       *queue.SeedQueue
	broadcaster *events.Broadcaster
	defaultTier string
	logger      *slog.Logger
}

// NewSeedsHandler creates a seeds handler. broadcaster may be nil.
func NewSeedsHandler(store storage.Storage, seedQueue *queue.SeedQueue, broadcaster *events.Broadcaster, defaultTier string, logger *slog.Logger) *SeedsHandler {
	return &SeedsHandler{
		storage:     store,
		queue:       seedQueue,
		broadcaster: broadcaster,
		defaultTier: defaultTier,
		logger:      logger,
	}
}

// ServeHTTP routes:
//
//	POST /v1/seeds
//	GET  /v1/seeds/{id}
//	GET  /v1/seeds/{id}/spoiler
func (h *SeedsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" || parts[1] != "seeds" || len(parts) > 4 {
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported at /v1/seeds.")
			return
		}
		h.create(w, r)
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid seed ID format.")
		return
	}
	switch {
	case len(parts) == 3:
		h.get(w, r, id)
	case parts[3] == "spoiler":
		h.spoiler(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
	}
}

func (h *SeedsHandler) create(w http.ResponseWriter, r *http.Request) {
	var body CreateSeedRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	// An empty body asks for a random seed at the default tier.
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid seed request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with optional 'seed', 'tier', 'randomized_start' and 'doors_mode' fields.")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, validationMessage(err))
		return
	}

	tier := body.Tier
	if tier == "" {
		tier = h.defaultTier
	}
	presets, err := h.storage.LoadPresets(r.Context())
	if err != nil {
		h.logger.Error("Failed to load presets", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load difficulty presets.")
		return
	}
	if _, err := difficulty.Find(presets, tier); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Unknown tier %q.", tier))
		return
	}

	seed := rand.Uint64()
	if body.Seed != nil {
		seed = *body.Seed
	}

	req := &queuePkg.Request{
		RequestID:       uuid.New().String(),
		SeedID:          uuid.New(),
		Seed:            seed,
		Tier:            tier,
		RandomizedStart: body.RandomizedStart,
		DoorsMode:       body.DoorsMode,
		EnqueuedAt:      time.Now(),
	}

	// Status first so a fast worker never overwrites processing with queued.
	status := &storage.SeedStatus{
		ID:        req.SeedID,
		State:     storage.SeedQueued,
		Seed:      seed,
		Tier:      tier,
		UpdatedAt: req.EnqueuedAt,
	}
	if err := h.storage.SetStatus(r.Context(), status); err != nil {
		h.logger.Error("Failed to record seed status", "error", err, "seed_id", req.SeedID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create seed job.")
		return
	}
	if err := h.queue.EnqueueRequest(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue seed request", "error", err, "seed_id", req.SeedID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create seed job.")
		return
	}
	if h.broadcaster != nil {
		if err := h.broadcaster.PublishSeedQueued(r.Context(), req.SeedID, req.RequestID, seed); err != nil {
			h.logger.Warn("Failed to publish queued event", "error", err)
		}
	}

	h.logger.Info("Seed job enqueued",
		"seed_id", req.SeedID.String(),
		"request_id", req.RequestID,
		"seed", seed,
		"tier", tier)

	w.Header().Set("Location", "/v1/seeds/"+req.SeedID.String())
	writeJSON(w, h.logger, http.StatusAccepted, CreateSeedResponse{
		ID:        req.SeedID,
		RequestID: req.RequestID,
		Seed:      seed,
		Status:    storage.SeedQueued,
	})
}

func (h *SeedsHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	status, err := h.storage.GetStatus(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load seed status", "error", err, "seed_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load seed.")
		return
	}
	res, err := h.storage.LoadRandomization(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load randomization", "error", err, "seed_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load seed.")
		return
	}
	if status == nil && res == nil {
		writeError(w, h.logger, http.StatusNotFound, "Seed not found.")
		return
	}
	if status == nil {
		status = &storage.SeedStatus{ID: id, State: storage.SeedCompleted, Seed: res.Seed, Tier: res.Difficulty}
	}
	writeJSON(w, h.logger, http.StatusOK, SeedResponse{Status: status, Result: res})
}

func (h *SeedsHandler) spoiler(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	res, err := h.storage.LoadRandomization(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load randomization", "error", err, "seed_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load seed.")
		return
	}
	if res == nil {
		writeError(w, h.logger, http.StatusNotFound, "No completed seed with that ID.")
		return
	}

	width := spoilertext.DefaultWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 20 || n > 400 {
			writeError(w, h.logger, http.StatusBadRequest, "Width must be a number between 20 and 400.")
			return
		}
		width = n
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(spoilertext.Render(res, width))); err != nil {
		h.logger.Error("Failed to write spoiler", "error", err)
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request."
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return "Invalid fields: " + strings.Join(fields, ", ")
}
