package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

// TierSummary describes one difficulty preset.
type TierSummary struct {
	Name            string                     `json:"name"`
	Tech            int                        `json:"tech"`
	NotableStrats   int                        `json:"notable_strats"`
	Progression     difficulty.ProgressionRate `json:"progression_rate"`
	ItemPlacement   difficulty.PlacementStyle  `json:"item_placement"`
	DoorsMode       difficulty.DoorsMode       `json:"doors_mode"`
	RandomizedStart bool                       `json:"randomized_start"`
}

// CatalogResponse lists what a seed request may choose from.
type CatalogResponse struct {
	Maps  []string      `json:"maps"`
	Tiers []TierSummary `json:"tiers"`
}

// CatalogHandler serves GET /v1/maps
type CatalogHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewCatalogHandler(store storage.Storage, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{storage: store, logger: logger}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	maps, err := h.storage.ListMaps(r.Context())
	if err != nil {
		h.logger.Error("Failed to list maps", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list maps.")
		return
	}
	presets, err := h.storage.LoadPresets(r.Context())
	if err != nil {
		h.logger.Error("Failed to load presets", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load difficulty presets.")
		return
	}

	tiers := make([]TierSummary, len(presets))
	for i, p := range presets {
		tiers[i] = TierSummary{
			Name:            p.Name,
			Tech:            len(p.Tech),
			NotableStrats:   len(p.NotableStrats),
			Progression:     p.ProgressionRate,
			ItemPlacement:   p.ItemPlacementStyle,
			DoorsMode:       p.DoorsMode,
			RandomizedStart: p.RandomizedStart,
		}
	}
	writeJSON(w, h.logger, http.StatusOK, CatalogResponse{Maps: maps, Tiers: tiers})
}
