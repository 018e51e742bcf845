package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/difficulty"
)

func TestCatalogHandler(t *testing.T) {
	f := setup(t)
	expert := difficulty.Default()
	expert.Name = "Expert"
	expert.Tech = []string{"canWallJump", "canIBJ"}
	expert.DoorsMode = difficulty.DoorsAmmo
	f.store.SetPresets([]difficulty.Config{difficulty.Default(), expert})
	handler := NewCatalogHandler(f.store, testLogger())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/maps", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CatalogResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, []string{"tiny"}, resp.Maps)
	require.Len(t, resp.Tiers, 2)
	assert.Equal(t, "Default", resp.Tiers[0].Name)
	assert.Equal(t, "Expert", resp.Tiers[1].Name)
	assert.Equal(t, 2, resp.Tiers[1].Tech)
	assert.Equal(t, difficulty.DoorsAmmo, resp.Tiers[1].DoorsMode)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/maps", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
