package handler

import (
	"errors"
	"net/http"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

// GetHTBStats returns the saved Hack The Box stats, or defaults when none
// have been saved.
// GET /api/admin/htb-stats
func (h *ContentHandler) GetHTBStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.currentHTBStats(r)
	if err != nil {
		h.storeError(w, err, "", "Failed to fetch HTB stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SaveHTBStats overlays the posted fields onto the current stats. Root owns
// always mirror user owns.
// POST /api/admin/htb-stats
func (h *ContentHandler) SaveHTBStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.currentHTBStats(r)
	if err != nil {
		h.storeError(w, err, "", "Failed to save HTB stats")
		return
	}
	if err := readJSON(r, stats); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if stats.GlobalRanking < 0 || stats.FinalScore < 0 || stats.MachinesPwned < 0 || stats.OwnsUser < 0 || stats.Respect < 0 {
		writeError(w, http.StatusBadRequest, "Stats cannot be negative")
		return
	}
	stats.OwnsRoot = stats.OwnsUser

	if err := h.store.SaveHTBStats(r.Context(), stats); err != nil {
		h.storeError(w, err, "", "Failed to save HTB stats")
		return
	}

	h.record(r, model.ActionStatsUpdated, map[string]string{"platform": "htb"})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *ContentHandler) currentHTBStats(r *http.Request) (*model.HTBStats, error) {
	stats, err := h.store.GetHTBStats(r.Context())
	if errors.Is(err, config.ErrNotFound) {
		def := model.DefaultHTBStats()
		return &def, nil
	}
	return stats, err
}

// GetTHMStats returns the saved TryHackMe stats, or defaults when none have
// been saved.
// GET /api/admin/thm-stats
func (h *ContentHandler) GetTHMStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.currentTHMStats(r)
	if err != nil {
		h.storeError(w, err, "", "Failed to fetch THM stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SaveTHMStats overlays the posted fields onto the current stats.
// POST /api/admin/thm-stats
func (h *ContentHandler) SaveTHMStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.currentTHMStats(r)
	if err != nil {
		h.storeError(w, err, "", "Failed to save THM stats")
		return
	}
	if err := readJSON(r, stats); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if stats.GlobalRanking < 0 || stats.TotalPoints < 0 || stats.RoomsCompleted < 0 || stats.Streak < 0 || stats.Badges < 0 {
		writeError(w, http.StatusBadRequest, "Stats cannot be negative")
		return
	}

	if err := h.store.SaveTHMStats(r.Context(), stats); err != nil {
		h.storeError(w, err, "", "Failed to save THM stats")
		return
	}

	h.record(r, model.ActionStatsUpdated, map[string]string{"platform": "thm"})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
}

func (h *ContentHandler) currentTHMStats(r *http.Request) (*model.THMStats, error) {
	stats, err := h.store.GetTHMStats(r.Context())
	if errors.Is(err, config.ErrNotFound) {
		def := model.DefaultTHMStats()
		return &def, nil
	}
	return stats, err
}
