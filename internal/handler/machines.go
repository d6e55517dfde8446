package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hackfolio/hackfolio/internal/model"
)

// ListMachines returns the Hack The Box catalog, or a single machine when
// ?id= is given.
// GET /api/admin/htb-machines
func (h *ContentHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	if id := queryString(r, "id"); id != "" {
		m, err := h.store.GetMachine(r.Context(), id)
		if err != nil {
			h.storeError(w, err, "Machine not found", "Failed to fetch machine")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"machine": m})
		return
	}

	filter, err := contentFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Search term too long")
		return
	}
	machines, err := h.store.ListMachines(r.Context(), filter)
	if err != nil {
		h.storeError(w, err, "", "Failed to fetch machines")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"machines": machines})
}

// CreateMachine adds a machine.
// POST /api/admin/htb-machines
func (h *ContentHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var m model.Machine
	if err := readJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := prepareMachine(&m); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.CreateMachine(r.Context(), &m); err != nil {
		h.storeError(w, err, "", "Failed to create machine")
		return
	}

	h.record(r, model.ActionMachineCreated, map[string]string{"id": m.ID, "name": m.Name})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "machine": m})
}

// UpdateMachine overlays the request body onto an existing machine.
// PUT /api/admin/htb-machines?id=
func (h *ContentHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, body, err := readUpdate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Machine ID is required")
		return
	}

	m, err := h.store.GetMachine(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Machine not found", "Failed to update machine")
		return
	}
	createdAt := m.CreatedAt
	if err := json.Unmarshal(body, m); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.ID = id
	m.CreatedAt = createdAt
	if msg := prepareMachine(m); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateMachine(r.Context(), m); err != nil {
		h.storeError(w, err, "Machine not found", "Failed to update machine")
		return
	}

	h.record(r, model.ActionMachineUpdated, map[string]string{"id": m.ID, "name": m.Name})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "machine": m})
}

// DeleteMachine removes a machine.
// DELETE /api/admin/htb-machines?id=
func (h *ContentHandler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id := queryString(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Machine ID is required")
		return
	}
	if err := h.store.DeleteMachine(r.Context(), id); err != nil {
		h.storeError(w, err, "Machine not found", "Failed to delete machine")
		return
	}

	h.record(r, model.ActionMachineDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Machine deleted successfully",
	})
}

func prepareMachine(m *model.Machine) string {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return "Name is required"
	}
	if m.Points < 0 {
		return "Points cannot be negative"
	}
	return validateCommon(m.Difficulty, m.Status, &m.DateCompleted)
}
