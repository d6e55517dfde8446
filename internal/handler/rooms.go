package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

// ListRooms returns the TryHackMe catalog, or a single room when ?slug= is
// given.
// GET /api/admin/thm-rooms
func (h *ContentHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if slug := queryString(r, "slug"); slug != "" {
		room, err := h.store.GetRoomBySlug(r.Context(), slug)
		if err != nil {
			h.storeError(w, err, "Room not found", "Failed to fetch room")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"room": room})
		return
	}

	filter, err := contentFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Search term too long")
		return
	}
	rooms, err := h.store.ListRooms(r.Context(), filter)
	if err != nil {
		h.storeError(w, err, "", "Failed to fetch rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

// CreateRoom adds a room. The slug is derived from the title when omitted.
// POST /api/admin/thm-rooms
func (h *ContentHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room model.Room
	if err := readJSON(r, &room); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := prepareRoom(&room); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.CreateRoom(r.Context(), &room); err != nil {
		if errors.Is(err, config.ErrConflict) {
			writeError(w, http.StatusConflict, "A room with this slug already exists")
			return
		}
		h.storeError(w, err, "", "Failed to create room")
		return
	}

	h.record(r, model.ActionRoomCreated, map[string]string{"id": room.ID, "title": room.Title})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "room": room})
}

// UpdateRoom overlays the request body onto an existing room.
// PUT /api/admin/thm-rooms?id=
func (h *ContentHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, body, err := readUpdate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	room, err := h.store.GetRoom(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Room not found", "Failed to update room")
		return
	}
	createdAt := room.CreatedAt
	if err := json.Unmarshal(body, room); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	room.ID = id
	room.CreatedAt = createdAt
	if msg := prepareRoom(room); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateRoom(r.Context(), room); err != nil {
		if errors.Is(err, config.ErrConflict) {
			writeError(w, http.StatusConflict, "A room with this slug already exists")
			return
		}
		h.storeError(w, err, "Room not found", "Failed to update room")
		return
	}

	h.record(r, model.ActionRoomUpdated, map[string]string{"id": room.ID, "title": room.Title})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "room": room})
}

// DeleteRoom removes a room.
// DELETE /api/admin/thm-rooms?id=
func (h *ContentHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := queryString(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Room ID is required")
		return
	}
	if err := h.store.DeleteRoom(r.Context(), id); err != nil {
		h.storeError(w, err, "Room not found", "Failed to delete room")
		return
	}

	h.record(r, model.ActionRoomDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Room deleted successfully",
	})
}

func prepareRoom(room *model.Room) string {
	room.Title = strings.TrimSpace(room.Title)
	if room.Title == "" {
		return "Title is required"
	}
	if room.Slug == "" {
		room.Slug = slugify(room.Title)
	} else {
		room.Slug = slugify(room.Slug)
	}
	if room.Slug == "" {
		return "Slug must contain letters or digits"
	}
	if room.Points < 0 {
		return "Points cannot be negative"
	}
	return validateCommon(room.Difficulty, room.Status, &room.DateCompleted)
}
