package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/query"
)

// ---------------------------------------------------------------------------
// TryHackMe rooms
// ---------------------------------------------------------------------------

type roomRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Slug          string         `db:"slug"`
	Difficulty    string         `db:"difficulty"`
	Status        string         `db:"status"`
	TagsJSON      string         `db:"tags_json"`
	Writeup       sql.NullString `db:"writeup"`
	URL           string         `db:"url"`
	RoomCode      string         `db:"room_code"`
	Points        int            `db:"points"`
	DateCompleted sql.NullString `db:"date_completed"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

const roomColumns = `id, title, slug, difficulty, status, tags_json, writeup, url, room_code,
	points, date_completed, created_at, updated_at`

func (r roomRow) toModel() (model.Room, error) {
	tags, err := decodeTags(r.TagsJSON)
	if err != nil {
		return model.Room{}, fmt.Errorf("decode tags for room %s: %w", r.ID, err)
	}
	return model.Room{
		ID:            r.ID,
		Title:         r.Title,
		Slug:          r.Slug,
		Difficulty:    r.Difficulty,
		Status:        r.Status,
		Tags:          tags,
		Writeup:       nullableString(r.Writeup),
		URL:           r.URL,
		RoomCode:      r.RoomCode,
		Points:        r.Points,
		DateCompleted: nullableString(r.DateCompleted),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// CreateRoom inserts a room, assigning ID, CreatedAt and UpdatedAt. A
// duplicate slug yields ErrConflict.
func (s *Store) CreateRoom(ctx context.Context, room *model.Room) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate room id: %w", err)
	}
	now := time.Now().UTC()
	room.ID = id.String()
	room.CreatedAt = now
	room.UpdatedAt = now

	tags, err := encodeTags(room.Tags)
	if err != nil {
		return err
	}

	const q = `INSERT INTO thm_rooms
		(id, title, slug, difficulty, status, tags_json, writeup, url, room_code, points, date_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, s.q(q), room.ID, room.Title, room.Slug, room.Difficulty, room.Status,
		tags, room.Writeup, room.URL, room.RoomCode, room.Points, room.DateCompleted, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetRoom returns a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	return s.getRoom(ctx, "id", id)
}

// GetRoomBySlug returns a room by its URL slug.
func (s *Store) GetRoomBySlug(ctx context.Context, slug string) (*model.Room, error) {
	return s.getRoom(ctx, "slug", slug)
}

func (s *Store) getRoom(ctx context.Context, column, value string) (*model.Room, error) {
	var row roomRow
	err := s.db.GetContext(ctx, &row, s.q("SELECT "+roomColumns+" FROM thm_rooms WHERE "+column+" = ?"), value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	room, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns rooms matching the filter, most recently completed first.
func (s *Store) ListRooms(ctx context.Context, f model.ContentFilter) ([]model.Room, error) {
	where, args := contentWhere(f, "title", "room_code")
	q := "SELECT " + roomColumns + " FROM thm_rooms" + where +
		" ORDER BY date_completed DESC, created_at DESC"

	var rows []roomRow
	if err := s.db.SelectContext(ctx, &rows, s.q(q), args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rooms := make([]model.Room, 0, len(rows))
	for _, r := range rows {
		room, err := r.toModel()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// UpdateRoom overwrites every mutable column of an existing room and bumps
// UpdatedAt.
func (s *Store) UpdateRoom(ctx context.Context, room *model.Room) error {
	room.UpdatedAt = time.Now().UTC()
	tags, err := encodeTags(room.Tags)
	if err != nil {
		return err
	}

	const q = `UPDATE thm_rooms SET
		title = ?, slug = ?, difficulty = ?, status = ?, tags_json = ?, writeup = ?, url = ?,
		room_code = ?, points = ?, date_completed = ?, updated_at = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, s.q(q), room.Title, room.Slug, room.Difficulty, room.Status,
		tags, room.Writeup, room.URL, room.RoomCode, room.Points, room.DateCompleted, room.UpdatedAt, room.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update room: %w", err)
	}
	return requireAffected(result, "update room")
}

// DeleteRoom removes a room by ID.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM thm_rooms WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return requireAffected(result, "delete room")
}

// ---------------------------------------------------------------------------
// Hack The Box machines
// ---------------------------------------------------------------------------

type machineRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	OS            string         `db:"os"`
	Difficulty    string         `db:"difficulty"`
	Status        string         `db:"status"`
	IPAddress     string         `db:"ip_address"`
	Points        int            `db:"points"`
	TagsJSON      string         `db:"tags_json"`
	Writeup       sql.NullString `db:"writeup"`
	DateCompleted sql.NullString `db:"date_completed"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

const machineColumns = `id, name, os, difficulty, status, ip_address, points, tags_json, writeup,
	date_completed, created_at, updated_at`

func (r machineRow) toModel() (model.Machine, error) {
	tags, err := decodeTags(r.TagsJSON)
	if err != nil {
		return model.Machine{}, fmt.Errorf("decode tags for machine %s: %w", r.ID, err)
	}
	return model.Machine{
		ID:            r.ID,
		Name:          r.Name,
		OS:            r.OS,
		Difficulty:    r.Difficulty,
		Status:        r.Status,
		IPAddress:     r.IPAddress,
		Points:        r.Points,
		Tags:          tags,
		Writeup:       nullableString(r.Writeup),
		DateCompleted: nullableString(r.DateCompleted),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

// CreateMachine inserts a machine, assigning ID, CreatedAt and UpdatedAt.
func (s *Store) CreateMachine(ctx context.Context, m *model.Machine) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate machine id: %w", err)
	}
	now := time.Now().UTC()
	m.ID = id.String()
	m.CreatedAt = now
	m.UpdatedAt = now

	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}

	const q = `INSERT INTO htb_machines
		(id, name, os, difficulty, status, ip_address, points, tags_json, writeup, date_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.q(q), m.ID, m.Name, m.OS, m.Difficulty, m.Status, m.IPAddress,
		m.Points, tags, m.Writeup, m.DateCompleted, now, now); err != nil {
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

// GetMachine returns a machine by ID.
func (s *Store) GetMachine(ctx context.Context, id string) (*model.Machine, error) {
	var row machineRow
	err := s.db.GetContext(ctx, &row, s.q("SELECT "+machineColumns+" FROM htb_machines WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get machine: %w", err)
	}
	m, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMachines returns machines matching the filter, most recently completed
// first.
func (s *Store) ListMachines(ctx context.Context, f model.ContentFilter) ([]model.Machine, error) {
	where, args := contentWhere(f, "name", "os")
	q := "SELECT " + machineColumns + " FROM htb_machines" + where +
		" ORDER BY date_completed DESC, created_at DESC"

	var rows []machineRow
	if err := s.db.SelectContext(ctx, &rows, s.q(q), args...); err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}

	machines := make([]model.Machine, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	return machines, nil
}

// UpdateMachine overwrites every mutable column of an existing machine.
func (s *Store) UpdateMachine(ctx context.Context, m *model.Machine) error {
	m.UpdatedAt = time.Now().UTC()
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}

	const q = `UPDATE htb_machines SET
		name = ?, os = ?, difficulty = ?, status = ?, ip_address = ?, points = ?, tags_json = ?,
		writeup = ?, date_completed = ?, updated_at = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, s.q(q), m.Name, m.OS, m.Difficulty, m.Status, m.IPAddress,
		m.Points, tags, m.Writeup, m.DateCompleted, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	return requireAffected(result, "update machine")
}

// DeleteMachine removes a machine by ID.
func (s *Store) DeleteMachine(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM htb_machines WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	return requireAffected(result, "delete machine")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// contentWhere builds the filter clause shared by rooms and machines. The
// search term matches either text column or the tags case-insensitively, with
// LIKE wildcards in the term taken literally.
func contentWhere(f model.ContentFilter, nameCol, altCol string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := query.LikePattern(term)
		like := " LIKE ? ESCAPE '" + query.EscapeChar + "'"
		clauses = append(clauses, "(LOWER("+nameCol+")"+like+" OR LOWER("+altCol+")"+like+" OR LOWER(tags_json)"+like+")")
		args = append(args, pattern, pattern, pattern)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	tags := []string{}
	if s == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
