package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackfolio/hackfolio/internal/model"
)

// ---------------------------------------------------------------------------
// Platform statistics (single row per platform)
// ---------------------------------------------------------------------------

// GetHTBStats returns the saved Hack The Box stats, or ErrNotFound when none
// have been saved yet.
func (s *Store) GetHTBStats(ctx context.Context) (*model.HTBStats, error) {
	var stats model.HTBStats
	err := s.db.GetContext(ctx, &stats, `SELECT global_ranking, final_score, machines_pwned, owns_user,
		owns_root, respect, university_rank, last_updated FROM htb_stats WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get htb stats: %w", err)
	}
	return &stats, nil
}

// SaveHTBStats replaces the Hack The Box stats row and sets LastUpdated.
func (s *Store) SaveHTBStats(ctx context.Context, stats *model.HTBStats) error {
	stats.LastUpdated = time.Now().UTC()
	const q = `INSERT INTO htb_stats
		(id, global_ranking, final_score, machines_pwned, owns_user, owns_root, respect, university_rank, last_updated)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			global_ranking = excluded.global_ranking,
			final_score = excluded.final_score,
			machines_pwned = excluded.machines_pwned,
			owns_user = excluded.owns_user,
			owns_root = excluded.owns_root,
			respect = excluded.respect,
			university_rank = excluded.university_rank,
			last_updated = excluded.last_updated`
	if _, err := s.db.ExecContext(ctx, s.q(q), stats.GlobalRanking, stats.FinalScore, stats.MachinesPwned,
		stats.OwnsUser, stats.OwnsRoot, stats.Respect, stats.UniversityRank, stats.LastUpdated); err != nil {
		return fmt.Errorf("save htb stats: %w", err)
	}
	return nil
}

// GetTHMStats returns the saved TryHackMe stats, or ErrNotFound when none
// have been saved yet.
func (s *Store) GetTHMStats(ctx context.Context) (*model.THMStats, error) {
	var stats model.THMStats
	err := s.db.GetContext(ctx, &stats, `SELECT global_ranking, total_points, rooms_completed, streak,
		badges, last_updated FROM thm_stats WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get thm stats: %w", err)
	}
	return &stats, nil
}

// SaveTHMStats replaces the TryHackMe stats row and sets LastUpdated.
func (s *Store) SaveTHMStats(ctx context.Context, stats *model.THMStats) error {
	stats.LastUpdated = time.Now().UTC()
	const q = `INSERT INTO thm_stats
		(id, global_ranking, total_points, rooms_completed, streak, badges, last_updated)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			global_ranking = excluded.global_ranking,
			total_points = excluded.total_points,
			rooms_completed = excluded.rooms_completed,
			streak = excluded.streak,
			badges = excluded.badges,
			last_updated = excluded.last_updated`
	if _, err := s.db.ExecContext(ctx, s.q(q), stats.GlobalRanking, stats.TotalPoints, stats.RoomsCompleted,
		stats.Streak, stats.Badges, stats.LastUpdated); err != nil {
		return fmt.Errorf("save thm stats: %w", err)
	}
	return nil
}
