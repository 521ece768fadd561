// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements learner.Repository for PostgreSQL.
// Profiles are owned by the external profile service; the engine reads them
// and Upsert exists only for the profile sync feed.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// GetByID returns a learner profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*learner.Profile, error) {
	query := `
		SELECT id, neurotype, current_level, learning_speed,
			   strengths, challenges, preferences, completed_content, performance_history
		FROM learner_profiles
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanProfile(row)
}

// Upsert stores the latest snapshot of a profile from the sync feed.
func (r *ProfileRepository) Upsert(ctx context.Context, p *learner.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO learner_profiles (
			id, neurotype, current_level, learning_speed,
			strengths, challenges, preferences, completed_content, performance_history,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			neurotype = EXCLUDED.neurotype,
			current_level = EXCLUDED.current_level,
			learning_speed = EXCLUDED.learning_speed,
			strengths = EXCLUDED.strengths,
			challenges = EXCLUDED.challenges,
			preferences = EXCLUDED.preferences,
			completed_content = EXCLUDED.completed_content,
			performance_history = EXCLUDED.performance_history,
			updated_at = EXCLUDED.updated_at
	`

	strengthsJSON, err := json.Marshal(p.Strengths.Strings())
	if err != nil {
		return fmt.Errorf("failed to marshal strengths: %w", err)
	}
	challengesJSON, err := json.Marshal(p.Challenges.Strings())
	if err != nil {
		return fmt.Errorf("failed to marshal challenges: %w", err)
	}
	prefsJSON, err := json.Marshal(preferencesDoc{
		FontSize:             p.Preferences.FontSize,
		FontFamily:           p.Preferences.FontFamily,
		LineSpacing:          p.Preferences.LineSpacing,
		HighContrast:         p.Preferences.HighContrast,
		ReducedAnimations:    p.Preferences.ReducedAnimations,
		AvailableTimePerWeek: p.Preferences.AvailableTimePerWeek,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	completedJSON, err := json.Marshal(p.CompletedContent)
	if err != nil {
		return fmt.Errorf("failed to marshal completed content: %w", err)
	}

	history := make([]performanceRecordDoc, len(p.PerformanceHistory))
	for i, rec := range p.PerformanceHistory {
		history[i] = performanceRecordDoc{
			ContentID: rec.ContentID,
			Score:     rec.Score.Float64(),
			Timestamp: rec.Timestamp,
		}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal performance history: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		p.ID,
		string(p.Neurotype),
		string(p.CurrentLevel),
		string(p.LearningSpeed),
		strengthsJSON,
		challengesJSON,
		prefsJSON,
		completedJSON,
		historyJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learner profile: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JSONB DOCUMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

type preferencesDoc struct {
	FontSize             int     `json:"font_size,omitempty"`
	FontFamily           string  `json:"font_family,omitempty"`
	LineSpacing          float64 `json:"line_spacing,omitempty"`
	HighContrast         bool    `json:"high_contrast,omitempty"`
	ReducedAnimations    bool    `json:"reduced_animations,omitempty"`
	AvailableTimePerWeek int     `json:"available_time_per_week,omitempty"`
}

type performanceRecordDoc struct {
	ContentID string    `json:"content_id"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SCANNING
// ══════════════════════════════════════════════════════════════════════════════

func scanProfile(row pgx.Row) (*learner.Profile, error) {
	var p learner.Profile
	var neurotype, level, speed string
	var strengthsJSON, challengesJSON, prefsJSON, completedJSON, historyJSON []byte

	err := row.Scan(
		&p.ID,
		&neurotype,
		&level,
		&speed,
		&strengthsJSON,
		&challengesJSON,
		&prefsJSON,
		&completedJSON,
		&historyJSON,
	)

	if IsNoRows(err) {
		return nil, shared.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learner profile: %w", err)
	}

	p.Neurotype = learner.Neurotype(neurotype)
	p.CurrentLevel = learner.Level(level)
	p.LearningSpeed = learner.LearningSpeed(speed)

	var strengths, challenges, completed []string
	if err := json.Unmarshal(strengthsJSON, &strengths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal(challengesJSON, &challenges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenges: %w", err)
	}
	if err := json.Unmarshal(completedJSON, &completed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed content: %w", err)
	}
	p.Strengths = shared.TagsFromStrings(strengths)
	p.Challenges = shared.TagsFromStrings(challenges)
	p.CompletedContent = completed

	var prefs preferencesDoc
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}
	p.Preferences = learner.Preferences{
		FontSize:             prefs.FontSize,
		FontFamily:           prefs.FontFamily,
		LineSpacing:          prefs.LineSpacing,
		HighContrast:         prefs.HighContrast,
		ReducedAnimations:    prefs.ReducedAnimations,
		AvailableTimePerWeek: prefs.AvailableTimePerWeek,
	}

	var history []performanceRecordDoc
	if err := json.Unmarshal(historyJSON, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal performance history: %w", err)
	}
	p.PerformanceHistory = make([]learner.PerformanceRecord, len(history))
	for i, doc := range history {
		p.PerformanceHistory[i] = learner.PerformanceRecord{
			ContentID: doc.ContentID,
			Score:     shared.Score(doc.Score),
			Timestamp: doc.Timestamp,
		}
	}

	return &p, nil
}
