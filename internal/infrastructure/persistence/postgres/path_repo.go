// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PATH REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PathRepository implements path.Repository for PostgreSQL.
// The content sequence, review points, milestones and skip suggestion are
// stored as JSONB; the version column implements optimistic locking.
type PathRepository struct {
	conn *Connection
}

// NewPathRepository creates a new PathRepository.
func NewPathRepository(conn *Connection) *PathRepository {
	return &PathRepository{conn: conn}
}

// Create persists a newly generated path. Exactly one path may exist per
// (user, domain); a second insert returns shared.ErrPathAlreadyExists.
func (r *PathRepository) Create(ctx context.Context, p *path.LearningPath) error {
	query := `
		INSERT INTO learning_paths (
			id, user_id, content_domain, school_id, starting_level,
			content_sequence, review_points, milestones, skip_forward,
			expected_completion_date, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	seqJSON, reviewsJSON, milestonesJSON, skipJSON, err := marshalPathStructures(p)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.ContentDomain,
		p.SchoolID,
		string(p.StartingLevel),
		seqJSON,
		reviewsJSON,
		milestonesJSON,
		skipJSON,
		p.ExpectedCompletionDate,
		p.CreatedAt,
		p.UpdatedAt,
		p.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPathAlreadyExists
		}
		return fmt.Errorf("failed to create learning path: %w", err)
	}

	return nil
}

// GetByKey returns the path for a (user, domain) pair.
func (r *PathRepository) GetByKey(ctx context.Context, key shared.PathKey) (*path.LearningPath, error) {
	userID, domain := key.Parts()

	query := `
		SELECT id, user_id, content_domain, school_id, starting_level,
			   content_sequence, review_points, milestones, skip_forward,
			   expected_completion_date, created_at, updated_at, version
		FROM learning_paths
		WHERE user_id = $1 AND content_domain = $2
	`

	row := r.conn.QueryRow(ctx, query, userID, domain)
	return scanPath(row)
}

// Update saves a mutated path guarded by optimistic locking. The write only
// lands if the stored version still equals expectedVersion; otherwise
// shared.ErrPathVersionStale is returned and the caller reloads and retries.
func (r *PathRepository) Update(ctx context.Context, p *path.LearningPath, expectedVersion int) error {
	query := `
		UPDATE learning_paths SET
			content_sequence = $1,
			review_points = $2,
			milestones = $3,
			skip_forward = $4,
			expected_completion_date = $5,
			updated_at = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
	`

	seqJSON, reviewsJSON, milestonesJSON, skipJSON, err := marshalPathStructures(p)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		seqJSON,
		reviewsJSON,
		milestonesJSON,
		skipJSON,
		p.ExpectedCompletionDate,
		time.Now().UTC(),
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update learning path: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		exists, existsErr := r.exists(ctx, p.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return shared.ErrPathNotFound
		}
		return shared.ErrPathVersionStale
	}

	p.Version = expectedVersion + 1
	return nil
}

// ListDueReviews returns activated review points whose activation date is
// not after the given time, across all stored paths. Implements
// path.ReviewBrowser for the background reminder sweep. Review points are
// unnested with jsonb_array_elements so the filtering happens in SQL.
func (r *PathRepository) ListDueReviews(ctx context.Context, before time.Time) ([]path.DueReview, error) {
	query := `
		SELECT user_id, content_domain, rp.value
		FROM learning_paths,
		     jsonb_array_elements(review_points) AS rp
		WHERE (rp.value->>'activated')::boolean = true
		  AND rp.value->>'scheduled_date' IS NOT NULL
		  AND (rp.value->>'scheduled_date')::timestamptz <= $1
		ORDER BY (rp.value->>'scheduled_date')::timestamptz
	`

	rows, err := r.conn.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reviews: %w", err)
	}
	defer rows.Close()

	var due []path.DueReview
	for rows.Next() {
		var (
			userID  string
			domain  string
			docJSON []byte
		)
		if err := rows.Scan(&userID, &domain, &docJSON); err != nil {
			return nil, fmt.Errorf("failed to scan due review: %w", err)
		}

		var doc reviewPointDoc
		if err := json.Unmarshal(docJSON, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal due review: %w", err)
		}
		if doc.ScheduledDate == nil {
			continue
		}

		due = append(due, path.DueReview{
			UserID:        userID,
			ContentDomain: domain,
			AfterItem:     doc.AfterItem,
			ReviewType:    path.ReviewType(doc.Type),
			FocusAreas:    shared.TagsFromStrings(doc.FocusAreas),
			ScheduledDate: *doc.ScheduledDate,
		})
	}

	return due, rows.Err()
}

func (r *PathRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM learning_paths WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check path existence: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JSONB DOCUMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

type itemDoc struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Body              string             `json:"body"`
	Type              string             `json:"type"`
	Level             string             `json:"level"`
	EstimatedDuration int                `json:"estimated_duration"`
	Adaptations       adaptationDoc      `json:"adaptations"`
	Prerequisites     []string           `json:"prerequisites,omitempty"`
	Rules             rulesDoc           `json:"rules"`
	State             string             `json:"state"`
	Performance       *performanceDoc    `json:"performance,omitempty"`
}

type adaptationDoc struct {
	Content      []string `json:"content,omitempty"`
	Presentation []string `json:"presentation,omitempty"`
	Pacing       []string `json:"pacing,omitempty"`
	Support      []string `json:"support,omitempty"`
}

type rulesDoc struct {
	OnSuccess        string `json:"on_success"`
	OnStruggle       string `json:"on_struggle"`
	OnFailure        string `json:"on_failure"`
	HelpAttemptLimit int    `json:"help_attempt_limit"`
}

type performanceDoc struct {
	Score          float64   `json:"score"`
	CompletionTime int64     `json:"completion_time_ms"`
	AttemptCount   int       `json:"attempt_count"`
	Timestamp      time.Time `json:"timestamp"`
}

type reviewPointDoc struct {
	AfterItem     int        `json:"after_item"`
	Type          string     `json:"type"`
	FocusAreas    []string   `json:"focus_areas,omitempty"`
	Activated     bool       `json:"activated"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}

type milestoneDoc struct {
	ContentID    string     `json:"content_id"`
	Position     int        `json:"position"`
	Title        string     `json:"title"`
	Reward       string     `json:"reward"`
	Achieved     bool       `json:"achieved"`
	AchievedDate *time.Time `json:"achieved_date,omitempty"`
}

type skipSuggestionDoc struct {
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	Reason    string `json:"reason"`
	Suggested bool   `json:"suggested"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN <-> DOCUMENT CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

func marshalPathStructures(p *path.LearningPath) (seq, reviews, milestones, skip []byte, err error) {
	items := make([]itemDoc, len(p.ContentSequence))
	for i, it := range p.ContentSequence {
		items[i] = itemToDoc(it)
	}
	if seq, err = json.Marshal(items); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal content sequence: %w", err)
	}

	rps := make([]reviewPointDoc, len(p.ReviewPoints))
	for i, rp := range p.ReviewPoints {
		rps[i] = reviewPointDoc{
			AfterItem:     rp.AfterItem,
			Type:          string(rp.Type),
			FocusAreas:    rp.FocusAreas.Strings(),
			Activated:     rp.Activated,
			ScheduledDate: rp.ScheduledDate,
		}
	}
	if reviews, err = json.Marshal(rps); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal review points: %w", err)
	}

	ms := make([]milestoneDoc, len(p.Milestones))
	for i, m := range p.Milestones {
		ms[i] = milestoneDoc{
			ContentID:    m.ContentID,
			Position:     m.Position,
			Title:        m.Title,
			Reward:       m.Reward,
			Achieved:     m.Achieved,
			AchievedDate: m.AchievedDate,
		}
	}
	if milestones, err = json.Marshal(ms); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal milestones: %w", err)
	}

	if p.SkipForward != nil {
		doc := skipSuggestionDoc{
			FromIndex: p.SkipForward.FromIndex,
			ToIndex:   p.SkipForward.ToIndex,
			Reason:    p.SkipForward.Reason,
			Suggested: p.SkipForward.Suggested,
		}
		if skip, err = json.Marshal(doc); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal skip suggestion: %w", err)
		}
	}

	return seq, reviews, milestones, skip, nil
}

func itemToDoc(it *content.Item) itemDoc {
	doc := itemDoc{
		ID:                it.ID,
		Title:             it.Title,
		Body:              it.Body,
		Type:              string(it.Type),
		Level:             string(it.Level),
		EstimatedDuration: it.EstimatedDuration.Int(),
		Adaptations: adaptationDoc{
			Content:      it.Adaptations.Content.Strings(),
			Presentation: it.Adaptations.Presentation.Strings(),
			Pacing:       it.Adaptations.Pacing.Strings(),
			Support:      it.Adaptations.Support.Strings(),
		},
		Prerequisites: it.Prerequisites,
		Rules: rulesDoc{
			OnSuccess:        it.Rules.OnSuccess,
			OnStruggle:       it.Rules.OnStruggle,
			OnFailure:        it.Rules.OnFailure,
			HelpAttemptLimit: it.Rules.HelpAttemptLimit,
		},
		State: string(it.State),
	}

	if it.Performance != nil {
		doc.Performance = &performanceDoc{
			Score:          it.Performance.Score.Float64(),
			CompletionTime: it.Performance.CompletionTime.Milliseconds(),
			AttemptCount:   it.Performance.AttemptCount,
			Timestamp:      it.Performance.Timestamp,
		}
	}

	return doc
}

func docToItem(doc itemDoc) *content.Item {
	it := &content.Item{
		ID:                doc.ID,
		Title:             doc.Title,
		Body:              doc.Body,
		Type:              content.Type(doc.Type),
		Level:             learner.Level(doc.Level),
		EstimatedDuration: shared.Minutes(doc.EstimatedDuration),
		Adaptations: content.AdaptationSet{
			Content:      shared.TagsFromStrings(doc.Adaptations.Content),
			Presentation: shared.TagsFromStrings(doc.Adaptations.Presentation),
			Pacing:       shared.TagsFromStrings(doc.Adaptations.Pacing),
			Support:      shared.TagsFromStrings(doc.Adaptations.Support),
		},
		Prerequisites: doc.Prerequisites,
		Rules: content.AdaptivityRules{
			OnSuccess:        doc.Rules.OnSuccess,
			OnStruggle:       doc.Rules.OnStruggle,
			OnFailure:        doc.Rules.OnFailure,
			HelpAttemptLimit: doc.Rules.HelpAttemptLimit,
		},
		State: content.State(doc.State),
	}

	if doc.Performance != nil {
		it.Performance = &content.PerformanceSnapshot{
			Score:          shared.Score(doc.Performance.Score),
			CompletionTime: time.Duration(doc.Performance.CompletionTime) * time.Millisecond,
			AttemptCount:   doc.Performance.AttemptCount,
			Timestamp:      doc.Performance.Timestamp,
		}
	}

	return it
}

// ══════════════════════════════════════════════════════════════════════════════
// SCANNING
// ══════════════════════════════════════════════════════════════════════════════

func scanPath(row pgx.Row) (*path.LearningPath, error) {
	var p path.LearningPath
	var startingLevel string
	var seqJSON, reviewsJSON, milestonesJSON, skipJSON []byte

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ContentDomain,
		&p.SchoolID,
		&startingLevel,
		&seqJSON,
		&reviewsJSON,
		&milestonesJSON,
		&skipJSON,
		&p.ExpectedCompletionDate,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
	)

	if IsNoRows(err) {
		return nil, shared.ErrPathNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learning path: %w", err)
	}

	p.StartingLevel = learner.Level(startingLevel)

	var items []itemDoc
	if err := json.Unmarshal(seqJSON, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content sequence: %w", err)
	}
	p.ContentSequence = make([]*content.Item, len(items))
	for i, doc := range items {
		p.ContentSequence[i] = docToItem(doc)
	}

	var rps []reviewPointDoc
	if err := json.Unmarshal(reviewsJSON, &rps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review points: %w", err)
	}
	p.ReviewPoints = make([]path.ReviewPoint, len(rps))
	for i, doc := range rps {
		p.ReviewPoints[i] = path.ReviewPoint{
			AfterItem:     doc.AfterItem,
			Type:          path.ReviewType(doc.Type),
			FocusAreas:    shared.TagsFromStrings(doc.FocusAreas),
			Activated:     doc.Activated,
			ScheduledDate: doc.ScheduledDate,
		}
	}

	var ms []milestoneDoc
	if err := json.Unmarshal(milestonesJSON, &ms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal milestones: %w", err)
	}
	p.Milestones = make([]path.Milestone, len(ms))
	for i, doc := range ms {
		p.Milestones[i] = path.Milestone{
			ContentID:    doc.ContentID,
			Position:     doc.Position,
			Title:        doc.Title,
			Reward:       doc.Reward,
			Achieved:     doc.Achieved,
			AchievedDate: doc.AchievedDate,
		}
	}

	if len(skipJSON) > 0 {
		var doc skipSuggestionDoc
		if err := json.Unmarshal(skipJSON, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skip suggestion: %w", err)
		}
		p.SkipForward = &path.SkipSuggestion{
			FromIndex: doc.FromIndex,
			ToIndex:   doc.ToIndex,
			Reason:    doc.Reason,
			Suggested: doc.Suggested,
		}
	}

	return &p, nil
}
