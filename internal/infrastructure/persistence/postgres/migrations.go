// Package postgres implements the PostgreSQL persistence layer.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: LEARNER PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS learner_profiles (
	id TEXT PRIMARY KEY,
	neurotype TEXT NOT NULL DEFAULT 'other',
	current_level TEXT NOT NULL DEFAULT 'beginner',
	learning_speed TEXT NOT NULL DEFAULT 'standard',
	strengths JSONB NOT NULL DEFAULT '[]',
	challenges JSONB NOT NULL DEFAULT '[]',
	preferences JSONB NOT NULL DEFAULT '{}',
	completed_content JSONB NOT NULL DEFAULT '[]',
	performance_history JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_learner_profiles_neurotype ON learner_profiles(neurotype);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LEARNING PATHS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS learning_paths (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	content_domain TEXT NOT NULL,
	school_id TEXT NOT NULL DEFAULT '',
	starting_level TEXT NOT NULL,
	content_sequence JSONB NOT NULL DEFAULT '[]',
	review_points JSONB NOT NULL DEFAULT '[]',
	milestones JSONB NOT NULL DEFAULT '[]',
	skip_forward JSONB,
	expected_completion_date TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,

	CONSTRAINT uq_learning_paths_user_domain UNIQUE (user_id, content_domain)
);

CREATE INDEX IF NOT EXISTS idx_learning_paths_user ON learning_paths(user_id);
CREATE INDEX IF NOT EXISTS idx_learning_paths_school ON learning_paths(school_id);
`
