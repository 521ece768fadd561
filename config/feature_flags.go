package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage rollout, per-user overrides, and school targeting.
//
// Philosophy alignment: path mutations must stay reversible and advisory.
// - Support insertion and skip-forward are flags so a school can opt out
// - Worker-pool offload can be disabled without losing adaptation (sync fallback)
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// School targeting. Empty means all schools.
	TargetSchools []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID string

	SchoolID string
	IsAdmin  bool
}

// Predefined feature flag names.
const (
	// === Path Evolution Features ===
	FeaturePathSupportInsertion = "path.support_insertion" // Insert remedial items after struggle
	FeaturePathSkipForward      = "path.skip_forward"      // Suggest skipping ahead on excellence
	FeaturePathLevelAdjustment  = "path.level_adjustment"  // Difficulty adjustment at generation

	// === Adaptation Features ===
	FeatureAdaptationWorkerPool = "adaptation.worker_pool" // Offload transforms to worker pool
	FeatureAdaptationCache      = "adaptation.cache"       // Cache adapted content in Redis

	// === Checkpoint Features ===
	FeatureCheckpointMilestones = "checkpoint.milestones" // Milestone rewards
	FeatureCheckpointReviews    = "checkpoint.reviews"    // Spaced review activation

	// === Experimental Features ===
	FeatureExperimentalAnalytics = "experimental.analytics" // Advanced learner analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Path evolution - CORE behavior, enabled by default
	ff.features[FeaturePathSupportInsertion] = &Feature{
		Name:           FeaturePathSupportInsertion,
		Description:    "Insert remedial support items after struggling results",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePathSkipForward] = &Feature{
		Name:           FeaturePathSkipForward,
		Description:    "Suggest skip-forward on sustained high performance",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePathLevelAdjustment] = &Feature{
		Name:           FeaturePathLevelAdjustment,
		Description:    "Adjust starting difficulty from recent score history",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Adaptation features
	ff.features[FeatureAdaptationWorkerPool] = &Feature{
		Name:           FeatureAdaptationWorkerPool,
		Description:    "Run content transforms on the worker pool",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAdaptationCache] = &Feature{
		Name:           FeatureAdaptationCache,
		Description:    "Cache adapted content by profile fingerprint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Checkpoint features
	ff.features[FeatureCheckpointMilestones] = &Feature{
		Name:           FeatureCheckpointMilestones,
		Description:    "Milestone rewards along the path",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCheckpointReviews] = &Feature{
		Name:           FeatureCheckpointReviews,
		Description:    "Activate spaced review checkpoints",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced learner analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PATH_SKIP_FORWARD=true
// Example: FEATURE_ADAPTATION_WORKER_POOL=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "path.skip_forward" -> "FEATURE_PATH_SKIP_FORWARD"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check school targeting
	if len(feature.TargetSchools) > 0 && ctx != nil && ctx.SchoolID != "" {
		schoolMatch := false
		for _, s := range feature.TargetSchools {
			if s == ctx.SchoolID {
				schoolMatch = true
				break
			}
		}
		if !schoolMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// PathEvolutionEnabled checks if any path mutation features are enabled.
func (ff *FeatureFlags) PathEvolutionEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeaturePathSupportInsertion, ctx) ||
		ff.IsEnabled(FeaturePathSkipForward, ctx) ||
		ff.IsEnabled(FeaturePathLevelAdjustment, ctx)
}

// CheckpointsEnabled checks if any checkpoint features are enabled.
func (ff *FeatureFlags) CheckpointsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureCheckpointMilestones, ctx) ||
		ff.IsEnabled(FeatureCheckpointReviews, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
