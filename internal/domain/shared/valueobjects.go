// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a normalized performance score in [0, 1].
type Score float64

// IsValid checks that the score is within [0, 1].
func (s Score) IsValid() bool {
	return s >= 0 && s <= 1
}

// Float64 returns the underlying float64 value.
func (s Score) Float64() float64 {
	return float64(s)
}

// Clamp forces the score into [0, 1].
func (s Score) Clamp() Score {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// NewScore creates a Score with validation.
func NewScore(v float64) (Score, error) {
	s := Score(v)
	if !s.IsValid() {
		return 0, ErrInvalidScore
	}
	return s, nil
}

// Confidence represents a normalized self-reported confidence level in [0, 1].
type Confidence float64

// IsValid checks that the confidence is within [0, 1].
func (c Confidence) IsValid() bool {
	return c >= 0 && c <= 1
}

// Float64 returns the underlying float64 value.
func (c Confidence) Float64() float64 {
	return float64(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Duration Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Minutes represents an estimated duration in whole minutes.
type Minutes int

// IsValid checks that the duration is positive.
func (m Minutes) IsValid() bool {
	return m > 0
}

// Duration converts Minutes to a time.Duration.
func (m Minutes) Duration() time.Duration {
	return time.Duration(m) * time.Minute
}

// Int returns the underlying int value.
func (m Minutes) Int() int {
	return int(m)
}

// ═══════════════════════════════════════════════════════════════════════════
// Tag Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Tag is a lowercase snake_case label used for challenges, strengths,
// adaptation hints and review focus areas.
type Tag string

// IsValid checks the tag format: non-empty, no whitespace.
func (t Tag) IsValid() bool {
	s := string(t)
	return len(s) > 0 && len(s) <= 60 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (t Tag) String() string {
	return string(t)
}

// Normalize returns a normalized (lowercase, trimmed) version of the tag.
func (t Tag) Normalize() Tag {
	return Tag(strings.ToLower(strings.TrimSpace(string(t))))
}

// Tags is an ordered set of tags. Order is meaningful (support tool lists
// are rendered in order), duplicates are not.
type Tags []Tag

// Contains reports whether the set contains the given tag.
func (ts Tags) Contains(tag Tag) bool {
	for _, t := range ts {
		if t == tag {
			return true
		}
	}
	return false
}

// Append adds a tag if it is not already present.
func (ts Tags) Append(tag Tag) Tags {
	if ts.Contains(tag) {
		return ts
	}
	return append(ts, tag)
}

// Strings converts the tag set to a plain string slice.
func (ts Tags) Strings() []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

// TagsFromStrings converts a string slice to a tag set.
func TagsFromStrings(ss []string) Tags {
	out := make(Tags, len(ss))
	for i, s := range ss {
		out[i] = Tag(s)
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity helpers
// ═══════════════════════════════════════════════════════════════════════════

// PathKey identifies the serialized update pipeline for one learning path.
// Exactly one path exists per (user, domain, school), so the key is the
// natural mutex identity for performance-event application.
type PathKey string

// NewPathKey builds the canonical key for a (user, domain) pair.
func NewPathKey(userID, contentDomain string) PathKey {
	return PathKey(fmt.Sprintf("%s|%s", userID, contentDomain))
}

// String returns the string representation.
func (k PathKey) String() string {
	return string(k)
}

// Parts splits the key back into its (user, domain) pair.
func (k PathKey) Parts() (userID, contentDomain string) {
	s := string(k)
	if i := strings.IndexByte(s, '|'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
