// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Path lifecycle events
	EventPathGenerated EventType = "path.generated"
	EventPathUpdated   EventType = "path.updated"

	// Path mutation events
	EventSupportInserted EventType = "path.support_inserted"
	EventSkipSuggested   EventType = "path.skip_suggested"
	EventLevelAdjusted   EventType = "path.level_adjusted"

	// Checkpoint events
	EventMilestoneAchieved EventType = "milestone.achieved"
	EventReviewActivated   EventType = "review.activated"

	// Adaptation events
	EventAdaptationCompleted EventType = "adaptation.completed"
	EventAdaptationFallback  EventType = "adaptation.fallback"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Path Events
// ═══════════════════════════════════════════════════════════════════════════

// PathGeneratedEvent is emitted when a new learning path is created.
type PathGeneratedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	ContentDomain string `json:"content_domain"`
	StartingLevel string `json:"starting_level"`
	ItemCount     int    `json:"item_count"`
}

// NewPathGeneratedEvent creates a PathGeneratedEvent.
func NewPathGeneratedEvent(pathID, userID, domain, level string, itemCount int) PathGeneratedEvent {
	return PathGeneratedEvent{
		BaseEvent:     NewBaseEvent(EventPathGenerated, pathID),
		UserID:        userID,
		ContentDomain: domain,
		StartingLevel: level,
		ItemCount:     itemCount,
	}
}

// Payload implements Event interface.
func (e PathGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"content_domain": e.ContentDomain,
		"starting_level": e.StartingLevel,
		"item_count":     e.ItemCount,
	}
}

// PathUpdatedEvent is emitted after a performance event has been applied.
type PathUpdatedEvent struct {
	BaseEvent
	UserID    string  `json:"user_id"`
	ContentID string  `json:"content_id"`
	Score     float64 `json:"score"`
	Struggled bool    `json:"struggled"`
}

// NewPathUpdatedEvent creates a PathUpdatedEvent.
func NewPathUpdatedEvent(pathID, userID, contentID string, score float64, struggled bool) PathUpdatedEvent {
	return PathUpdatedEvent{
		BaseEvent: NewBaseEvent(EventPathUpdated, pathID),
		UserID:    userID,
		ContentID: contentID,
		Score:     score,
		Struggled: struggled,
	}
}

// Payload implements Event interface.
func (e PathUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"content_id": e.ContentID,
		"score":      e.Score,
		"struggled":  e.Struggled,
	}
}

// SupportInsertedEvent is emitted when a remedial support item is spliced
// into the sequence after a struggling result.
type SupportInsertedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	SourceContent string `json:"source_content"`
	SupportID     string `json:"support_id"`
	Position      int    `json:"position"`
}

// NewSupportInsertedEvent creates a SupportInsertedEvent.
func NewSupportInsertedEvent(pathID, userID, sourceContent, supportID string, position int) SupportInsertedEvent {
	return SupportInsertedEvent{
		BaseEvent:     NewBaseEvent(EventSupportInserted, pathID),
		UserID:        userID,
		SourceContent: sourceContent,
		SupportID:     supportID,
		Position:      position,
	}
}

// Payload implements Event interface.
func (e SupportInsertedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"source_content": e.SourceContent,
		"support_id":     e.SupportID,
		"position":       e.Position,
	}
}

// SkipSuggestedEvent is emitted when sustained high performance produces a
// skip-forward advisory. The suggestion is never auto-applied.
type SkipSuggestedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	Reason    string `json:"reason"`
}

// NewSkipSuggestedEvent creates a SkipSuggestedEvent.
func NewSkipSuggestedEvent(pathID, userID string, fromIndex, toIndex int, reason string) SkipSuggestedEvent {
	return SkipSuggestedEvent{
		BaseEvent: NewBaseEvent(EventSkipSuggested, pathID),
		UserID:    userID,
		FromIndex: fromIndex,
		ToIndex:   toIndex,
		Reason:    reason,
	}
}

// Payload implements Event interface.
func (e SkipSuggestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"from_index": e.FromIndex,
		"to_index":   e.ToIndex,
		"reason":     e.Reason,
	}
}

// LevelAdjustedEvent is emitted when the difficulty engine starts a learner
// at a level other than their recorded one, based on recent score history.
type LevelAdjustedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	FromLevel string `json:"from_level"`
	ToLevel   string `json:"to_level"`
}

// NewLevelAdjustedEvent creates a LevelAdjustedEvent.
func NewLevelAdjustedEvent(pathID, userID, fromLevel, toLevel string) LevelAdjustedEvent {
	return LevelAdjustedEvent{
		BaseEvent: NewBaseEvent(EventLevelAdjusted, pathID),
		UserID:    userID,
		FromLevel: fromLevel,
		ToLevel:   toLevel,
	}
}

// Payload implements Event interface.
func (e LevelAdjustedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"from_level": e.FromLevel,
		"to_level":   e.ToLevel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Checkpoint Events
// ═══════════════════════════════════════════════════════════════════════════

// MilestoneAchievedEvent is emitted the first time a milestone is reached.
// Consumed by the external rewards/notification sink.
type MilestoneAchievedEvent struct {
	BaseEvent
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Reward     string    `json:"reward"`
	AchievedAt time.Time `json:"achieved_at"`
}

// NewMilestoneAchievedEvent creates a MilestoneAchievedEvent.
func NewMilestoneAchievedEvent(pathID, userID, title, reward string, achievedAt time.Time) MilestoneAchievedEvent {
	return MilestoneAchievedEvent{
		BaseEvent:  NewBaseEvent(EventMilestoneAchieved, pathID),
		UserID:     userID,
		Title:      title,
		Reward:     reward,
		AchievedAt: achievedAt,
	}
}

// Payload implements Event interface.
func (e MilestoneAchievedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"title":       e.Title,
		"reward":      e.Reward,
		"achieved_at": e.AchievedAt,
	}
}

// ReviewActivatedEvent is emitted when a review checkpoint becomes due.
type ReviewActivatedEvent struct {
	BaseEvent
	UserID     string   `json:"user_id"`
	AfterItem  int      `json:"after_item"`
	ReviewType string   `json:"review_type"`
	FocusAreas []string `json:"focus_areas"`
}

// NewReviewActivatedEvent creates a ReviewActivatedEvent.
func NewReviewActivatedEvent(pathID, userID string, afterItem int, reviewType string, focusAreas []string) ReviewActivatedEvent {
	return ReviewActivatedEvent{
		BaseEvent:  NewBaseEvent(EventReviewActivated, pathID),
		UserID:     userID,
		AfterItem:  afterItem,
		ReviewType: reviewType,
		FocusAreas: focusAreas,
	}
}

// Payload implements Event interface.
func (e ReviewActivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"after_item":  e.AfterItem,
		"review_type": e.ReviewType,
		"focus_areas": e.FocusAreas,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Adaptation Events
// ═══════════════════════════════════════════════════════════════════════════

// AdaptationCompletedEvent is emitted after a content item has been adapted
// for a learner.
type AdaptationCompletedEvent struct {
	BaseEvent
	ContentID string `json:"content_id"`
	UserID    string `json:"user_id"`
	Neurotype string `json:"neurotype"`
}

// NewAdaptationCompletedEvent creates an AdaptationCompletedEvent.
func NewAdaptationCompletedEvent(contentID, userID, neurotype string) AdaptationCompletedEvent {
	return AdaptationCompletedEvent{
		BaseEvent: NewBaseEvent(EventAdaptationCompleted, contentID),
		ContentID: contentID,
		UserID:    userID,
		Neurotype: neurotype,
	}
}

// Payload implements Event interface.
func (e AdaptationCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"content_id": e.ContentID,
		"user_id":    e.UserID,
		"neurotype":  e.Neurotype,
	}
}

// AdaptationFallbackEvent is emitted when a worker-pool offload failed and the
// transform was recomputed synchronously in the caller's context.
type AdaptationFallbackEvent struct {
	BaseEvent
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
}

// NewAdaptationFallbackEvent creates an AdaptationFallbackEvent.
func NewAdaptationFallbackEvent(contentID, reason string) AdaptationFallbackEvent {
	return AdaptationFallbackEvent{
		BaseEvent: NewBaseEvent(EventAdaptationFallback, contentID),
		ContentID: contentID,
		Reason:    reason,
	}
}

// Payload implements Event interface.
func (e AdaptationFallbackEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"content_id": e.ContentID,
		"reason":     e.Reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
