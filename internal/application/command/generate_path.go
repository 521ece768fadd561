// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE LEARNING PATH COMMAND
// Создаёт новый учебный путь для ученика в заданном домене. Путь создаётся
// ровно один раз на (user, domain, school) - повторный запрос отклоняется,
// существующий путь никогда не заменяется целиком.
// ══════════════════════════════════════════════════════════════════════════════

// GeneratePathCommand содержит параметры генерации пути.
type GeneratePathCommand struct {
	// UserID - идентификатор ученика.
	UserID string

	// ContentDomain - учебный домен (math, language, science, ...).
	ContentDomain string

	// SchoolID - идентификатор школы.
	SchoolID string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c GeneratePathCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("generate_path: user_id is required")
	}
	if c.ContentDomain == "" {
		return errors.New("generate_path: content_domain is required")
	}
	return nil
}

// GeneratePathResult содержит результат генерации.
type GeneratePathResult struct {
	// Path - созданный путь.
	Path *path.LearningPath
}

// GeneratePathHandler обрабатывает команду генерации пути.
type GeneratePathHandler struct {
	profiles  learner.Repository
	paths     path.Repository
	generator *path.Generator
	eventBus  shared.EventPublisher
	logger    *slog.Logger
}

// NewGeneratePathHandler создаёт обработчик.
func NewGeneratePathHandler(
	profiles learner.Repository,
	paths path.Repository,
	generator *path.Generator,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
) *GeneratePathHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeneratePathHandler{
		profiles:  profiles,
		paths:     paths,
		generator: generator,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// Handle выполняет команду.
func (h *GeneratePathHandler) Handle(ctx context.Context, cmd GeneratePathCommand) (*GeneratePathResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("path", "Generate", shared.ErrInvalidInput, "invalid command", err)
	}

	profile, err := h.profiles.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	p, err := h.generator.Generate(ctx, profile, cmd.ContentDomain, cmd.SchoolID)
	if err != nil {
		h.logger.Error("path generation failed",
			"user_id", cmd.UserID,
			"domain", cmd.ContentDomain,
			"error", err,
		)
		return nil, err
	}

	if err := h.paths.Create(ctx, p); err != nil {
		return nil, err
	}

	event := shared.NewPathGeneratedEvent(p.ID, p.UserID, p.ContentDomain, string(p.StartingLevel), len(p.ContentSequence))
	event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	if err := h.eventBus.Publish(event); err != nil {
		h.logger.Error("failed to publish path.generated", "path_id", p.ID, "error", err)
	}

	// Генератор мог сместить стартовый уровень относительно профиля.
	if p.StartingLevel != profile.CurrentLevel {
		adjusted := shared.NewLevelAdjustedEvent(p.ID, p.UserID, string(profile.CurrentLevel), string(p.StartingLevel))
		adjusted.BaseEvent = adjusted.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		if err := h.eventBus.Publish(adjusted); err != nil {
			h.logger.Error("failed to publish path.level_adjusted", "path_id", p.ID, "error", err)
		}
	}

	h.logger.Info("learning path generated",
		"path_id", p.ID,
		"user_id", p.UserID,
		"domain", p.ContentDomain,
		"starting_level", p.StartingLevel,
		"items", len(p.ContentSequence),
	)

	return &GeneratePathResult{Path: p}, nil
}
