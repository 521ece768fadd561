package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/config"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
	"github.com/Shatzii/Go4it-V2-sub020/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PERFORMANCE COMMAND
// Применяет одно событие успеваемости к учебному пути. Это единственная
// точка мутации пути после генерации: обновления одного пути строго
// сериализуются через pathLock, обновления разных путей независимы.
// Ошибка на любом шаге отклоняет всё событие - частично применённых
// обновлений не бывает ("progress not recorded, please retry").
// ══════════════════════════════════════════════════════════════════════════════

// RecordPerformanceCommand содержит данные события успеваемости.
type RecordPerformanceCommand struct {
	// UserID - идентификатор ученика.
	UserID string

	// ContentDomain - учебный домен пути.
	ContentDomain string

	// ContentID - идентификатор завершённого элемента.
	ContentID string

	// Score - нормализованная оценка [0, 1].
	Score float64

	// CompletionTime - фактическое время прохождения.
	CompletionTime time.Duration

	// AttemptCount - количество попыток.
	AttemptCount int

	// ConfidenceLevel - самооценка уверенности [0, 1].
	ConfidenceLevel float64

	// StrugglePoints - теги затруднений.
	StrugglePoints []string

	// Timestamp - время события (по умолчанию now).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет корректность команды.
func (c RecordPerformanceCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_performance: user_id is required")
	}
	if c.ContentDomain == "" {
		return errors.New("record_performance: content_domain is required")
	}
	if c.ContentID == "" {
		return errors.New("record_performance: content_id is required")
	}
	if c.Score < 0 || c.Score > 1 {
		return fmt.Errorf("record_performance: score %f out of range [0, 1]", c.Score)
	}
	if c.ConfidenceLevel < 0 || c.ConfidenceLevel > 1 {
		return fmt.Errorf("record_performance: confidence %f out of range [0, 1]", c.ConfidenceLevel)
	}
	return nil
}

// RecordPerformanceResult содержит результат применения события.
type RecordPerformanceResult struct {
	// Path - новое значение пути.
	Path *path.LearningPath

	// Struggled - элемент завершён ниже проходного порога.
	Struggled bool

	// SupportInsertedID - идентификатор вставленного support-элемента.
	SupportInsertedID string

	// SkipSuggested - прикреплённая рекомендация перескока.
	SkipSuggested *path.SkipSuggestion

	// MilestonesAchieved - вехи, достигнутые этим событием.
	MilestonesAchieved []path.Milestone

	// ReviewsActivated - точки повторения, активированные этим событием.
	ReviewsActivated []path.ReviewPoint
}

// RecordPerformanceHandler обрабатывает события успеваемости.
type RecordPerformanceHandler struct {
	paths    path.Repository
	features *config.FeatureFlags
	eventBus shared.EventPublisher
	logger   *slog.Logger
	locks    *pathLock

	// saveRetrier повторяет сохранение при конфликте версий. Конфликты
	// возможны только между экземплярами процесса: внутри одного процесса
	// pathLock уже сериализует обновления.
	saveRetrier *retry.Retrier
}

// NewRecordPerformanceHandler создаёт обработчик.
func NewRecordPerformanceHandler(
	paths path.Repository,
	features *config.FeatureFlags,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
) *RecordPerformanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordPerformanceHandler{
		paths:       paths,
		features:    features,
		eventBus:    eventBus,
		logger:      logger,
		locks:       newPathLock(),
		saveRetrier: retry.DatabaseRetrier(),
	}
}

// Handle выполняет команду.
func (h *RecordPerformanceHandler) Handle(ctx context.Context, cmd RecordPerformanceCommand) (*RecordPerformanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("path", "Update", shared.ErrInvalidInput, "invalid command", err)
	}

	key := shared.NewPathKey(cmd.UserID, cmd.ContentDomain)
	unlock := h.locks.Lock(key)
	defer unlock()

	updater := path.NewUpdater(h.updaterOptions(cmd.UserID))

	var result *path.UpdateResult
	err := h.saveRetrier.Do(ctx, func(ctx context.Context) error {
		p, err := h.paths.GetByKey(ctx, key)
		if err != nil {
			return retry.Permanent(err)
		}

		result, err = updater.Update(p, h.toEvent(cmd))
		if err != nil {
			return retry.Permanent(err)
		}

		if err := h.paths.Update(ctx, result.Path, p.Version); err != nil {
			if errors.Is(err, shared.ErrOptimisticLock) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}
		return nil
	})
	if err != nil {
		h.logger.Error("performance event rejected",
			"user_id", cmd.UserID,
			"content_id", cmd.ContentID,
			"error", err,
		)
		return nil, err
	}

	h.publishEvents(cmd, result)

	return &RecordPerformanceResult{
		Path:               result.Path,
		Struggled:          result.Struggled,
		SupportInsertedID:  result.SupportInsertedID,
		SkipSuggested:      result.SkipSuggested,
		MilestonesAchieved: result.MilestonesAchieved,
		ReviewsActivated:   result.ReviewsActivated,
	}, nil
}

// updaterOptions выводит опции конечного автомата из фич-флагов.
func (h *RecordPerformanceHandler) updaterOptions(userID string) path.UpdaterOptions {
	opts := path.DefaultUpdaterOptions()
	if h.features == nil {
		return opts
	}

	fctx := &config.FeatureContext{UserID: userID}
	opts.AllowSupportInsertion = h.features.IsEnabled(config.FeaturePathSupportInsertion, fctx)
	opts.AllowSkipForward = h.features.IsEnabled(config.FeaturePathSkipForward, fctx)
	return opts
}

// toEvent преобразует команду в доменное событие успеваемости.
func (h *RecordPerformanceHandler) toEvent(cmd RecordPerformanceCommand) path.PerformanceEvent {
	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return path.PerformanceEvent{
		ContentID:      cmd.ContentID,
		Score:          shared.Score(cmd.Score),
		CompletionTime: cmd.CompletionTime,
		AttemptCount:   cmd.AttemptCount,
		Engagement:     path.Engagement{ConfidenceLevel: shared.Confidence(cmd.ConfidenceLevel)},
		StrugglePoints: shared.TagsFromStrings(cmd.StrugglePoints),
		Timestamp:      ts,
	}
}

// publishEvents публикует доменные события для внешнего notification sink.
func (h *RecordPerformanceHandler) publishEvents(cmd RecordPerformanceCommand, result *path.UpdateResult) {
	p := result.Path
	publish := func(e shared.Event) {
		if err := h.eventBus.Publish(e); err != nil {
			h.logger.Error("failed to publish event", "type", e.EventType(), "path_id", p.ID, "error", err)
		}
	}

	updated := shared.NewPathUpdatedEvent(p.ID, p.UserID, cmd.ContentID, cmd.Score, result.Struggled)
	updated.BaseEvent = updated.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	publish(updated)

	if result.SupportInsertedID != "" {
		publish(shared.NewSupportInsertedEvent(p.ID, p.UserID, cmd.ContentID, result.SupportInsertedID, result.ItemIndex+1))
	}
	if result.SkipSuggested != nil {
		publish(shared.NewSkipSuggestedEvent(p.ID, p.UserID, result.SkipSuggested.FromIndex, result.SkipSuggested.ToIndex, result.SkipSuggested.Reason))
	}
	for _, m := range result.MilestonesAchieved {
		publish(shared.NewMilestoneAchievedEvent(p.ID, p.UserID, m.Title, m.Reward, *m.AchievedDate))
	}
	for _, rp := range result.ReviewsActivated {
		publish(shared.NewReviewActivatedEvent(p.ID, p.UserID, rp.AfterItem, string(rp.Type), rp.FocusAreas.Strings()))
	}
}
