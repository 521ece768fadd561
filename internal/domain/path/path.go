// Package path содержит доменную модель адаптивного учебного пути:
// генерацию последовательности контента, правила перехода уровней,
// расписание повторений, вехи и конечный автомат обновлений.
package path

import (
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/learner"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ReviewType определяет глубину контрольной точки повторения.
type ReviewType string

const (
	// ReviewQuick - быстрое повторение.
	ReviewQuick ReviewType = "quick"
	// ReviewComprehensive - развёрнутое повторение, каждая вторая точка.
	ReviewComprehensive ReviewType = "comprehensive"
)

// ReviewPoint - контрольная точка повторения после N-го элемента пути.
type ReviewPoint struct {
	// AfterItem - позиция (1-based), после которой наступает повторение.
	// Всегда кратна частоте, выведенной из профиля.
	AfterItem int

	// Type - тип повторения.
	Type ReviewType

	// FocusAreas - теги фокуса, выведенные из затруднений ученика.
	FocusAreas shared.Tags

	// Activated - точка достигнута и активирована.
	Activated bool

	// ScheduledDate - время активации.
	ScheduledDate *time.Time
}

// Milestone - веха с наградой, привязанная к стабильному идентификатору
// контента. Вставка support-элементов сдвигает позиции, но не якорь,
// поэтому веха не дрейфует.
type Milestone struct {
	// ContentID - стабильный якорь вехи.
	ContentID string

	// Position - позиция якоря (1-based) на момент генерации. Справочное
	// поле для отображения; сопоставление идёт только по ContentID.
	Position int

	// Title - название вехи.
	Title string

	// Reward - тег награды для внешнего сервиса наград.
	Reward string

	// Achieved - веха достигнута.
	Achieved bool

	// AchievedDate - время достижения. Ставится ровно один раз.
	AchievedDate *time.Time
}

// SkipSuggestion - рекомендация перескочить вперёд после устойчиво высоких
// результатов. Никогда не применяется автоматически и не изменяет
// последовательность контента.
type SkipSuggestion struct {
	// FromIndex - индекс (0-based) завершённого элемента.
	FromIndex int

	// ToIndex - индекс (0-based) ближайшего следующего assessment-элемента.
	ToIndex int

	// Reason - причина рекомендации.
	Reason string

	// Suggested - всегда true: это только совет слою доставки.
	Suggested bool
}

// ReasonHighPerformance - причина skip-forward рекомендации.
const ReasonHighPerformance = "high_performance"

// ══════════════════════════════════════════════════════════════════════════════
// PERFORMANCE EVENT
// ══════════════════════════════════════════════════════════════════════════════

// Engagement содержит метрики вовлечённости из события успеваемости.
type Engagement struct {
	// ConfidenceLevel - самооценка уверенности [0, 1].
	ConfidenceLevel shared.Confidence
}

// PerformanceEvent - одно событие успеваемости от внешней подсистемы
// оценивания, по одному на завершённый элемент контента.
type PerformanceEvent struct {
	// ContentID - идентификатор завершённого элемента.
	ContentID string

	// Score - нормализованная оценка [0, 1].
	Score shared.Score

	// CompletionTime - фактическое время прохождения.
	CompletionTime time.Duration

	// AttemptCount - количество попыток.
	AttemptCount int

	// Engagement - метрики вовлечённости.
	Engagement Engagement

	// StrugglePoints - теги затруднений.
	StrugglePoints shared.Tags

	// Timestamp - время события.
	Timestamp time.Time
}

// Validate проверяет корректность события.
func (e PerformanceEvent) Validate() error {
	if e.ContentID == "" {
		return shared.NewDomainError("path", "ValidateEvent", shared.ErrEmptyValue, "content id is required")
	}
	if !e.Score.IsValid() {
		return shared.ErrInvalidScore
	}
	if !e.Engagement.ConfidenceLevel.IsValid() {
		return shared.NewDomainError("path", "ValidateEvent", shared.ErrValueOutOfRange, "confidence level must be between 0 and 1")
	}
	if e.AttemptCount < 0 {
		return shared.NewDomainError("path", "ValidateEvent", shared.ErrValueOutOfRange, "attempt count cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNING PATH
// ══════════════════════════════════════════════════════════════════════════════

// LearningPath - упорядоченная изменяемая последовательность элементов
// контента для одного ученика и одного домена. Создаётся ровно один раз
// на (user, domain, school), далее только обновляется конвейером
// обновлений - никогда не заменяется целиком.
type LearningPath struct {
	// ID - уникальный идентификатор пути.
	ID string

	// UserID - идентификатор ученика.
	UserID string

	// ContentDomain - учебный домен (math, language, science, ...).
	ContentDomain string

	// SchoolID - идентификатор школы.
	SchoolID string

	// StartingLevel - стартовый уровень, выбранный при генерации.
	StartingLevel learner.Level

	// ContentSequence - последовательность элементов. После генерации
	// допускаются только вставки (support-элементы), удалений нет.
	ContentSequence []*content.Item

	// ReviewPoints - контрольные точки повторения.
	ReviewPoints []ReviewPoint

	// Milestones - вехи с наградами.
	Milestones []Milestone

	// SkipForward - необязательная действующая рекомендация перескока.
	SkipForward *SkipSuggestion

	// ExpectedCompletionDate - ожидаемая дата завершения пути.
	ExpectedCompletionDate time.Time

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time

	// Version - версия для оптимистической блокировки в хранилище.
	Version int
}

// Key возвращает идентичность сериализованного конвейера обновлений.
func (p *LearningPath) Key() shared.PathKey {
	return shared.NewPathKey(p.UserID, p.ContentDomain)
}

// IndexOf возвращает индекс (0-based) элемента по идентификатору или -1.
func (p *LearningPath) IndexOf(contentID string) int {
	for i, it := range p.ContentSequence {
		if it.ID == contentID {
			return i
		}
	}
	return -1
}

// ItemByID возвращает элемент по идентификатору или nil.
func (p *LearningPath) ItemByID(contentID string) *content.Item {
	if i := p.IndexOf(contentID); i >= 0 {
		return p.ContentSequence[i]
	}
	return nil
}

// NextPending возвращает первый незавершённый элемент или nil, если путь
// полностью пройден.
func (p *LearningPath) NextPending() *content.Item {
	for _, it := range p.ContentSequence {
		if !it.State.IsCompleted() {
			return it
		}
	}
	return nil
}

// CompletedCount возвращает количество завершённых элементов.
func (p *LearningPath) CompletedCount() int {
	n := 0
	for _, it := range p.ContentSequence {
		if it.State.IsCompleted() {
			n++
		}
	}
	return n
}

// VerifyPrerequisites проверяет инвариант: prerequisites каждого элемента
// ссылаются только на элементы, расположенные раньше в последовательности.
func (p *LearningPath) VerifyPrerequisites() error {
	seen := make(map[string]bool, len(p.ContentSequence))
	for i, it := range p.ContentSequence {
		for _, pre := range it.Prerequisites {
			if !seen[pre] {
				return shared.WrapError("path", "Verify", shared.ErrInvalidState,
					fmt.Sprintf("item %s at %d requires %s which is not earlier in the sequence", it.ID, i, pre),
					shared.ErrBrokenPrerequisite)
			}
		}
		seen[it.ID] = true
	}
	return nil
}

// Clone создаёт глубокую структурную копию пути. Копирование на уровне
// записей, без сериализации - функции и даты не теряются.
func (p *LearningPath) Clone() *LearningPath {
	if p == nil {
		return nil
	}

	clone := *p

	clone.ContentSequence = make([]*content.Item, len(p.ContentSequence))
	for i, it := range p.ContentSequence {
		clone.ContentSequence[i] = it.Clone()
	}

	clone.ReviewPoints = make([]ReviewPoint, len(p.ReviewPoints))
	for i, rp := range p.ReviewPoints {
		cp := rp
		cp.FocusAreas = append(shared.Tags(nil), rp.FocusAreas...)
		if rp.ScheduledDate != nil {
			d := *rp.ScheduledDate
			cp.ScheduledDate = &d
		}
		clone.ReviewPoints[i] = cp
	}

	clone.Milestones = make([]Milestone, len(p.Milestones))
	for i, m := range p.Milestones {
		cm := m
		if m.AchievedDate != nil {
			d := *m.AchievedDate
			cm.AchievedDate = &d
		}
		clone.Milestones[i] = cm
	}

	if p.SkipForward != nil {
		sf := *p.SkipForward
		clone.SkipForward = &sf
	}

	return &clone
}

// String возвращает строковое представление пути для логирования.
func (p *LearningPath) String() string {
	return fmt.Sprintf(
		"LearningPath{ID: %s, User: %s, Domain: %s, Level: %s, Items: %d, Completed: %d}",
		p.ID, p.UserID, p.ContentDomain, p.StartingLevel, len(p.ContentSequence), p.CompletedCount(),
	)
}
