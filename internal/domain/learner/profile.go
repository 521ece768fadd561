// Package learner содержит доменную модель профиля ученика.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package learner

import (
	"errors"
	"fmt"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Neurotype представляет нейрокогнитивный профиль ученика.
// Определяет выбор адаптаций контента, подачи и темпа обучения.
type Neurotype string

const (
	// NeurotypeDyslexia - дислексия.
	NeurotypeDyslexia Neurotype = "dyslexia"
	// NeurotypeADHD - синдром дефицита внимания и гиперактивности.
	NeurotypeADHD Neurotype = "adhd"
	// NeurotypeAutismSpectrum - расстройство аутистического спектра.
	NeurotypeAutismSpectrum Neurotype = "autism_spectrum"
	// NeurotypeCombined - комбинированный профиль.
	NeurotypeCombined Neurotype = "combined"
	// NeurotypeOther - прочее / не определено.
	NeurotypeOther Neurotype = "other"
)

// IsValid проверяет, что нейротип корректен.
func (n Neurotype) IsValid() bool {
	switch n {
	case NeurotypeDyslexia, NeurotypeADHD, NeurotypeAutismSpectrum,
		NeurotypeCombined, NeurotypeOther:
		return true
	default:
		return false
	}
}

// Canonical возвращает известный нейротип либо NeurotypeOther для
// нераспознанных значений. Диспетчеризация адаптаций всегда идёт через
// канонический нейротип, поэтому "unknown" и "other" дают идентичный результат.
func (n Neurotype) Canonical() Neurotype {
	if n.IsValid() {
		return n
	}
	return NeurotypeOther
}

// Level представляет уровень подготовки ученика (упорядоченное перечисление).
type Level string

const (
	// LevelBeginner - начальный уровень.
	LevelBeginner Level = "beginner"
	// LevelElementary - элементарный уровень.
	LevelElementary Level = "elementary"
	// LevelIntermediate - средний уровень.
	LevelIntermediate Level = "intermediate"
	// LevelAdvanced - продвинутый уровень.
	LevelAdvanced Level = "advanced"
	// LevelExpert - экспертный уровень.
	LevelExpert Level = "expert"
)

// levelOrder задаёт порядок уровней от младшего к старшему.
var levelOrder = []Level{
	LevelBeginner,
	LevelElementary,
	LevelIntermediate,
	LevelAdvanced,
	LevelExpert,
}

// IsValid проверяет, что уровень корректен.
func (l Level) IsValid() bool {
	return l.Index() >= 0
}

// Index возвращает порядковый номер уровня (0 = beginner) или -1.
func (l Level) Index() int {
	for i, lv := range levelOrder {
		if lv == l {
			return i
		}
	}
	return -1
}

// Next возвращает следующий уровень. Верхний уровень остаётся без изменений.
func (l Level) Next() Level {
	i := l.Index()
	if i < 0 || i >= len(levelOrder)-1 {
		return l
	}
	return levelOrder[i+1]
}

// Prev возвращает предыдущий уровень. Нижний уровень остаётся без изменений.
func (l Level) Prev() Level {
	i := l.Index()
	if i <= 0 {
		return l
	}
	return levelOrder[i-1]
}

// Levels возвращает копию упорядоченного списка уровней.
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}

// LearningSpeed представляет предпочитаемый темп обучения.
type LearningSpeed string

const (
	// SpeedAccelerated - ускоренный темп.
	SpeedAccelerated LearningSpeed = "accelerated"
	// SpeedStandard - стандартный темп.
	SpeedStandard LearningSpeed = "standard"
	// SpeedGradual - постепенный темп.
	SpeedGradual LearningSpeed = "gradual"
)

// IsValid проверяет, что темп корректен.
func (s LearningSpeed) IsValid() bool {
	switch s {
	case SpeedAccelerated, SpeedStandard, SpeedGradual:
		return true
	default:
		return false
	}
}

// Factor возвращает множитель времени для оценки длительности контента.
func (s LearningSpeed) Factor() float64 {
	switch s {
	case SpeedAccelerated:
		return 0.8
	case SpeedGradual:
		return 1.3
	default:
		return 1.0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// PerformanceRecord - одна запись истории успеваемости.
// История append-only: записи никогда не удаляются и не изменяются.
type PerformanceRecord struct {
	// ContentID - идентификатор пройденного контента.
	ContentID string

	// Score - нормализованная оценка [0, 1].
	Score shared.Score

	// Timestamp - время записи.
	Timestamp time.Time
}

// Preferences содержит пользовательские настройки отображения.
// Явные настройки всегда имеют приоритет над значениями по умолчанию
// для нейротипа.
type Preferences struct {
	// FontSize - размер шрифта в пунктах (0 = по умолчанию нейротипа).
	FontSize int

	// FontFamily - семейство шрифта ("" = по умолчанию нейротипа).
	FontFamily string

	// LineSpacing - межстрочный интервал (0 = по умолчанию нейротипа).
	LineSpacing float64

	// HighContrast - запрошена высококонтрастная цветовая схема.
	HighContrast bool

	// ReducedAnimations - запрошено снижение анимации.
	ReducedAnimations bool

	// AvailableTimePerWeek - доступное время занятий в минутах в неделю
	// (0 = не указано).
	AvailableTimePerWeek int
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - профиль ученика. Владельцем профиля является внешний сервис
// профилей; движок построения путей только читает его.
type Profile struct {
	// ID - уникальный идентификатор ученика.
	ID string

	// Neurotype - нейрокогнитивный профиль.
	Neurotype Neurotype

	// CurrentLevel - текущий уровень подготовки.
	CurrentLevel Level

	// LearningSpeed - предпочитаемый темп обучения.
	LearningSpeed LearningSpeed

	// Strengths - сильные стороны (теги).
	Strengths shared.Tags

	// Challenges - затруднения (теги). Определяют фокус повторений.
	Challenges shared.Tags

	// Preferences - пользовательские настройки отображения.
	Preferences Preferences

	// CompletedContent - идентификаторы завершённого контента.
	CompletedContent []string

	// PerformanceHistory - упорядоченная история успеваемости (append-only).
	PerformanceHistory []PerformanceRecord
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - отсутствует идентификатор ученика.
	ErrMissingID = errors.New("learner id is required")

	// ErrHistoryTruncated - попытка укоротить историю успеваемости.
	ErrHistoryTruncated = errors.New("performance history is append-only")
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Validate проверяет минимальную корректность профиля для генерации пути.
func (p *Profile) Validate() error {
	if p == nil {
		return shared.ErrInvalidProfile
	}
	if p.ID == "" {
		return ErrMissingID
	}
	if !p.CurrentLevel.IsValid() {
		return shared.ErrInvalidLevel
	}
	if !p.LearningSpeed.IsValid() {
		return shared.ErrInvalidLearnSpeed
	}
	return nil
}

// RecentAverageScore возвращает среднюю оценку по последним n записям
// истории (меньше, если история короче). Второе значение false означает
// пустую историю.
func (p *Profile) RecentAverageScore(n int) (float64, bool) {
	if p == nil || len(p.PerformanceHistory) == 0 || n <= 0 {
		return 0, false
	}

	start := len(p.PerformanceHistory) - n
	if start < 0 {
		start = 0
	}

	recent := p.PerformanceHistory[start:]
	var sum float64
	for _, r := range recent {
		sum += r.Score.Float64()
	}
	return sum / float64(len(recent)), true
}

// RecordPerformance добавляет запись в историю успеваемости.
// История только дополняется - записи никогда не удаляются.
func (p *Profile) RecordPerformance(contentID string, score shared.Score, at time.Time) error {
	if !score.IsValid() {
		return shared.ErrInvalidScore
	}

	p.PerformanceHistory = append(p.PerformanceHistory, PerformanceRecord{
		ContentID: contentID,
		Score:     score,
		Timestamp: at,
	})
	return nil
}

// CompletedCount возвращает количество завершённых элементов контента.
func (p *Profile) CompletedCount() int {
	return len(p.CompletedContent)
}

// IsExperienced возвращает true, если ученик завершил более 10 элементов.
// Опытные ученики получают скидку к оценке времени прохождения.
func (p *Profile) IsExperienced() bool {
	return p.CompletedCount() > 10
}

// String возвращает строковое представление профиля для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf(
		"Profile{ID: %s, Neurotype: %s, Level: %s, Speed: %s, History: %d}",
		p.ID, p.Neurotype, p.CurrentLevel, p.LearningSpeed, len(p.PerformanceHistory),
	)
}

// Clone создаёт глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}

	clone := *p
	clone.Strengths = append(shared.Tags(nil), p.Strengths...)
	clone.Challenges = append(shared.Tags(nil), p.Challenges...)
	clone.CompletedContent = append([]string(nil), p.CompletedContent...)
	clone.PerformanceHistory = append([]PerformanceRecord(nil), p.PerformanceHistory...)
	return &clone
}
