// Package learner содержит доменную модель профиля ученика.
//
// Это входные данные движка адаптивных учебных путей. Пакет определяет:
//
//   - Сущность Profile: нейротип, уровень, темп, история успеваемости
//   - Перечисления: Neurotype, Level, LearningSpeed
//   - Value Objects: PerformanceRecord, Preferences
//   - Read-only интерфейс репозитория: Repository
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - интерфейс репозитория реализуется в infrastructure
//  3. Профиль создаётся и изменяется внешним сервисом - здесь он только читается
//
// # Ключевые инварианты
//
// История успеваемости append-only: RecordPerformance только дополняет
// PerformanceHistory, записи никогда не удаляются и не изменяются.
//
// Нераспознанный нейротип канонизируется в NeurotypeOther:
//
//	Neurotype("unknown").Canonical() == NeurotypeOther
//
// Поэтому адаптации для "unknown" и "other" всегда идентичны.
//
// # Пример использования
//
//	avg, ok := profile.RecentAverageScore(5)
//	if ok && avg > 0.9 {
//	    level = profile.CurrentLevel.Next()
//	}
package learner
