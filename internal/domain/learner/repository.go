package learner

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Профиль принадлежит внешнему сервису профилей, поэтому контракт
// хранилища здесь read-only. Реализации находятся в infrastructure.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет read-only доступ к профилям учеников.
type Repository interface {
	// GetByID возвращает профиль по идентификатору ученика.
	// Возвращает shared.ErrProfileNotFound, если профиль не найден.
	GetByID(ctx context.Context, id string) (*Profile, error)
}
