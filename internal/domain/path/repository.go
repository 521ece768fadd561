package path

import (
	"context"
	"time"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем путей.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения учебных путей.
type Repository interface {
	// Create сохраняет новый путь. Путь создаётся ровно один раз на
	// (user, domain, school); при повторной попытке возвращает
	// shared.ErrPathAlreadyExists.
	Create(ctx context.Context, p *LearningPath) error

	// GetByKey возвращает путь по идентичности (user, domain).
	// Возвращает shared.ErrPathNotFound, если путь не найден.
	GetByKey(ctx context.Context, key shared.PathKey) (*LearningPath, error)

	// Update сохраняет обновлённый путь с оптимистической блокировкой по
	// версии. Возвращает shared.ErrPathVersionStale при конфликте версий
	// и shared.ErrPathNotFound, если путь не найден.
	Update(ctx context.Context, p *LearningPath, expectedVersion int) error
}

// DueReview - активированная точка повторения, с момента активации которой
// прошло заметное время. Читается фоновым обходом для напоминаний; сам путь
// не изменяется.
type DueReview struct {
	UserID        string
	ContentDomain string
	AfterItem     int
	ReviewType    ReviewType
	FocusAreas    shared.Tags
	ScheduledDate time.Time
}

// ReviewBrowser - выборка точек повторения поверх хранилища путей.
/// Отделён от Repository: нужен только фоновым задачам.
type ReviewBrowser interface {
	// ListDueReviews возвращает активированные точки повторения с датой
	// активации не позже before.
	ListDueReviews(ctx context.Context, before time.Time) ([]DueReview, error)
}
