// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/content"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/path"
	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NEXT CONTENT QUERY
// Определяет "следующий элемент" для слоя доставки: первый незавершённый
// элемент последовательности плюс действующая рекомендация перескока,
// если она есть. Запрос ничего не мутирует.
// ══════════════════════════════════════════════════════════════════════════════

// GetNextContentQuery содержит параметры запроса.
type GetNextContentQuery struct {
	// UserID - идентификатор ученика.
	UserID string

	// ContentDomain - учебный домен пути.
	ContentDomain string
}

// Validate проверяет корректность параметров.
func (q GetNextContentQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_next_content: user_id is required")
	}
	if q.ContentDomain == "" {
		return errors.New("get_next_content: content_domain is required")
	}
	return nil
}

// NextContentView - результат запроса.
type NextContentView struct {
	// PathID - идентификатор пути.
	PathID string

	// Item - следующий незавершённый элемент (nil = путь пройден).
	Item *content.Item

	// Position - позиция элемента (1-based, 0 если путь пройден).
	Position int

	// PathCompleted - все элементы завершены.
	PathCompleted bool

	// SkipForward - действующая рекомендация перескока (только совет).
	SkipForward *path.SkipSuggestion

	// PendingReview - активированная, но ещё не пройденная точка повторения.
	PendingReview *path.ReviewPoint
}

// GetNextContentHandler обрабатывает запрос.
type GetNextContentHandler struct {
	paths  path.Repository
	logger *slog.Logger
}

// NewGetNextContentHandler создаёт обработчик.
func NewGetNextContentHandler(paths path.Repository, logger *slog.Logger) *GetNextContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetNextContentHandler{paths: paths, logger: logger}
}

// Handle выполняет запрос.
func (h *GetNextContentHandler) Handle(ctx context.Context, q GetNextContentQuery) (*NextContentView, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("path", "GetNext", shared.ErrInvalidInput, "invalid query", err)
	}

	p, err := h.paths.GetByKey(ctx, shared.NewPathKey(q.UserID, q.ContentDomain))
	if err != nil {
		return nil, err
	}

	view := &NextContentView{
		PathID:      p.ID,
		SkipForward: p.SkipForward,
	}

	next := p.NextPending()
	if next == nil {
		view.PathCompleted = true
		return view, nil
	}

	view.Item = next
	view.Position = p.IndexOf(next.ID) + 1

	// Активированная точка повторения перед следующим элементом имеет
	// приоритет в слое доставки.
	completed := p.CompletedCount()
	for i := range p.ReviewPoints {
		rp := &p.ReviewPoints[i]
		if rp.Activated && rp.AfterItem <= completed {
			view.PendingReview = rp
			break
		}
	}

	return view, nil
}
