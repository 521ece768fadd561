package command

import (
	"sync"

	"github.com/Shatzii/Go4it-V2-sub020/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PATH LOCK
// События успеваемости для одного пути не коммутативны: индексы вставок,
// цели skip-forward и штампы вех зависят от состояния последовательности в
// момент применения. Поэтому обновления одного (user, domain) строго
// сериализуются, а обновления разных путей идут параллельно без общего
// состояния.
// ══════════════════════════════════════════════════════════════════════════════

// pathLock выдаёт мьютекс на каждый ключ пути.
type pathLock struct {
	mu    sync.Mutex
	locks map[shared.PathKey]*sync.Mutex
}

// newPathLock создаёт pathLock.
func newPathLock() *pathLock {
	return &pathLock{locks: make(map[shared.PathKey]*sync.Mutex)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
func (l *pathLock) Lock(key shared.PathKey) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
