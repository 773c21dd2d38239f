package syncengine

import (
	"sync"
	"time"
)

// DefaultMessageTTL — время показа транзиентного сообщения.
const DefaultMessageTTL = 5 * time.Second

// Scope — область показа сообщения.
type Scope string

// Области сообщений: страница целиком и формы ресурсов.
const (
	ScopePage     Scope = "page"
	ScopeProjects Scope = "projects"
	ScopeTasks    Scope = "tasks"
	ScopeUsers    Scope = "users"
	ScopeRoles    Scope = "roles"
)

// Banner — пара (сообщение об успехе, сообщение об ошибке) одной области.
type Banner struct {
	Message string
	Error   string
}

// Empty сообщает, что в области нечего показывать.
func (b Banner) Empty() bool {
	return b.Message == "" && b.Error == ""
}

// Notifier хранит транзиентные сообщения по областям. Каждая установка
// перезапускает таймер области; по истечении TTL очищаются оба поля.
// Таймеры принадлежат Notifier и останавливаются в Close.
type Notifier struct {
	ttl time.Duration

	mu        sync.Mutex
	banners   map[Scope]Banner
	timers    map[Scope]*time.Timer
	gens      map[Scope]uint64
	listeners []func(Scope, Banner)
	closed    bool
}

// NewNotifier создаёт Notifier с временем показа ttl (<= 0 — DefaultMessageTTL).
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	return &Notifier{
		ttl:     ttl,
		banners: make(map[Scope]Banner),
		timers:  make(map[Scope]*time.Timer),
		gens:    make(map[Scope]uint64),
	}
}

// OnChange регистрирует обработчик изменения области.
func (n *Notifier) OnChange(fn func(Scope, Banner)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// SetMessage показывает сообщение об успехе в области.
func (n *Notifier) SetMessage(scope Scope, message string) {
	n.set(scope, Banner{Message: message})
}

// SetError показывает сообщение об ошибке в области.
func (n *Notifier) SetError(scope Scope, message string) {
	n.set(scope, Banner{Error: message})
}

// Get возвращает текущее содержимое области.
func (n *Notifier) Get(scope Scope) Banner {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.banners[scope]
}

// Clear немедленно очищает область и отменяет её таймер.
func (n *Notifier) Clear(scope Scope) {
	n.mu.Lock()
	if t, ok := n.timers[scope]; ok {
		t.Stop()
		delete(n.timers, scope)
	}
	n.gens[scope]++
	_, had := n.banners[scope]
	delete(n.banners, scope)
	listeners := n.snapshotListeners()
	n.mu.Unlock()

	if had {
		notify(listeners, scope, Banner{})
	}
}

// Pending сообщает, есть ли хотя бы одна непустая область.
func (n *Notifier) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.banners) > 0
}

// Close останавливает все таймеры. После Close установки игнорируются.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for scope, t := range n.timers {
		t.Stop()
		delete(n.timers, scope)
	}
}

func (n *Notifier) set(scope Scope, b Banner) {
	if b.Empty() {
		n.Clear(scope)
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if t, ok := n.timers[scope]; ok {
		t.Stop()
	}
	n.banners[scope] = b

	n.gens[scope]++
	gen := n.gens[scope]
	n.timers[scope] = time.AfterFunc(n.ttl, func() { n.expire(scope, gen) })
	listeners := n.snapshotListeners()
	n.mu.Unlock()

	notify(listeners, scope, b)
}

// expire очищает область, если сработавший таймер всё ещё актуален.
func (n *Notifier) expire(scope Scope, gen uint64) {
	n.mu.Lock()
	if n.closed || n.gens[scope] != gen {
		n.mu.Unlock()
		return
	}
	delete(n.timers, scope)
	delete(n.banners, scope)
	listeners := n.snapshotListeners()
	n.mu.Unlock()

	notify(listeners, scope, Banner{})
}

func (n *Notifier) snapshotListeners() []func(Scope, Banner) {
	return append([]func(Scope, Banner){}, n.listeners...)
}

func notify(listeners []func(Scope, Banner), scope Scope, b Banner) {
	for _, fn := range listeners {
		fn(scope, b)
	}
}
