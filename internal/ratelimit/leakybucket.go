// Пакет ratelimit — контроль допуска запросов по алгоритму leaky bucket.
//
// Ведро наполняется на 1 единицу за каждый допущенный запрос и непрерывно
// опустошается со скоростью LeakRate единиц в секунду. Учитывается
// количество запросов, а не объём тел. Состояние одно на процесс и не
// сохраняется между перезапусками.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Decision — решение о допуске запроса.
type Decision int

const (
	// Admitted — запрос допущен, уровень ведра увеличен на 1
	Admitted Decision = iota
	// Rejected — ведро заполнено, уровень не изменён
	Rejected
)

// String возвращает строковое представление решения (для логов и метрик).
func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Config — параметры ведра. Загружается один раз при старте.
type Config struct {
	// Capacity — ёмкость ведра (>= 1)
	Capacity int
	// LeakRate — скорость утечки, запросов в секунду (> 0)
	LeakRate float64
}

// Validate проверяет корректность параметров ведра.
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("ёмкость ведра должна быть >= 1, получено %d", c.Capacity)
	}
	if !(c.LeakRate > 0) || math.IsInf(c.LeakRate, 0) {
		return fmt.Errorf("скорость утечки должна быть положительным числом, получено %v", c.LeakRate)
	}
	return nil
}

// State — снимок состояния ведра.
type State struct {
	Capacity int
	LeakRate float64
	Level    float64
}

// LeakyBucket — общее для всех запросов ведро допуска.
// Все чтения и изменения level/updatedAt выполняются под mu,
// мьютекс не удерживается во время ввода-вывода.
type LeakyBucket struct {
	capacity float64
	cfg      Config
	now      func() time.Time

	mu        sync.Mutex
	level     float64
	updatedAt time.Time
}

// Option — функциональная опция LeakyBucket.
type Option func(*LeakyBucket)

// WithClock подменяет источник времени (используется в тестах).
func WithClock(now func() time.Time) Option {
	return func(b *LeakyBucket) {
		b.now = now
	}
}

// New создаёт пустое ведро с указанными параметрами.
func New(cfg Config, opts ...Option) (*LeakyBucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &LeakyBucket{
		capacity: float64(cfg.Capacity),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.updatedAt = b.now()

	return b, nil
}

// TryAdmit принимает решение о допуске одного запроса.
func (b *LeakyBucket) TryAdmit() Decision {
	decision, _ := b.Admit()
	return decision
}

// Admit принимает решение о допуске и возвращает состояние ведра,
// снятое в той же критической секции, что и решение.
//
// Под блокировкой: уровень уменьшается на LeakRate * elapsed (не ниже 0),
// затем если уровень >= ёмкости — Rejected без изменения уровня,
// иначе уровень увеличивается на 1 и возвращается Admitted.
func (b *LeakyBucket) Admit() (Decision, State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.leakLocked()

	if b.level >= b.capacity {
		return Rejected, b.stateLocked()
	}

	b.level++
	return Admitted, b.stateLocked()
}

// State возвращает текущее состояние ведра с учётом утечки
// на момент вызова.
func (b *LeakyBucket) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.leakLocked()
	return b.stateLocked()
}

func (b *LeakyBucket) stateLocked() State {
	return State{
		Capacity: b.cfg.Capacity,
		LeakRate: b.cfg.LeakRate,
		Level:    b.level,
	}
}

// Capacity возвращает ёмкость ведра.
func (b *LeakyBucket) Capacity() int {
	return b.cfg.Capacity
}

// LeakRate возвращает скорость утечки (запросов в секунду).
func (b *LeakyBucket) LeakRate() float64 {
	return b.cfg.LeakRate
}

// leakLocked пересчитывает уровень на текущий момент. Вызывается под mu.
func (b *LeakyBucket) leakLocked() {
	now := b.now()
	elapsed := now.Sub(b.updatedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	b.level = math.Max(0, b.level-b.cfg.LeakRate*elapsed)
	b.updatedAt = now
}
