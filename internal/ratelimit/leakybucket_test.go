package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock — управляемый источник времени для тестов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBucket(t *testing.T, capacity int, rate float64) (*LeakyBucket, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	b, err := New(Config{Capacity: capacity, LeakRate: rate}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("ошибка создания ведра: %v", err)
	}
	return b, clock
}

// TestConfig_Validate проверяет валидацию параметров ведра.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"по умолчанию", Config{Capacity: 2, LeakRate: 0.016}, false},
		{"ёмкость 0", Config{Capacity: 0, LeakRate: 1}, true},
		{"отрицательная ёмкость", Config{Capacity: -1, LeakRate: 1}, true},
		{"нулевая скорость", Config{Capacity: 1, LeakRate: 0}, true},
		{"отрицательная скорость", Config{Capacity: 1, LeakRate: -0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTryAdmit_SaturatesAtCapacity проверяет: после N допусков без
// прошедшего времени (N+1)-й отклоняется тогда и только тогда, когда N >= C.
func TestTryAdmit_SaturatesAtCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 5} {
		b, _ := newTestBucket(t, capacity, 0.016)

		for i := 0; i < capacity; i++ {
			if d := b.TryAdmit(); d != Admitted {
				t.Fatalf("C=%d: запрос %d: ожидалось admitted, получено %s", capacity, i+1, d)
			}
		}
		if d := b.TryAdmit(); d != Rejected {
			t.Fatalf("C=%d: запрос %d: ожидалось rejected, получено %s", capacity, capacity+1, d)
		}
	}
}

// TestTryAdmit_RejectDoesNotIncrement проверяет, что отказ не меняет уровень.
func TestTryAdmit_RejectDoesNotIncrement(t *testing.T) {
	b, _ := newTestBucket(t, 2, 1)

	b.TryAdmit()
	b.TryAdmit()
	for i := 0; i < 10; i++ {
		if d := b.TryAdmit(); d != Rejected {
			t.Fatalf("ожидалось rejected, получено %s", d)
		}
	}

	if lvl := b.State().Level; lvl != 2 {
		t.Errorf("уровень после отказов: ожидалось 2, получено %v", lvl)
	}
}

// TestTryAdmit_LeakRecovery проверяет: после отказа ожидание 1/R секунд
// допускает ровно один запрос.
func TestTryAdmit_LeakRecovery(t *testing.T) {
	b, clock := newTestBucket(t, 2, 0.5)

	b.TryAdmit()
	b.TryAdmit()
	if d := b.TryAdmit(); d != Rejected {
		t.Fatalf("ожидалось rejected, получено %s", d)
	}

	clock.Advance(2 * time.Second) // 1/R

	if d := b.TryAdmit(); d != Admitted {
		t.Fatalf("после утечки ожидалось admitted, получено %s", d)
	}
	if d := b.TryAdmit(); d != Rejected {
		t.Fatalf("после одного допуска ожидалось rejected, получено %s", d)
	}
}

// TestTryAdmit_SlowRateRecovery — то же для медленной утечки и C=3.
func TestTryAdmit_SlowRateRecovery(t *testing.T) {
	b, clock := newTestBucket(t, 3, 0.25)

	b.TryAdmit()
	b.TryAdmit()
	b.TryAdmit()
	if d := b.TryAdmit(); d != Rejected {
		t.Fatalf("ожидалось rejected, получено %s", d)
	}

	clock.Advance(4 * time.Second) // 1/R

	if d := b.TryAdmit(); d != Admitted {
		t.Fatalf("ожидалось admitted, получено %s", d)
	}
	if d := b.TryAdmit(); d != Rejected {
		t.Fatalf("ожидалось rejected, получено %s", d)
	}
}

// TestState_LevelNeverNegative проверяет, что уровень не уходит ниже нуля.
func TestState_LevelNeverNegative(t *testing.T) {
	b, clock := newTestBucket(t, 3, 10)

	b.TryAdmit()
	clock.Advance(time.Hour)

	st := b.State()
	if st.Level != 0 {
		t.Errorf("уровень: ожидалось 0, получено %v", st.Level)
	}
	if st.Capacity != 3 || st.LeakRate != 10 {
		t.Errorf("неожиданные параметры: %+v", st)
	}
}

// TestTryAdmit_NoLostUpdates проверяет: K конкурентных попыток при уровне
// C-1 допускают ровно одну.
func TestTryAdmit_NoLostUpdates(t *testing.T) {
	const capacity = 5
	const workers = 64

	b, _ := newTestBucket(t, capacity, 0.016)
	for i := 0; i < capacity-1; i++ {
		b.TryAdmit()
	}

	var admitted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if b.TryAdmit() == Admitted {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("допущено %d запросов, ожидался ровно 1", got)
	}
}

// TestDecision_String проверяет строковое представление решений.
func TestDecision_String(t *testing.T) {
	if Admitted.String() != "admitted" || Rejected.String() != "rejected" {
		t.Errorf("неожиданные строки: %s, %s", Admitted, Rejected)
	}
}

// TestAdmit_StateFromSameSection проверяет: каждый допущенный запрос
// получает уровень сразу после своего инкремента, без чужих допусков.
func TestAdmit_StateFromSameSection(t *testing.T) {
	const capacity = 32

	b, _ := newTestBucket(t, capacity, 0.016)

	levels := make(chan float64, capacity*2)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < capacity*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			decision, state := b.Admit()
			if decision == Admitted {
				levels <- state.Level
				return
			}
			if state.Level != capacity {
				t.Errorf("уровень при отказе: ожидалось %d, получено %v", capacity, state.Level)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(levels)

	seen := make(map[float64]bool, capacity)
	for lvl := range levels {
		if seen[lvl] {
			t.Errorf("уровень %v получен дважды", lvl)
		}
		seen[lvl] = true
	}
	for i := 1; i <= capacity; i++ {
		if !seen[float64(i)] {
			t.Errorf("уровень %d не получен ни одним запросом", i)
		}
	}
}
