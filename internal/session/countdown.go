package session

import (
	"sync"
	"time"
)

const DefaultCountdown = 60 * time.Second

// Countdown ticks once per second with the whole seconds left, ending at 0.
type Countdown struct {
	mu        sync.Mutex
	clock     Clock
	remaining int
	timer     Timer
	onTick    func(seconds int)
	running   bool
}

func NewCountdown(clock Clock, d time.Duration, onTick func(seconds int)) *Countdown {
	if clock == nil {
		clock = SystemClock{}
	}
	if d <= 0 {
		d = DefaultCountdown
	}
	return &Countdown{
		clock:     clock,
		remaining: int(d.Round(time.Second) / time.Second),
		onTick:    onTick,
	}
}

// Start emits the full count immediately and then one tick per second.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	seconds := c.remaining
	c.scheduleLocked()
	c.mu.Unlock()

	c.emit(seconds)
}

func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) scheduleLocked() {
	if c.remaining <= 0 {
		c.running = false
		return
	}
	c.timer = c.clock.AfterFunc(time.Second, c.tick)
}

func (c *Countdown) tick() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.remaining--
	seconds := c.remaining
	c.scheduleLocked()
	c.mu.Unlock()

	c.emit(seconds)
}

func (c *Countdown) emit(seconds int) {
	if c.onTick != nil {
		c.onTick(seconds)
	}
}
