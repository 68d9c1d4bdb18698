package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notification is one transient user-facing message.
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center holds the currently visible notifications. Each message dismisses
// itself after a fixed display interval; consumers poll Active.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int64
	active map[int64]Notification
	logger *zerolog.Logger
}

func NewCenter(ttl time.Duration, logger *zerolog.Logger) *Center {
	return &Center{
		ttl:    ttl,
		active: make(map[int64]Notification),
		logger: logger,
	}
}

// Notify publishes a message and schedules its auto-dismissal.
func (c *Center) Notify(message string) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.active[id] = Notification{ID: id, Message: message, CreatedAt: time.Now()}
	c.mu.Unlock()

	c.logger.Info().Str("message", message).Msg("notification")

	time.AfterFunc(c.ttl, func() {
		c.Dismiss(id)
	})
}

// Dismiss removes a notification before its interval elapses.
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, id)
}

// Active returns the visible notifications ordered by creation.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.active))
	for _, n := range c.active {
		out = append(out, n)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
