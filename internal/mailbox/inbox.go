package mailbox

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Message is one captured delivery to one local recipient.
type Message struct {
	From     string
	To       string
	OTP      string
	DKIM     DKIMResult
	SPF      SPFResult
	Received time.Time
}

// Inbox keeps every captured message in memory, keyed by recipient.
type Inbox struct {
	mu      sync.Mutex
	byRcpt  map[string][]Message
	arrived chan struct{}
}

func NewInbox() *Inbox {
	return &Inbox{
		byRcpt:  make(map[string][]Message),
		arrived: make(chan struct{}),
	}
}

func (i *Inbox) deliver(m Message) {
	key := normalizeAddress(m.To)
	i.mu.Lock()
	i.byRcpt[key] = append(i.byRcpt[key], m)
	close(i.arrived)
	i.arrived = make(chan struct{})
	i.mu.Unlock()
}

// Latest returns the newest message for to.
func (i *Inbox) Latest(to string) (Message, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	msgs := i.byRcpt[normalizeAddress(to)]
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Count reports how many messages to has received.
func (i *Inbox) Count(to string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.byRcpt[normalizeAddress(to)])
}

// Wait blocks until to has received its nth message (counting from 1) and
// returns it.
func (i *Inbox) Wait(ctx context.Context, to string, n int) (Message, error) {
	key := normalizeAddress(to)
	for {
		i.mu.Lock()
		msgs := i.byRcpt[key]
		if n > 0 && len(msgs) >= n {
			m := msgs[n-1]
			i.mu.Unlock()
			return m, nil
		}
		arrived := i.arrived
		i.mu.Unlock()

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-arrived:
		}
	}
}

func normalizeAddress(addr string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(addr), "<>"))
}
