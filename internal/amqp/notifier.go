package amqp

import (
	"context"
	"sync"

	"tally/internal/core"
	applog "tally/internal/log"
)

// Publisher is the broker surface the notifier needs.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// Notifier turns ledger snapshots into change messages. It diffs each
// snapshot against the previous length: grow means append, shrink means
// removal. Publish failures are logged and dropped so a broker outage
// never blocks a mutation.
type Notifier struct {
	publisher Publisher
	logger    *applog.Logger

	mu      sync.Mutex
	lastLen int
}

func NewNotifier(publisher Publisher, logger *applog.Logger, initialLen int) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAMQP),
		lastLen:   initialLen,
	}
}

// Observe is wired as a ledger observer. Snapshots may arrive from
// concurrent mutations, so the length diff is taken under a lock.
func (n *Notifier) Observe(items []core.Record) {
	ctx := context.Background()

	n.mu.Lock()
	var msg *ChangeMessage
	switch {
	case len(items) > n.lastLen:
		msg = NewAppendedMessage(items[len(items)-1], len(items))
	case len(items) < n.lastLen:
		msg = NewRemovedMessage(n.lastLen-len(items), len(items))
	}
	n.lastLen = len(items)
	n.mu.Unlock()
	if msg == nil {
		return
	}

	if err := n.publisher.PublishChange(ctx, msg); err != nil {
		n.logger.Error("Failed to publish ledger change",
			applog.FieldError, err,
			"kind", msg.Kind)
	}
}
