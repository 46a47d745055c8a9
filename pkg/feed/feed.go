package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quickbite/storefront-api/pkg/messaging"
)

// Change actions
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Change is one row-level mutation pushed to subscribers.
type Change struct {
	Table      string          `json:"table"`
	Action     string          `json:"action"`
	Record     json.RawMessage `json:"record,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Filter selects changes by table, optionally narrowed to rows where
// Column equals Value. A zero Column subscribes to the whole table.
type Filter struct {
	Table  string
	Column string
	Value  string
}

func (f Filter) channel() string {
	if f.Column == "" {
		return fmt.Sprintf("feed.%s", f.Table)
	}
	return fmt.Sprintf("feed.%s.%s.%s", f.Table, f.Column, f.Value)
}

// Feed is a publish/subscribe change feed keyed by (table, predicate),
// carried over the message broker so every API instance sees every
// change regardless of which instance wrote it.
type Feed struct {
	broker messaging.Broker
}

func New(broker messaging.Broker) *Feed {
	return &Feed{broker: broker}
}

// Publish fans a change out to the table-wide channel and, when a
// predicate is given, to the row-scoped channel.
func (f *Feed) Publish(ctx context.Context, filter Filter, change Change) error {
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now()
	}
	if err := f.broker.Publish(ctx, Filter{Table: filter.Table}.channel(), change); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	if filter.Column != "" {
		if err := f.broker.Publish(ctx, filter.channel(), change); err != nil {
			return fmt.Errorf("failed to publish scoped change: %w", err)
		}
	}
	return nil
}

// Subscribe returns a channel of decoded changes matching the filter.
// The channel closes when ctx is cancelled.
func (f *Feed) Subscribe(ctx context.Context, filter Filter) (<-chan Change, error) {
	raw, err := f.broker.Subscribe(ctx, filter.channel())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to change feed: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for payload := range raw {
			var change Change
			if err := json.Unmarshal(payload, &change); err != nil {
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
