package email

import (
	"context"
)

// Sender delivers transactional mail. Delivery is best effort
// everywhere it is used; callers log failures and move on.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
