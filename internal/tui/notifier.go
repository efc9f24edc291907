package tui

import (
	"context"

	"github.com/xenking/kart-storefront/internal/listing"
)

var _ listing.Notifier = (*Notifier)(nil)

// Notifier delivers blocking error notifications from the controller to the
// event loop, which shows them in a modal dialog.
type Notifier struct {
	ch chan error
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan error, 16)}
}

// NotifyError implements listing.Notifier. It blocks until the event loop
// accepts the error or ctx is done.
func (n *Notifier) NotifyError(ctx context.Context, err error) {
	select {
	case n.ch <- err:
	case <-ctx.Done():
	}
}
