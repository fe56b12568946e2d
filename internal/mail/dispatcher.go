package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/shop"
)

var (
	// ErrQueueFull is returned when the send queue has no room.
	ErrQueueFull = errors.New("mail queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("mail dispatcher closed")
)

const sendTimeout = 15 * time.Second

// Dispatcher renders receipts and sends them from a background worker, so
// a slow or failing mail API never holds up a purchase response.
type Dispatcher struct {
	sender Sender
	from   string
	log    *logger.Logger

	mu      sync.Mutex
	closed  bool
	pending chan Message
	done    chan struct{}
}

// NewDispatcher starts a worker that sends through sender. queueSize bounds
// the number of receipts waiting to be sent.
func NewDispatcher(sender Sender, from string, queueSize int, log *logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		sender:  sender,
		from:    from,
		log:     log,
		pending: make(chan Message, queueSize),
		done:    make(chan struct{}),
	}
	go d.processLoop()
	return d
}

// SendReceipt queues the receipt email for r. It implements shop.ReceiptSender.
func (d *Dispatcher) SendReceipt(_ context.Context, r shop.Receipt) error {
	msg, err := RenderReceipt(d.from, r)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.pending <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) processLoop() {
	defer close(d.done)
	for msg := range d.pending {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Warn("receipt email failed", "email", msg.To, "error", err)
		} else {
			d.log.Info("receipt email sent", "email", msg.To)
		}
		cancel()
	}
}

// Close stops accepting receipts and waits for queued ones to be sent or
// for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.pending)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
