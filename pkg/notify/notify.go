package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderCancelled     EventType = "order.cancelled"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventShipmentUpdated    EventType = "shipment.updated"
)

type Event struct {
	Type        EventType
	OrderID     string
	OrderNumber string
	UserID      string
	Recipient   string
	Status      string
	OccurredAt  time.Time
}

// Message renders the customer-facing text for the event.
func (e Event) Message() string {
	switch e.Type {
	case EventOrderPlaced:
		return fmt.Sprintf("Thank you! Your order #%s has been placed.", e.OrderNumber)
	case EventOrderCancelled:
		return fmt.Sprintf("Your order #%s has been cancelled.", e.OrderNumber)
	case EventOrderStatusChanged:
		return fmt.Sprintf("Your order #%s is now %s.", e.OrderNumber, e.Status)
	case EventShipmentUpdated:
		return fmt.Sprintf("Shipment for order #%s: %s.", e.OrderNumber, e.Status)
	}
	return fmt.Sprintf("Update for order #%s.", e.OrderNumber)
}

// Notifier is fire-and-forget: implementations must not block the caller
// and never report delivery failures.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

// ActorNotifier hands events to a NotificationActor running in its own
// actor system.
type ActorNotifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewActorNotifier(logger *zap.Logger) (*ActorNotifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return newNotificationActor(logger.Named("notification-actor"))
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &ActorNotifier{system: system, pid: pid, logger: logger}, nil
}

func (n *ActorNotifier) Notify(_ context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	n.system.Root.Send(n.pid, &SendNotification{Event: ev})
}

// Stats returns the actor's delivery counters once every earlier event has
// been processed.
func (n *ActorNotifier) Stats(timeout time.Duration) (*Stats, error) {
	res, err := n.system.Root.RequestFuture(n.pid, &GetStats{}, timeout).Result()
	if err != nil {
		return nil, err
	}
	stats, ok := res.(*Stats)
	if !ok {
		return nil, fmt.Errorf("unexpected response %T", res)
	}
	return stats, nil
}

// Close drains the mailbox and stops the actor.
func (n *ActorNotifier) Close() error {
	if err := n.system.Root.PoisonFuture(n.pid).Wait(); err != nil {
		n.logger.Warn("Notification actor did not stop cleanly", zap.Error(err))
		return err
	}
	return nil
}
