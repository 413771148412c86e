package notify

import (
	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// SendNotification asks the notification actor to deliver an event.
type SendNotification struct {
	Event Event
}

type NotificationResponse struct {
	Success bool
	Message string
}

// GetStats asks the actor how many notifications it has delivered.
type GetStats struct{}

type Stats struct {
	Sent   int
	ByType map[EventType]int
}

// NotificationActor delivers order lifecycle messages to customers. Delivery
// is currently a structured log line per message.
type NotificationActor struct {
	logger *zap.Logger
	sent   int
	byType map[EventType]int
}

func newNotificationActor(logger *zap.Logger) actor.Actor {
	return &NotificationActor{logger: logger, byType: make(map[EventType]int)}
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *SendNotification:
		ev := msg.Event
		a.logger.Info("Sending notification",
			zap.String("type", string(ev.Type)),
			zap.String("recipient", ev.Recipient),
			zap.String("order_number", ev.OrderNumber),
			zap.String("message", ev.Message()))
		a.sent++
		a.byType[ev.Type]++

		if ctx.Sender() != nil {
			ctx.Respond(&NotificationResponse{Success: true, Message: "Notification sent successfully"})
		}

	case *GetStats:
		byType := make(map[EventType]int, len(a.byType))
		for k, v := range a.byType {
			byType[k] = v
		}
		ctx.Respond(&Stats{Sent: a.sent, ByType: byType})

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped", zap.Int("sent", a.sent))
	}
}
