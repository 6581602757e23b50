package outbox

import (
	"context"
	"encoding/json"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
)

// ReliableNotifier отправляет уведомление сразу, а при отказе доставки
// ставит его в outbox-очередь на переигрывание
//
// Сохраняет fire-and-forget контракт Send: вызывающая операция никогда
// не проваливается из-за уведомления
type ReliableNotifier struct {
	sender NotificationSender
	tasks  TaskEnqueuer
	logger Logger
}

// NewReliableNotifier создает новый экземпляр уведомителя с очередью повторов
func NewReliableNotifier(sender NotificationSender, tasks TaskEnqueuer, logger Logger) *ReliableNotifier {
	return &ReliableNotifier{
		sender: sender,
		tasks:  tasks,
		logger: logger,
	}
}

// Send отправляет уведомление; отказ доставки ставит задачу в outbox
func (r *ReliableNotifier) Send(ctx context.Context, n notify.Notification) {
	err := r.sender.TrySend(ctx, n)
	if err == nil {
		r.logger.Info("Notify: sent %s for booking=%s user=%d", n.Event, n.BookingID, n.UserID)
		return
	}

	r.logger.Warn("Notify: failed to send %s for booking=%s user=%d, queueing for retry: %v",
		n.Event, n.BookingID, n.UserID, err)

	payload, merr := json.Marshal(n)
	if merr != nil {
		r.logger.Error("Notify: failed to marshal notification for booking=%s: %v", n.BookingID, merr)
		return
	}

	if qerr := r.tasks.Enqueue(ctx, domain.OutboxKindSendNotification, payload); qerr != nil {
		r.logger.Error("Notify: failed to queue %s for booking=%s, notification lost: %v",
			n.Event, n.BookingID, qerr)
	}
}
