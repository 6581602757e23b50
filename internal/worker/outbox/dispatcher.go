// Package outbox фоновый диспетчер отложенных вторичных записей
//
// Первичные операции (инициация платежа, верификация, уведомления)
// сообщают об успехе даже при отказе вторичной записи; вместо тихой потери
// запись попадает в outbox-очередь и переигрывается отсюда до успеха
// или исчерпания попыток
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/service/invoices"
)

const (
	// claimLease срок аренды забранной задачи: упавший обработчик
	// вернет задачу в очередь по его истечении
	claimLease = 2 * time.Minute

	// baseRetryDelay начальная задержка перед повтором, удваивается
	// с каждой неудачной попыткой
	baseRetryDelay = 30 * time.Second

	// maxRetryDelay потолок задержки между повторами
	maxRetryDelay = 15 * time.Minute
)

// Dispatcher разбирает очередь outbox-задач
type Dispatcher struct {
	tasks        TaskRepository
	bookingRepo  BookingRepository
	invoiceSvc   InvoiceService
	txManager    TransactionManager
	notifier     NotificationSender
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	logger       Logger
}

// NewDispatcher создает новый экземпляр диспетчера outbox
func NewDispatcher(
	tasks TaskRepository,
	bookingRepo BookingRepository,
	invoiceSvc InvoiceService,
	txManager TransactionManager,
	notifier NotificationSender,
	pollInterval time.Duration,
	batchSize int,
	maxAttempts int,
	logger Logger,
) *Dispatcher {
	return &Dispatcher{
		tasks:        tasks,
		bookingRepo:  bookingRepo,
		invoiceSvc:   invoiceSvc,
		txManager:    txManager,
		notifier:     notifier,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Run опрашивает очередь до отмены контекста
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("Outbox: dispatcher started (poll=%s, batch=%d, max_attempts=%d)",
		d.pollInterval, d.batchSize, d.maxAttempts)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox: dispatcher stopped")
			return
		case <-ticker.C:
			d.ProcessDue(ctx)
		}
	}
}

// ProcessDue забирает и выполняет пачку просроченных задач
func (d *Dispatcher) ProcessDue(ctx context.Context) {
	tasks, err := d.tasks.ClaimDue(ctx, d.batchSize, claimLease)
	if err != nil {
		d.logger.Error("Outbox: failed to claim due tasks: %v", err)
		return
	}

	for _, task := range tasks {
		d.process(ctx, task)
	}
}

func (d *Dispatcher) process(ctx context.Context, task *domain.OutboxTask) {
	err := d.handle(ctx, task)
	if err == nil {
		if derr := d.tasks.Delete(ctx, task.ID); derr != nil {
			d.logger.Error("Outbox: failed to delete completed task=%s: %v", task.ID, derr)
		}
		return
	}

	if task.Attempts >= d.maxAttempts {
		// Исчерпали попытки: снимаем задачу и оставляем след для ручной сверки
		d.logger.Error("Outbox: task=%s kind=%s gave up after %d attempts, manual reconciliation required: %v",
			task.ID, task.Kind, task.Attempts, err)
		if derr := d.tasks.Delete(ctx, task.ID); derr != nil {
			d.logger.Error("Outbox: failed to delete exhausted task=%s: %v", task.ID, derr)
		}
		return
	}

	delay := retryDelay(task.Attempts)
	d.logger.Warn("Outbox: task=%s kind=%s attempt %d failed, retrying in %s: %v",
		task.ID, task.Kind, task.Attempts, delay, err)
	if rerr := d.tasks.Reschedule(ctx, task.ID, delay); rerr != nil {
		d.logger.Error("Outbox: failed to reschedule task=%s: %v", task.ID, rerr)
	}
}

// handle выполняет задачу; nil означает, что задачу можно снять с очереди
// (успех либо задача стала неактуальной)
func (d *Dispatcher) handle(ctx context.Context, task *domain.OutboxTask) error {
	switch task.Kind {
	case domain.OutboxKindPersistReference:
		return d.persistReference(ctx, task)
	case domain.OutboxKindCreateInvoice:
		return d.createInvoice(ctx, task)
	case domain.OutboxKindSendNotification:
		return d.sendNotification(ctx, task)
	default:
		d.logger.Error("Outbox: task=%s has unknown kind %q, dropping", task.ID, task.Kind)
		return nil
	}
}

func (d *Dispatcher) persistReference(ctx context.Context, task *domain.OutboxTask) error {
	var p domain.PersistReferencePayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		d.logger.Error("Outbox: task=%s has malformed payload, dropping: %v", task.ID, err)
		return nil
	}

	booking, err := d.bookingRepo.GetByID(ctx, p.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			d.logger.Warn("Outbox: booking=%s for persist_reference not found, dropping task=%s", p.BookingID, task.ID)
			return nil
		}
		return fmt.Errorf("get booking: %w", err)
	}

	// Верификация могла успеть раньше: paid и дальше не откатываем в pending
	if booking.PaymentStatus != domain.PaymentStatusNone && booking.PaymentStatus != domain.PaymentStatusPending {
		d.logger.Info("Outbox: booking=%s already progressed to %s, dropping persist_reference task=%s",
			p.BookingID, booking.PaymentStatus, task.ID)
		return nil
	}

	if err := d.bookingRepo.SetPaymentPending(ctx, p.BookingID, p.Reference); err != nil {
		return fmt.Errorf("set payment pending: %w", err)
	}

	d.logger.Info("Outbox: persisted reference=%s for booking=%s", p.Reference, p.BookingID)
	return nil
}

func (d *Dispatcher) createInvoice(ctx context.Context, task *domain.OutboxTask) error {
	var p domain.CreateInvoicePayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		d.logger.Error("Outbox: task=%s has malformed payload, dropping: %v", task.ID, err)
		return nil
	}

	err := d.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		_, err := d.invoiceSvc.CreateForPayment(txCtx, invoices.CreateParams{
			BookingID:         p.BookingID,
			BuyerID:           p.BuyerID,
			ServiceID:         p.ServiceID,
			Amount:            p.Amount,
			Currency:          p.Currency,
			PaystackReference: p.PaystackReference,
		})
		return err
	})

	if errors.Is(err, invoices.ErrInvoiceExists) {
		// Счет уже создан конкурентной верификацией
		return nil
	}
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	d.logger.Info("Outbox: created invoice for booking=%s, reference=%s", p.BookingID, p.PaystackReference)
	return nil
}

func (d *Dispatcher) sendNotification(ctx context.Context, task *domain.OutboxTask) error {
	var n notify.Notification
	if err := json.Unmarshal(task.Payload, &n); err != nil {
		d.logger.Error("Outbox: task=%s has malformed payload, dropping: %v", task.ID, err)
		return nil
	}

	if err := d.notifier.TrySend(ctx, n); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

// retryDelay экспоненциальная задержка по номеру попытки
func retryDelay(attempts int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
