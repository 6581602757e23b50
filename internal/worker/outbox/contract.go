package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/service/invoices"
)

// TaskRepository интерфейс хранилища задач outbox
type TaskRepository interface {
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, delay time.Duration) error
}

// TaskEnqueuer интерфейс постановки задач в очередь
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, kind string, payload []byte) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	SetPaymentPending(ctx context.Context, id uuid.UUID, reference string) error
}

// InvoiceService интерфейс сервиса счетов
type InvoiceService interface {
	CreateForPayment(ctx context.Context, params invoices.CreateParams) (*domain.Invoice, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// NotificationSender интерфейс отправки уведомлений с результатом доставки
type NotificationSender interface {
	TrySend(ctx context.Context, n notify.Notification) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
