package verify_payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
	"github.com/hustleverse/HV-BookingService/internal/service/invoices"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByPaystackReference(ctx context.Context, reference string) (*domain.Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID, reference string) error
}

// GatewayClient интерфейс клиента платежного шлюза
type GatewayClient interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyData, error)
}

// InvoiceService интерфейс сервиса счетов
type InvoiceService interface {
	CreateForPayment(ctx context.Context, params invoices.CreateParams) (*domain.Invoice, error)
	GetByReference(ctx context.Context, reference string) (*domain.Invoice, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier интерфейс fire-and-forget уведомлений
type Notifier interface {
	Send(ctx context.Context, n notify.Notification)
}

// OutboxEnqueuer интерфейс постановки отложенных задач в очередь повторов
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, kind string, payload []byte) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
