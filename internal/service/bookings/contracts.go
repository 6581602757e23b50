package bookings

import (
	"context"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByUser(ctx context.Context, userID int64, role domain.Role, status *domain.BookingStatus) ([]*domain.Booking, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target domain.BookingStatus) error
	CompleteWithRelease(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID, expected domain.BookingStatus, reason *string) error
}

// PaymentService интерфейс платежных операций, вызываемых state machine
type PaymentService interface {
	Release(ctx context.Context, booking *domain.Booking) error
	Refund(ctx context.Context, booking *domain.Booking) error
}

// Notifier интерфейс fire-and-forget уведомлений
type Notifier interface {
	Send(ctx context.Context, n notify.Notification)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
