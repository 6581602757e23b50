package initiate_payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/identity"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	SetPaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error
	SetPaymentPending(ctx context.Context, id uuid.UUID, reference string) error
}

// ServiceRepository интерфейс репозитория услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// GatewayClient интерфейс клиента платежного шлюза
type GatewayClient interface {
	InitializeTransaction(ctx context.Context, req *paystack.InitializeRequest) (*paystack.InitializeData, error)
}

// IdentityClient интерфейс клиента сервиса пользователей
type IdentityClient interface {
	GetUser(ctx context.Context, userID int64) (*identity.User, error)
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
