package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
)

// GatewayClient интерфейс клиента платежного шлюза
type GatewayClient interface {
	CreateTransfer(ctx context.Context, req *paystack.TransferRequest) (*paystack.TransferData, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
