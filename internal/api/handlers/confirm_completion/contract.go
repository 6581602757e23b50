package confirm_completion

import (
	"context"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/service/bookings/models"
)

type BookingService interface {
	ConfirmCompletion(ctx context.Context, id uuid.UUID, userID int64) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
