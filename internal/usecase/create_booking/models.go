package create_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/pkg/types"
)

// Request модель запроса на создание бронирования
// Date и StartTime оба пустые = instant booking
type Request struct {
	BuyerID   int64            // ID покупателя
	ServiceID int64            // ID услуги
	Date      *time.Time       // Дата оказания услуги (опционально)
	StartTime types.TimeString // Время начала (опционально, например "10:00")
	Note      *string          // Заметка для продавца (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID           uuid.UUID // ID созданного бронирования
	BuyerID      int64     // ID покупателя
	SellerID     int64     // ID продавца (владельца услуги)
	ServiceID    int64     // ID услуги
	ServiceTitle string    // Название услуги

	Date      *time.Time       // Дата оказания услуги
	StartTime types.TimeString // Время начала
	Note      *string          // Заметка

	Status string // Статус бронирования (pending)

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
