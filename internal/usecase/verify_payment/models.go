package verify_payment

import "github.com/google/uuid"

// Request модель запроса на верификацию платежа
type Request struct {
	Reference string // Ссылка транзакции платежного шлюза
}

// Response модель результата верификации
type Response struct {
	Success       bool       // Подтвердил ли шлюз платеж
	BookingID     uuid.UUID  // ID связанного бронирования
	InvoiceID     *uuid.UUID // ID счета (nil, если счет не создан)
	InvoiceNumber *string    // Номер счета (nil, если счет не создан)
	GatewayStatus string     // Статус транзакции в шлюзе
}
