package domain

import (
	"time"

	"github.com/google/uuid"
)

// Виды отложенных задач outbox
const (
	// OutboxKindPersistReference досохранение ссылки шлюза на бронировании
	// после успешной инициализации транзакции
	OutboxKindPersistReference = "persist_reference"

	// OutboxKindCreateInvoice создание счета за подтвержденный платеж
	OutboxKindCreateInvoice = "create_invoice"

	// OutboxKindSendNotification доставка email-уведомления
	OutboxKindSendNotification = "send_notification"
)

// OutboxTask отложенная вторичная запись
//
// Первичная операция (инициация платежа, верификация, переход статуса)
// сообщает об успехе даже если вторичная запись не прошла; вместо потери
// записи задача попадает в outbox и переигрывается диспетчером до успеха
// или исчерпания попыток
type OutboxTask struct {
	ID            uuid.UUID
	Kind          string
	Payload       []byte
	Attempts      int
	NextAttemptAt time.Time
	CreatedAt     time.Time
}

// PersistReferencePayload полезная нагрузка задачи persist_reference
type PersistReferencePayload struct {
	BookingID uuid.UUID `json:"booking_id"`
	Reference string    `json:"reference"`
}

// CreateInvoicePayload полезная нагрузка задачи create_invoice
type CreateInvoicePayload struct {
	BookingID         uuid.UUID `json:"booking_id"`
	BuyerID           int64     `json:"buyer_id"`
	ServiceID         int64     `json:"service_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	PaystackReference string    `json:"paystack_reference"`
}
