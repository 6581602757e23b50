package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusAccepted   BookingStatus = "accepted"
	StatusInProgress BookingStatus = "in_progress"
	StatusDelivered  BookingStatus = "delivered"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// PaymentStatus represents the payment state of a booking
// Empty string means payment has not been initiated yet
type PaymentStatus string

const (
	PaymentStatusNone     PaymentStatus = ""
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusInEscrow PaymentStatus = "in_escrow"
	PaymentStatusReleased PaymentStatus = "released"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Role роль пользователя по отношению к бронированию
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleNone   Role = ""
)

// Booking represents a buyer's request to receive a service from a seller
type Booking struct {
	ID        uuid.UUID
	BuyerID   int64
	SellerID  int64 // Денормализованный владелец услуги для проверок доступа
	ServiceID int64

	// Denormalized data for history
	ServiceTitle string

	// Дата и время оказания услуги; оба пустые = instant booking
	ScheduledDate *time.Time
	ScheduledTime types.TimeString
	Note          *string

	Status BookingStatus

	// Платежные атрибуты
	PaymentStatus     PaymentStatus
	PaymentAmount     *float64 // Фиксируется системой при инициации платежа, далее неизменяем
	PaystackReference *string
	PaymentCapturedAt *time.Time
	PaymentReleasedAt *time.Time

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if no further transitions are permitted
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// IsActive returns true if the booking occupies the buyer's active slot
// for its service (pending, accepted or in_progress)
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending ||
		b.Status == StatusAccepted ||
		b.Status == StatusInProgress
}

// IsInstant returns true if the booking has no scheduled date and time
func (b *Booking) IsInstant() bool {
	return b.ScheduledDate == nil && b.ScheduledTime.IsZero()
}

// IsPaid returns true if the payment has been confirmed by the gateway
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid ||
		b.PaymentStatus == PaymentStatusReleased
}

// RoleOf возвращает роль пользователя по отношению к бронированию
func (b *Booking) RoleOf(userID int64) Role {
	switch userID {
	case b.BuyerID:
		return RoleBuyer
	case b.SellerID:
		return RoleSeller
	default:
		return RoleNone
	}
}
