package models

import (
	"time"

	"github.com/hustleverse/HV-BookingService/internal/domain"
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID int64   `json:"userId"`
	Role   string  `json:"role"`             // buyer | seller
	Status *string `json:"status,omitempty"` // Фильтр по статусу (опционально)
}

// UpdateStatusRequest запрос на обновление статуса бронирования
type UpdateStatusRequest struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID int64   `json:"userId"`
	Reason *string `json:"reason,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID           string `json:"id"`
	BuyerID      int64  `json:"buyerId"`
	SellerID     int64  `json:"sellerId"`
	ServiceID    int64  `json:"serviceId"`
	ServiceTitle string `json:"serviceTitle"`

	ScheduledDate *string `json:"scheduledDate,omitempty"` // "2025-10-15"
	ScheduledTime *string `json:"scheduledTime,omitempty"` // "10:00"
	Note          *string `json:"note,omitempty"`

	Status string `json:"status"`

	PaymentStatus     *string  `json:"paymentStatus,omitempty"`
	PaymentAmount     *float64 `json:"paymentAmount,omitempty"`
	PaystackReference *string  `json:"paystackReference,omitempty"`
	PaymentCapturedAt *string  `json:"paymentCapturedAt,omitempty"` // ISO 8601
	PaymentReleasedAt *string  `json:"paymentReleasedAt,omitempty"` // ISO 8601

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:            b.ID.String(),
		BuyerID:       b.BuyerID,
		SellerID:      b.SellerID,
		ServiceID:     b.ServiceID,
		ServiceTitle:  b.ServiceTitle,
		Note:          b.Note,
		Status:        string(b.Status),
		PaymentAmount: b.PaymentAmount,

		PaystackReference:  b.PaystackReference,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.ScheduledDate != nil {
		dateStr := b.ScheduledDate.Format(domain.DateFormat)
		resp.ScheduledDate = &dateStr
	}
	if !b.ScheduledTime.IsZero() {
		timeStr := b.ScheduledTime.String()
		resp.ScheduledTime = &timeStr
	}
	if b.PaymentStatus != domain.PaymentStatusNone {
		statusStr := string(b.PaymentStatus)
		resp.PaymentStatus = &statusStr
	}

	resp.PaymentCapturedAt = formatTime(b.PaymentCapturedAt)
	resp.PaymentReleasedAt = formatTime(b.PaymentReleasedAt)
	resp.CancelledAt = formatTime(b.CancelledAt)

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// formatTime конвертирует опциональное время в строку ISO 8601
func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
