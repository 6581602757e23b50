package create_booking

import (
	"time"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	createBooking "github.com/hustleverse/HV-BookingService/internal/usecase/create_booking"
	"github.com/hustleverse/HV-BookingService/pkg/types"
)

// CreateBookingRequest HTTP request model
// date и startTime опциональны - без них бронирование мгновенное
type CreateBookingRequest struct {
	ServiceID int64   `json:"serviceId"`
	Date      *string `json:"date,omitempty"`      // "2025-10-15"
	StartTime *string `json:"startTime,omitempty"` // "10:00"
	Note      *string `json:"note,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID           string  `json:"id"`
	BuyerID      int64   `json:"buyerId"`
	SellerID     int64   `json:"sellerId"`
	ServiceID    int64   `json:"serviceId"`
	ServiceTitle string  `json:"serviceTitle"`
	Date         *string `json:"date,omitempty"`
	StartTime    *string `json:"startTime,omitempty"`
	Note         *string `json:"note,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(buyerID int64) (*createBooking.Request, error) {
	req := &createBooking.Request{
		BuyerID:   buyerID,
		ServiceID: r.ServiceID,
		Note:      r.Note,
	}

	if r.Date != nil {
		date, err := time.Parse(domain.DateFormat, *r.Date)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	}

	if r.StartTime != nil {
		startTime, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, err
		}
		req.StartTime = startTime
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:           resp.ID.String(),
		BuyerID:      resp.BuyerID,
		SellerID:     resp.SellerID,
		ServiceID:    resp.ServiceID,
		ServiceTitle: resp.ServiceTitle,
		Note:         resp.Note,
		Status:       resp.Status,
		CreatedAt:    resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    resp.UpdatedAt.Format(time.RFC3339),
	}

	if resp.Date != nil {
		dateStr := resp.Date.Format(domain.DateFormat)
		out.Date = &dateStr
	}
	if !resp.StartTime.IsZero() {
		timeStr := resp.StartTime.String()
		out.StartTime = &timeStr
	}

	return out
}
