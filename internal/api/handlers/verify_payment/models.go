package verify_payment

import (
	"github.com/google/uuid"

	verifyPayment "github.com/hustleverse/HV-BookingService/internal/usecase/verify_payment"
)

// VerifyPaymentResponse HTTP response model
type VerifyPaymentResponse struct {
	Success       bool    `json:"success"`
	BookingID     string  `json:"bookingId,omitempty"`
	InvoiceID     *string `json:"invoiceId,omitempty"`
	InvoiceNumber *string `json:"invoiceNumber,omitempty"`
	GatewayStatus string  `json:"gatewayStatus"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *verifyPayment.Response) *VerifyPaymentResponse {
	out := &VerifyPaymentResponse{
		Success:       resp.Success,
		GatewayStatus: resp.GatewayStatus,
		InvoiceNumber: resp.InvoiceNumber,
	}

	if resp.BookingID != uuid.Nil {
		out.BookingID = resp.BookingID.String()
	}
	if resp.InvoiceID != nil {
		idStr := resp.InvoiceID.String()
		out.InvoiceID = &idStr
	}

	return out
}
