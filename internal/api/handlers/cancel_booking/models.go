package cancel_booking

// CancelBookingRequest HTTP request model
// Тело опционально - отмена без причины допустима
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}
