package initiate_payment

import (
	initiatePayment "github.com/hustleverse/HV-BookingService/internal/usecase/initiate_payment"
)

// InitiatePaymentResponse HTTP response model
// Тело запроса отсутствует: сумма платежа определяется сервером
type InitiatePaymentResponse struct {
	AuthorizationURL string  `json:"authorizationUrl"`
	Reference        string  `json:"reference"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *initiatePayment.Response) *InitiatePaymentResponse {
	return &InitiatePaymentResponse{
		AuthorizationURL: resp.AuthorizationURL,
		Reference:        resp.Reference,
		Amount:           resp.Amount,
		Currency:         resp.Currency,
	}
}
