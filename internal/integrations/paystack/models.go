package paystack

import "time"

// TransactionStatusSuccess статус успешно подтвержденной транзакции
const TransactionStatusSuccess = "success"

// TransactionMetadata метаданные, прикрепляемые к транзакции при инициализации
// Возвращаются шлюзом в callback и позволяют связать платеж с бронированием
type TransactionMetadata struct {
	BookingID string `json:"booking_id"`
	BuyerID   int64  `json:"buyer_id"`
	ServiceID int64  `json:"service_id"`
}

// InitializeRequest запрос инициализации транзакции
// Amount в минорных единицах валюты (kobo/cents)
type InitializeRequest struct {
	Email       string              `json:"email"`
	Amount      int64               `json:"amount"`
	Currency    string              `json:"currency"`
	CallbackURL string              `json:"callback_url"`
	Metadata    TransactionMetadata `json:"metadata"`
}

// InitializeData данные успешной инициализации
type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyData данные верификации транзакции
type VerifyData struct {
	Status    string              `json:"status"`
	Reference string              `json:"reference"`
	Amount    int64               `json:"amount"`
	Currency  string              `json:"currency"`
	PaidAt    *time.Time          `json:"paid_at"`
	Metadata  TransactionMetadata `json:"metadata"`
}

// IsSuccess returns true if the gateway confirmed the transaction
func (d *VerifyData) IsSuccess() bool {
	return d.Status == TransactionStatusSuccess
}

// TransferRequest запрос на перевод средств (release/refund)
type TransferRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

// TransferData данные созданного перевода
type TransferData struct {
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
	Status       string `json:"status"`
}

// apiResponse envelope всех ответов шлюза
type apiResponse[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
