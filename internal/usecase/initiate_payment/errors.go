package initiate_payment

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("initiate_payment: booking not found")

	// ErrAccessDenied возвращается, когда платеж инициирует не покупатель
	ErrAccessDenied = errors.New("initiate_payment: only the buyer can initiate payment")

	// ErrAlreadyPaid возвращается, когда бронирование уже оплачено
	ErrAlreadyPaid = errors.New("initiate_payment: booking is already paid")

	// ErrInvalidAmount возвращается, когда сумма платежа меньше минимальной
	ErrInvalidAmount = errors.New("initiate_payment: invalid payment amount")

	// ErrGatewayFailure возвращается при ошибке платежного шлюза
	ErrGatewayFailure = errors.New("initiate_payment: payment gateway failure")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("initiate_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("initiate_payment: internal error")
)
