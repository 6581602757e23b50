package verify_payment

import "errors"

var (
	// ErrReferenceNotFound возвращается, когда шлюз не знает такую транзакцию
	ErrReferenceNotFound = errors.New("verify_payment: transaction reference not found")

	// ErrBookingNotFound возвращается, когда бронирование для транзакции
	// не удалось найти ни по метаданным, ни по ссылке
	ErrBookingNotFound = errors.New("verify_payment: related booking not found")

	// ErrVerificationInProgress возвращается, когда ту же ссылку
	// конкурентно верифицирует другой запрос
	ErrVerificationInProgress = errors.New("verify_payment: verification already in progress")

	// ErrGatewayFailure возвращается при ошибке платежного шлюза
	ErrGatewayFailure = errors.New("verify_payment: payment gateway failure")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("verify_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("verify_payment: internal error")
)
