package payments

import "errors"

var (
	// ErrReleaseFailed возвращается, когда перевод средств продавцу не удался
	// Бронирование при этом остается в delivered - подтверждение повторяемо
	ErrReleaseFailed = errors.New("payments service: failed to release funds")

	// ErrRefundFailed возвращается, когда возврат средств покупателю не удался
	ErrRefundFailed = errors.New("payments service: failed to refund payment")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("payments service: internal error")
)
