package paystack

import "errors"

var (
	// ErrGatewayFailure возвращается, когда шлюз недоступен или ответил ошибкой
	// Локальное состояние при этой ошибке не меняется - операция безопасно повторяема
	ErrGatewayFailure = errors.New("paystack client: gateway request failed")

	// ErrTransactionNotFound возвращается, когда транзакция с такой ссылкой
	// шлюзу не известна
	ErrTransactionNotFound = errors.New("paystack client: transaction not found")

	// ErrInvalidResponse возвращается при некорректном ответе шлюза
	ErrInvalidResponse = errors.New("paystack client: invalid response")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paystack client: internal error")
)
