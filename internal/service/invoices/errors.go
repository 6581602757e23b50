package invoices

import "errors"

var (
	// ErrInvoiceExists возвращается, когда счет по этой ссылке шлюза уже создан
	ErrInvoiceExists = errors.New("invoice already exists for this payment reference")

	// ErrInvalidNumber возвращается, когда последний номер счета года
	// не удалось распарсить
	ErrInvalidNumber = errors.New("invalid invoice number in store")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("invoices service: internal error")
)
