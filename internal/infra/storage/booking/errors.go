package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrDuplicateActiveBooking возвращается при нарушении уникальности
	// активного бронирования для пары (покупатель, услуга)
	ErrDuplicateActiveBooking = errors.New("booking.repository: active booking already exists for this buyer and service")

	// ErrStatusConflict возвращается, когда условное обновление статуса не прошло:
	// текущий статус в БД уже не совпадает с ожидаемым
	ErrStatusConflict = errors.New("booking.repository: booking status changed concurrently")

	// ErrPaymentAmountAlreadySet возвращается при попытке перезаписать
	// уже зафиксированную сумму платежа
	ErrPaymentAmountAlreadySet = errors.New("booking.repository: payment amount already set")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
