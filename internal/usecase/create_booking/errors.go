package create_booking

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrServiceNotBookable возвращается, когда услуга не верифицирована
	// или не активна
	ErrServiceNotBookable = errors.New("create_booking: service is not verified or not active")

	// ErrOwnService возвращается при попытке забронировать собственную услугу
	ErrOwnService = errors.New("create_booking: cannot book your own service")

	// ErrDuplicateActiveBooking возвращается, когда у покупателя уже есть
	// активное бронирование этой услуги
	ErrDuplicateActiveBooking = errors.New("create_booking: active booking already exists for this service")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("create_booking: invalid booking date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
