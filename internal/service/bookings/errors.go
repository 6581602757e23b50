package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	// (не является ни покупателем, ни продавцом, либо роль не соответствует переходу)
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidStatus возвращается при неизвестном значении статуса
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidTransition возвращается, когда переход запрещен таблицей переходов
	// Сообщение содержит текущий и запрошенный статусы
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCannotAccept возвращается при попытке принять бронирование
	// не в статусе pending
	ErrCannotAccept = errors.New("cannot accept booking")

	// ErrCannotConfirm возвращается при попытке подтвердить завершение
	// бронирования не в статусе delivered
	ErrCannotConfirm = errors.New("cannot confirm booking completion")

	// ErrConcurrentUpdate возвращается, когда статус изменился конкурентно
	// между чтением и условным обновлением
	ErrConcurrentUpdate = errors.New("booking was updated concurrently, retry")

	// ErrReleaseFailed возвращается, когда перевод средств продавцу не удался
	// Бронирование остается в delivered, подтверждение можно повторить
	ErrReleaseFailed = errors.New("failed to release payment")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings service: internal error")
)
