package domain

// Business validation constants
const (
	MaxNoteLength               = 500
	MaxCancellationReasonLength = 500

	// Минимальная сумма платежа в основных единицах валюты
	MinPaymentAmount = 1.0

	// Множитель перевода суммы в минорные единицы шлюза (kobo/cents)
	MinorUnitsFactor = 100
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, занимающие активный слот пары (покупатель, услуга)
// Используются в guard-проверке перед созданием бронирования
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusInProgress,
}

// TerminalStatuses терминальные статусы - дальнейшие переходы запрещены
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
}
