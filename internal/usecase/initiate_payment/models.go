package initiate_payment

import "github.com/google/uuid"

// Request модель запроса на инициацию платежа
// Сумма клиентом не передается: она выводится из цены услуги
type Request struct {
	BookingID uuid.UUID // ID бронирования
	UserID    int64     // ID пользователя из заголовка авторизации
}

// Response модель ответа с данными для оплаты
type Response struct {
	AuthorizationURL string  // Hosted-payment URL шлюза
	Reference        string  // Ссылка транзакции для верификации
	Amount           float64 // Зафиксированная сумма платежа
	Currency         string  // Валюта платежа
}
