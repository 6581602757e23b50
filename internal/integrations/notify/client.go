// Package notify fire-and-forget клиент сервиса email-уведомлений
// Ошибки уведомлений никогда не проваливают вызвавшую операцию:
// они понижаются до записи в лог для последующего разбора оператором
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotifyFailed возвращается TrySend при отказе доставки
var ErrNotifyFailed = errors.New("notify client: failed to send notification")

// Событийные типы уведомлений
const (
	EventBookingCreated   = "booking_created"
	EventBookingAccepted  = "booking_accepted"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventPaymentConfirmed = "payment_confirmed"
)

// Notification полезная нагрузка уведомления
type Notification struct {
	Event     string `json:"event"`
	UserID    int64  `json:"user_id"`
	BookingID string `json:"booking_id"`
	Message   string `json:"message"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса уведомлений
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента уведомлений
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Send отправляет уведомление best-effort: любая ошибка логируется
// на уровне ERROR и не возвращается вызывающему
func (c *Client) Send(ctx context.Context, n Notification) {
	if err := c.TrySend(ctx, n); err != nil {
		c.log.Error("Notify: failed to send %s for booking=%s user=%d: %v",
			n.Event, n.BookingID, n.UserID, err)
		return
	}
	c.log.Info("Notify: sent %s for booking=%s user=%d", n.Event, n.BookingID, n.UserID)
}

// TrySend отправляет уведомление и возвращает ошибку доставки вызывающему
// Используется диспетчером outbox, которому нужен результат для retry
func (c *Client) TrySend(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", ErrNotifyFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/notifications", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrNotifyFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: execute request: %v", ErrNotifyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: unexpected status code %d", ErrNotifyFailed, resp.StatusCode)
	}

	return nil
}
