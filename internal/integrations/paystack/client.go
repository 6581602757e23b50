// Package paystack клиент платежного шлюза
// Конфигурация передается при конструировании - никакого процесс-глобального состояния
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с платежным шлюзом
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента шлюза
func NewClient(baseURL, secretKey string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// InitializeTransaction инициализирует транзакцию и возвращает
// hosted-payment URL и ссылку для последующей верификации
func (c *Client) InitializeTransaction(ctx context.Context, req *InitializeRequest) (*InitializeData, error) {
	var data InitializeData
	if err := c.post(ctx, "/transaction/initialize", req, &data); err != nil {
		return nil, err
	}

	c.log.Info("Paystack: transaction initialized, reference=%s", data.Reference)
	return &data, nil
}

// VerifyTransaction запрашивает у шлюза состояние транзакции по ссылке
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerifyData, error) {
	var data VerifyData
	if err := c.get(ctx, "/transaction/verify/"+reference, &data); err != nil {
		return nil, err
	}

	c.log.Info("Paystack: transaction verified, reference=%s, status=%s", reference, data.Status)
	return &data, nil
}

// CreateTransfer создает перевод средств продавцу (release) или
// обратно покупателю (refund)
func (c *Client) CreateTransfer(ctx context.Context, req *TransferRequest) (*TransferData, error) {
	var data TransferData
	if err := c.post(ctx, "/transfer", req, &data); err != nil {
		return nil, err
	}

	c.log.Info("Paystack: transfer created, code=%s, reference=%s", data.TransferCode, data.Reference)
	return &data, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrGatewayFailure, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusNotFound:
		return ErrTransactionNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrGatewayFailure, resp.StatusCode, string(respBody))
	}

	var envelope apiResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if !envelope.Status {
		return fmt.Errorf("%w: gateway rejected request: %s", ErrGatewayFailure, envelope.Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response data: %v", ErrInvalidResponse, err)
	}

	return nil
}
