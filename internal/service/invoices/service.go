// Package invoices генерация счетов с последовательной нумерацией в пределах года
package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	invoiceRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/invoice"
)

// Service сервис для работы со счетами
type Service struct {
	invoiceRepo  InvoiceRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса счетов
func NewService(invoiceRepo InvoiceRepository, logger Logger) *Service {
	return &Service{
		invoiceRepo:  invoiceRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// CreateParams параметры создания счета
type CreateParams struct {
	BookingID         uuid.UUID
	BuyerID           int64
	ServiceID         int64
	Amount            float64
	Currency          string
	PaystackReference string
}

// NextNumber вычисляет следующий номер счета для указанного года:
// читает последний выданный номер (ordered/limited запрос), парсит
// 4-значный хвост и инкрементирует. Без счетов за год начинает с 0001.
//
// Вызывается внутри сериализуемой транзакции верификации платежа;
// уникальное ограничение на invoice_number страхует от дубликатов
func (s *Service) NextNumber(ctx context.Context, year int) (string, error) {
	latest, err := s.invoiceRepo.GetLatestNumberForYear(ctx, year)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			return domain.FormatInvoiceNumber(year, 1), nil
		}
		return "", fmt.Errorf("%w: NextNumber - repository error: %v", ErrInternal, err)
	}

	seq, ok := domain.ParseInvoiceSeq(latest, year)
	if !ok {
		s.logger.Error("NextNumber: malformed invoice number %q for year %d", latest, year)
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, latest)
	}

	return domain.FormatInvoiceNumber(year, seq+1), nil
}

// CreateForPayment создает счет для успешно верифицированного платежа
// Не более одного счета на ссылку транзакции шлюза
func (s *Service) CreateForPayment(ctx context.Context, params CreateParams) (*domain.Invoice, error) {
	year := s.timeProvider.Now().Year()

	number, err := s.NextNumber(ctx, year)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		Number:            number,
		BookingID:         params.BookingID,
		BuyerID:           params.BuyerID,
		ServiceID:         params.ServiceID,
		Amount:            params.Amount,
		Currency:          params.Currency,
		PaystackReference: params.PaystackReference,
	}

	created, err := s.invoiceRepo.Create(ctx, inv)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrDuplicateInvoice) {
			s.logger.Warn("CreateForPayment: invoice already exists for reference=%s", params.PaystackReference)
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("%w: CreateForPayment - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateForPayment: created invoice %s for booking=%s, reference=%s",
		created.Number, params.BookingID, params.PaystackReference)

	return created, nil
}

// GetByReference возвращает счет по ссылке транзакции шлюза
func (s *Service) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	inv, err := s.invoiceRepo.GetByPaystackReference(ctx, reference)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: GetByReference - repository error: %v", ErrInternal, err)
	}
	return inv, nil
}
