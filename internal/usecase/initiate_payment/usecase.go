package initiate_payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	serviceRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/service"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
)

// UseCase use case инициации платежа за бронирование
type UseCase struct {
	bookingRepo BookingRepository
	serviceRepo ServiceRepository
	gateway     GatewayClient
	identity    IdentityClient
	outbox      OutboxEnqueuer
	currency    string
	callbackURL string
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	gateway GatewayClient,
	identity IdentityClient,
	outbox OutboxEnqueuer,
	currency string,
	callbackURL string,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		gateway:     gateway,
		identity:    identity,
		outbox:      outbox,
		currency:    currency,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// Execute выполняет use case инициации платежа
//
// Сумма фиксируется first-write-wins: повторная инициация использует
// ранее зафиксированную сумму, даже если цена услуги изменилась
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("InitiatePayment: booking=%s, user=%d", req.BookingID, req.UserID)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("InitiatePayment: validation failed: %v", err)
		return nil, err
	}

	// 1. Получаем бронирование
	booking, err := uc.getBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	// 2. Платеж инициирует только покупатель
	if booking.BuyerID != req.UserID {
		uc.logger.Warn("InitiatePayment: user=%d is not the buyer of booking=%s", req.UserID, booking.ID)
		return nil, ErrAccessDenied
	}

	// 3. Guard повторной оплаты - до любых обращений к шлюзу
	if booking.IsPaid() {
		uc.logger.Warn("InitiatePayment: booking=%s is already paid", booking.ID)
		return nil, ErrAlreadyPaid
	}

	if booking.Status == domain.StatusCancelled {
		uc.logger.Warn("InitiatePayment: booking=%s is cancelled", booking.ID)
		return nil, fmt.Errorf("%w: booking is cancelled", ErrInvalidInput)
	}

	// 4. Разрешаем и фиксируем сумму платежа
	amount, err := uc.resolveAmount(ctx, booking)
	if err != nil {
		return nil, err
	}

	// 5. Email покупателя для hosted-payment страницы
	buyer, err := uc.identity.GetUser(ctx, booking.BuyerID)
	if err != nil {
		uc.logger.Error("InitiatePayment: failed to get buyer=%d: %v", booking.BuyerID, err)
		return nil, fmt.Errorf("%w: failed to get buyer profile: %v", ErrInternal, err)
	}

	// 6. Инициализируем транзакцию в шлюзе
	data, err := uc.gateway.InitializeTransaction(ctx, &paystack.InitializeRequest{
		Email:       buyer.Email,
		Amount:      toMinorUnits(amount),
		Currency:    uc.currency,
		CallbackURL: uc.callbackURL,
		Metadata: paystack.TransactionMetadata{
			BookingID: booking.ID.String(),
			BuyerID:   booking.BuyerID,
			ServiceID: booking.ServiceID,
		},
	})
	if err != nil {
		uc.logger.Error("InitiatePayment: gateway initialize failed for booking=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	// 7. Сохраняем ссылку транзакции best-effort: верификация умеет
	// находить бронирование по метаданным транзакции. Неудавшаяся запись
	// уходит в outbox на переигрывание
	if err := uc.bookingRepo.SetPaymentPending(ctx, booking.ID, data.Reference); err != nil {
		uc.logger.Error("InitiatePayment: failed to save reference=%s for booking=%s, queueing for retry: %v",
			data.Reference, booking.ID, err)
		uc.enqueuePersistReference(ctx, booking.ID, data.Reference)
	}

	uc.logger.Info("InitiatePayment: initialized booking=%s, reference=%s, amount=%.2f %s",
		booking.ID, data.Reference, amount, uc.currency)

	return &Response{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
		Amount:           amount,
		Currency:         uc.currency,
	}, nil
}

// resolveAmount возвращает зафиксированную сумму платежа
//
// Сумма не принимается от клиента: используется ранее зафиксированная
// сумма, иначе текущая цена услуги. Первая успешная запись выигрывает,
// проигравший перечитывает бронирование
func (uc *UseCase) resolveAmount(ctx context.Context, booking *domain.Booking) (float64, error) {
	if booking.PaymentAmount != nil {
		return *booking.PaymentAmount, nil
	}

	service, err := uc.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Error("InitiatePayment: service=%d for booking=%s not found", booking.ServiceID, booking.ID)
			return 0, fmt.Errorf("%w: service not found", ErrInternal)
		}
		uc.logger.Error("InitiatePayment: failed to get service=%d: %v", booking.ServiceID, err)
		return 0, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	amount := service.Price

	if amount < domain.MinPaymentAmount {
		uc.logger.Warn("InitiatePayment: amount %.2f below minimum for booking=%s", amount, booking.ID)
		return 0, fmt.Errorf("%w: amount must be at least %.2f", ErrInvalidAmount, domain.MinPaymentAmount)
	}

	err = uc.bookingRepo.SetPaymentAmount(ctx, booking.ID, amount)
	if err == nil {
		return amount, nil
	}

	if errors.Is(err, bookingRepo.ErrPaymentAmountAlreadySet) {
		// Конкурентная инициация уже зафиксировала сумму - используем её
		current, gerr := uc.getBooking(ctx, booking.ID)
		if gerr != nil {
			return 0, gerr
		}
		if current.PaymentAmount == nil {
			return 0, fmt.Errorf("%w: payment amount is not set after conflict", ErrInternal)
		}
		uc.logger.Info("InitiatePayment: booking=%s amount already fixed at %.2f", booking.ID, *current.PaymentAmount)
		return *current.PaymentAmount, nil
	}

	uc.logger.Error("InitiatePayment: failed to set amount for booking=%s: %v", booking.ID, err)
	return 0, fmt.Errorf("%w: failed to set payment amount: %v", ErrInternal, err)
}

// enqueuePersistReference ставит досохранение ссылки в очередь повторов
// Отказ самой очереди понижается до записи в лог - ссылка остается
// восстановимой через метаданные транзакции при верификации
func (uc *UseCase) enqueuePersistReference(ctx context.Context, bookingID uuid.UUID, reference string) {
	payload, err := json.Marshal(domain.PersistReferencePayload{
		BookingID: bookingID,
		Reference: reference,
	})
	if err != nil {
		uc.logger.Error("InitiatePayment: failed to marshal persist_reference payload for booking=%s: %v", bookingID, err)
		return
	}

	if err := uc.outbox.Enqueue(ctx, domain.OutboxKindPersistReference, payload); err != nil {
		uc.logger.Error("InitiatePayment: failed to queue persist_reference for booking=%s: %v", bookingID, err)
	}
}

func (uc *UseCase) getBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("InitiatePayment: booking=%s not found", id)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("InitiatePayment: failed to get booking=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	return booking, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(amount*domain.MinorUnitsFactor + 0.5)
}
