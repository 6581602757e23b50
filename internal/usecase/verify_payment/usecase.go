package verify_payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
	"github.com/hustleverse/HV-BookingService/internal/service/invoices"
)

const (
	verifyLockKeyPrefix = "payment:verify:"
	verifyLockTTL       = 30 * time.Second
)

// UseCase use case верификации платежа по ссылке транзакции шлюза
type UseCase struct {
	bookingRepo BookingRepository
	gateway     GatewayClient
	invoiceSvc  InvoiceService
	txManager   TransactionManager
	notifier    Notifier
	outbox      OutboxEnqueuer
	redisClient *redis.Client
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
// redisClient может быть nil - тогда dedupe-блокировка не используется
func NewUseCase(
	bookingRepo BookingRepository,
	gateway GatewayClient,
	invoiceSvc InvoiceService,
	txManager TransactionManager,
	notifier Notifier,
	outbox OutboxEnqueuer,
	redisClient *redis.Client,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		gateway:     gateway,
		invoiceSvc:  invoiceSvc,
		txManager:   txManager,
		notifier:    notifier,
		outbox:      outbox,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Execute выполняет use case верификации платежа
//
// Верификация идемпотентна: шлюз - источник истины, локальное состояние
// мутируется только после подтверждения. Конкурентные запросы по одной
// ссылке отсекаются redis-блокировкой, гонка MarkPaid безопасна -
// повторная пометка paid по той же ссылке ничего не ломает
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("VerifyPayment: reference=%s", req.Reference)

	if req.Reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	// 1. Dedupe-блокировка на ссылку транзакции
	release, err := uc.acquireLock(ctx, req.Reference)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Спрашиваем шлюз - он источник истины о платеже
	data, err := uc.gateway.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			uc.logger.Warn("VerifyPayment: reference=%s not found in gateway", req.Reference)
			return nil, ErrReferenceNotFound
		}
		uc.logger.Error("VerifyPayment: gateway verify failed for reference=%s: %v", req.Reference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	// 3. Находим связанное бронирование: сперва по метаданным транзакции,
	// затем по сохраненной ссылке
	booking, err := uc.resolveBooking(ctx, data, req.Reference)
	if err != nil {
		return nil, err
	}

	// 4. Неуспешная транзакция - ничего не мутируем
	if !data.IsSuccess() {
		uc.logger.Warn("VerifyPayment: reference=%s has gateway status %q, no state change", req.Reference, data.Status)
		resp := &Response{
			Success:       false,
			GatewayStatus: data.Status,
		}
		if booking != nil {
			resp.BookingID = booking.ID
		}
		return resp, nil
	}

	if booking == nil {
		uc.logger.Error("VerifyPayment: no booking found for successful reference=%s", req.Reference)
		return nil, ErrBookingNotFound
	}

	// 5. Помечаем платеж подтвержденным
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		return uc.bookingRepo.MarkPaid(txCtx, booking.ID, req.Reference)
	})
	if err != nil {
		uc.logger.Error("VerifyPayment: failed to mark booking=%s paid: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to mark booking paid: %v", ErrInternal, err)
	}

	uc.logger.Info("VerifyPayment: booking=%s marked paid, reference=%s", booking.ID, req.Reference)

	// 6. Счет создаем отдельной транзакцией: его отказ не откатывает
	// подтверждение платежа
	invoice := uc.createInvoice(ctx, booking, data, req.Reference)

	// 7. Уведомляем покупателя (best-effort)
	uc.notifier.Send(ctx, notify.Notification{
		Event:     notify.EventPaymentConfirmed,
		UserID:    booking.BuyerID,
		BookingID: booking.ID.String(),
		Message:   fmt.Sprintf("Payment confirmed for %q", booking.ServiceTitle),
	})

	resp := &Response{
		Success:       true,
		BookingID:     booking.ID,
		GatewayStatus: data.Status,
	}
	if invoice != nil {
		resp.InvoiceID = &invoice.ID
		resp.InvoiceNumber = &invoice.Number
	}
	return resp, nil
}

// acquireLock берет redis-блокировку на ссылку транзакции
// Возвращает функцию освобождения; при недоступном redis блокировка
// пропускается - уникальные ограничения БД закрывают остаточную гонку
func (uc *UseCase) acquireLock(ctx context.Context, reference string) (func(), error) {
	if uc.redisClient == nil {
		return func() {}, nil
	}

	key := verifyLockKeyPrefix + reference

	ok, err := uc.redisClient.SetNX(ctx, key, "1", verifyLockTTL).Result()
	if err != nil {
		uc.logger.Warn("VerifyPayment: redis lock unavailable for reference=%s: %v", reference, err)
		return func() {}, nil
	}

	if !ok {
		uc.logger.Warn("VerifyPayment: reference=%s is already being verified", reference)
		return nil, ErrVerificationInProgress
	}

	return func() {
		if err := uc.redisClient.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			uc.logger.Warn("VerifyPayment: failed to release lock for reference=%s: %v", reference, err)
		}
	}, nil
}

// resolveBooking находит бронирование для транзакции
// Отсутствие бронирования - не ошибка: вызывающий решает по статусу транзакции
func (uc *UseCase) resolveBooking(ctx context.Context, data *paystack.VerifyData, reference string) (*domain.Booking, error) {
	if data.Metadata.BookingID != "" {
		id, err := uuid.Parse(data.Metadata.BookingID)
		if err != nil {
			uc.logger.Warn("VerifyPayment: malformed booking id %q in metadata for reference=%s",
				data.Metadata.BookingID, reference)
		} else {
			booking, err := uc.bookingRepo.GetByID(ctx, id)
			if err == nil {
				return booking, nil
			}
			if !errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Error("VerifyPayment: failed to get booking=%s: %v", id, err)
				return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
			}
		}
	}

	booking, err := uc.bookingRepo.GetByPaystackReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, nil
		}
		uc.logger.Error("VerifyPayment: failed to get booking by reference=%s: %v", reference, err)
		return nil, fmt.Errorf("%w: failed to get booking by reference: %v", ErrInternal, err)
	}
	return booking, nil
}

// createInvoice создает счет за подтвержденный платеж
// Отказ создания счета не отменяет подтверждение - возвращается nil
func (uc *UseCase) createInvoice(ctx context.Context, booking *domain.Booking, data *paystack.VerifyData, reference string) *domain.Invoice {
	params := invoices.CreateParams{
		BookingID:         booking.ID,
		BuyerID:           booking.BuyerID,
		ServiceID:         booking.ServiceID,
		Amount:            float64(data.Amount) / domain.MinorUnitsFactor,
		Currency:          data.Currency,
		PaystackReference: reference,
	}

	var invoice *domain.Invoice
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		created, err := uc.invoiceSvc.CreateForPayment(txCtx, params)
		if err != nil {
			return err
		}
		invoice = created
		return nil
	})
	if err == nil {
		return invoice
	}

	if errors.Is(err, invoices.ErrInvoiceExists) {
		existing, gerr := uc.invoiceSvc.GetByReference(ctx, reference)
		if gerr != nil {
			uc.logger.Error("VerifyPayment: failed to load existing invoice for reference=%s: %v", reference, gerr)
			return nil
		}
		return existing
	}

	// Отказ создания счета уходит в outbox: платеж уже подтвержден,
	// счет доделает фоновый диспетчер
	uc.logger.Error("VerifyPayment: failed to create invoice for booking=%s, queueing for retry: %v", booking.ID, err)
	uc.enqueueCreateInvoice(ctx, params)
	return nil
}

// enqueueCreateInvoice ставит создание счета в очередь повторов
func (uc *UseCase) enqueueCreateInvoice(ctx context.Context, params invoices.CreateParams) {
	payload, err := json.Marshal(domain.CreateInvoicePayload{
		BookingID:         params.BookingID,
		BuyerID:           params.BuyerID,
		ServiceID:         params.ServiceID,
		Amount:            params.Amount,
		Currency:          params.Currency,
		PaystackReference: params.PaystackReference,
	})
	if err != nil {
		uc.logger.Error("VerifyPayment: failed to marshal create_invoice payload for booking=%s: %v", params.BookingID, err)
		return
	}

	if err := uc.outbox.Enqueue(ctx, domain.OutboxKindCreateInvoice, payload); err != nil {
		uc.logger.Error("VerifyPayment: failed to queue create_invoice for booking=%s: %v", params.BookingID, err)
	}
}
