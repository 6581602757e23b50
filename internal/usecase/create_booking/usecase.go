package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	serviceRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/service"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
)

// UseCase use case создания бронирования (bookNow)
type UseCase struct {
	bookingRepo  BookingRepository
	serviceRepo  ServiceRepository
	txManager    TransactionManager
	notifier     Notifier
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	txManager TransactionManager,
	notifier Notifier,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		serviceRepo:  serviceRepo,
		txManager:    txManager,
		notifier:     notifier,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
//
// Guard уникальности активного бронирования пары (покупатель, услуга)
// выполняется в сериализуемой транзакции с блокировкой строк; частичный
// уникальный индекс в БД закрывает остаточную гонку
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: buyer=%d, service=%d", req.BuyerID, req.ServiceID)

	// 1. Валидация входных данных
	if err := validateRequest(req, uc.timeProvider.Now()); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 3. Бронировать можно только верифицированную активную услугу
	if !service.IsBookable() {
		uc.logger.Warn("CreateBooking: service id=%d is not bookable (verified=%t, active=%t)",
			req.ServiceID, service.IsVerified, service.IsActive)
		return nil, ErrServiceNotBookable
	}

	// 4. Владелец услуги не может забронировать её сам
	if service.UserID == req.BuyerID {
		uc.logger.Warn("CreateBooking: buyer=%d owns service=%d", req.BuyerID, req.ServiceID)
		return nil, ErrOwnService
	}

	var result *domain.Booking

	// 5. Guard + insert в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 5.1. Не более одного активного бронирования на пару (покупатель, услуга)
		active, err := uc.bookingRepo.GetActiveByBuyerAndService(txCtx, req.BuyerID, req.ServiceID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to check active bookings: %v", err)
			return fmt.Errorf("%w: failed to check active bookings: %v", ErrInternal, err)
		}

		if len(active) > 0 {
			uc.logger.Warn("CreateBooking: buyer=%d already has active booking=%s for service=%d",
				req.BuyerID, active[0].ID, req.ServiceID)
			return ErrDuplicateActiveBooking
		}

		// 5.2. Создаем бронирование с денормализацией данных услуги
		booking := &domain.Booking{
			BuyerID:       req.BuyerID,
			SellerID:      service.UserID,
			ServiceID:     req.ServiceID,
			ServiceTitle:  service.Title,
			ScheduledDate: req.Date,
			ScheduledTime: req.StartTime,
			Note:          req.Note,
			Status:        domain.StatusPending,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrDuplicateActiveBooking) {
				return ErrDuplicateActiveBooking
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: created booking=%s for buyer=%d, service=%d",
		result.ID, req.BuyerID, req.ServiceID)

	// 6. Уведомляем продавца (best-effort, вне транзакции)
	uc.notifier.Send(ctx, notify.Notification{
		Event:     notify.EventBookingCreated,
		UserID:    service.UserID,
		BookingID: result.ID.String(),
		Message:   fmt.Sprintf("New booking request for %q", service.Title),
	})

	return &Response{
		ID:           result.ID,
		BuyerID:      result.BuyerID,
		SellerID:     result.SellerID,
		ServiceID:    result.ServiceID,
		ServiceTitle: result.ServiceTitle,
		Date:         result.ScheduledDate,
		StartTime:    result.ScheduledTime,
		Note:         result.Note,
		Status:       string(result.Status),
		CreatedAt:    result.CreatedAt,
		UpdatedAt:    result.UpdatedAt,
	}, nil
}
