// Package bookings state machine жизненного цикла бронирования
//
// Переходы: pending -> accepted -> in_progress -> delivered -> completed,
// cancelled достижим из pending/accepted (обеими сторонами) и из
// in_progress/delivered (только продавцом). completed и cancelled терминальны.
// Переход delivered -> completed, инициированный покупателем, запускает
// release удержанных средств продавцу
package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/service/bookings/models"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	bookingRepo BookingRepository
	payments    PaymentService
	notifier    Notifier
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	payments PaymentService,
	notifier Notifier,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		payments:    payments,
		notifier:    notifier,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Доступно только покупателю или продавцу этого бронирования
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, userID int64) (*models.BookingResponse, error) {
	booking, err := s.loadBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.RoleOf(userID) == domain.RoleNone {
		s.logger.Warn("GetByID: access denied for user=%d to booking=%s", userID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает бронирования пользователя в роли покупателя или продавца
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	var role domain.Role
	switch req.Role {
	case string(domain.RoleBuyer):
		role = domain.RoleBuyer
	case string(domain.RoleSeller):
		role = domain.RoleSeller
	default:
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, domain.RoleBuyer, domain.RoleSeller)
	}

	var status *domain.BookingStatus
	if req.Status != nil {
		parsed, ok := domain.ToBookingStatus(*req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		status = &parsed
	}

	bookings, err := s.bookingRepo.GetByUser(ctx, req.UserID, role, status)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: fetched %d bookings for user=%d role=%s", len(bookings), req.UserID, role)
	return models.FromDomainBookingList(bookings), nil
}

// Accept принимает бронирование продавцом (pending -> accepted)
// Fail-fast: бронирование не в pending отклоняется с указанием текущего статуса
func (s *Service) Accept(ctx context.Context, id uuid.UUID, userID int64) (*models.BookingResponse, error) {
	booking, err := s.loadBooking(ctx, "Accept", id)
	if err != nil {
		return nil, err
	}

	role := booking.RoleOf(userID)
	if role != domain.RoleSeller {
		s.logger.Warn("Accept: user=%d is not the seller of booking=%s", userID, id)
		return nil, ErrAccessDenied
	}

	if booking.Status != domain.StatusPending {
		s.logger.Warn("Accept: booking=%s has status=%s, expected pending", id, booking.Status)
		return nil, fmt.Errorf("%w with status %q", ErrCannotAccept, booking.Status)
	}

	if err := s.bookingRepo.UpdateStatusFrom(ctx, id, domain.StatusPending, domain.StatusAccepted); err != nil {
		return nil, s.mapUpdateError("Accept", id, err)
	}

	s.logger.Info("Accept: booking=%s accepted by seller=%d", id, userID)

	s.notifier.Send(ctx, notify.Notification{
		Event:     notify.EventBookingAccepted,
		UserID:    booking.BuyerID,
		BookingID: id.String(),
		Message:   fmt.Sprintf("Your booking for %q was accepted", booking.ServiceTitle),
	})

	booking.Status = domain.StatusAccepted
	return models.FromDomainBooking(booking), nil
}

// UpdateStatus выполняет переход статуса по таблице переходов
// Ошибки различаются: неизвестный статус (валидация), запрещенный переход
// (конфликт с указанием текущего и запрошенного статусов), неподходящая роль
// (авторизация). Переход в completed делегируется ConfirmCompletion-логике
// и запускает release
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	target, ok := domain.ToBookingStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	booking, err := s.loadBooking(ctx, "UpdateStatus", id)
	if err != nil {
		return nil, err
	}

	role := booking.RoleOf(req.UserID)
	if role == domain.RoleNone {
		s.logger.Warn("UpdateStatus: user=%d is neither buyer nor seller of booking=%s", req.UserID, id)
		return nil, ErrAccessDenied
	}

	if err := s.validateTransition(booking, target, role); err != nil {
		return nil, err
	}

	switch target {
	case domain.StatusCompleted:
		// Единственный путь в completed: delivered -> completed покупателем,
		// с синхронным release в рамках этого же запроса
		return s.completeWithRelease(ctx, booking)

	case domain.StatusCancelled:
		return s.cancel(ctx, booking, req.UserID, nil)

	default:
		if err := s.bookingRepo.UpdateStatusFrom(ctx, id, booking.Status, target); err != nil {
			return nil, s.mapUpdateError("UpdateStatus", id, err)
		}

		s.logger.Info("UpdateStatus: booking=%s moved %s -> %s by user=%d (role=%s)",
			id, booking.Status, target, req.UserID, role)

		booking.Status = target
		return models.FromDomainBooking(booking), nil
	}
}

// ConfirmCompletion подтверждает завершение бронирования покупателем
// (delivered -> completed) и запускает release удержанных средств.
// Fail-fast: бронирование не в delivered отклоняется с указанием статуса
func (s *Service) ConfirmCompletion(ctx context.Context, id uuid.UUID, userID int64) (*models.BookingResponse, error) {
	booking, err := s.loadBooking(ctx, "ConfirmCompletion", id)
	if err != nil {
		return nil, err
	}

	// Только покупатель может подтвердить завершение
	role := booking.RoleOf(userID)
	if role != domain.RoleBuyer {
		s.logger.Warn("ConfirmCompletion: user=%d (role=%s) may not confirm booking=%s", userID, role, id)
		return nil, ErrAccessDenied
	}

	if booking.Status != domain.StatusDelivered {
		s.logger.Warn("ConfirmCompletion: booking=%s has status=%s, expected delivered", id, booking.Status)
		return nil, fmt.Errorf("%w with status %q", ErrCannotConfirm, booking.Status)
	}

	return s.completeWithRelease(ctx, booking)
}

// Cancel отменяет бронирование с опциональной причиной
// Допустимость отмены определяется таблицей переходов: из pending/accepted
// отменяют обе стороны, из in_progress/delivered - только продавец
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason exceeds %d characters",
			ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	booking, err := s.loadBooking(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	role := booking.RoleOf(req.UserID)
	if role == domain.RoleNone {
		s.logger.Warn("Cancel: user=%d is neither buyer nor seller of booking=%s", req.UserID, id)
		return nil, ErrAccessDenied
	}

	if err := s.validateTransition(booking, domain.StatusCancelled, role); err != nil {
		return nil, err
	}

	return s.cancel(ctx, booking, req.UserID, req.Reason)
}

// Вспомогательные методы

// completeWithRelease выполняет release и терминальное обновление
// Порядок принципиален: сначала перевод средств, затем единое условное
// обновление delivered -> completed + отметки released. Неудавшийся release
// оставляет бронирование в delivered - подтверждение безопасно повторяемо
func (s *Service) completeWithRelease(ctx context.Context, booking *domain.Booking) (*models.BookingResponse, error) {
	if err := s.payments.Release(ctx, booking); err != nil {
		s.logger.Error("completeWithRelease: release failed for booking=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrReleaseFailed, err)
	}

	if err := s.bookingRepo.CompleteWithRelease(ctx, booking.ID); err != nil {
		return nil, s.mapUpdateError("completeWithRelease", booking.ID, err)
	}

	s.logger.Info("completeWithRelease: booking=%s completed, payment released to seller=%d",
		booking.ID, booking.SellerID)

	s.notifier.Send(ctx, notify.Notification{
		Event:     notify.EventBookingCompleted,
		UserID:    booking.SellerID,
		BookingID: booking.ID.String(),
		Message:   fmt.Sprintf("Booking for %q was confirmed, funds released", booking.ServiceTitle),
	})

	// Перечитываем запись ради проставленных БД отметок времени
	updated, err := s.loadBooking(ctx, "completeWithRelease", booking.ID)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(updated), nil
}

// cancel выполняет условную отмену и best-effort refund оплаченного платежа
func (s *Service) cancel(ctx context.Context, booking *domain.Booking, userID int64, reason *string) (*models.BookingResponse, error) {
	if err := s.bookingRepo.Cancel(ctx, booking.ID, booking.Status, reason); err != nil {
		return nil, s.mapUpdateError("Cancel", booking.ID, err)
	}

	s.logger.Info("Cancel: booking=%s cancelled by user=%d from status=%s", booking.ID, userID, booking.Status)

	// Refund вторичен к отмене: его неудача логируется для ручной сверки,
	// но саму отмену не проваливает
	if booking.IsPaid() {
		if err := s.payments.Refund(ctx, booking); err != nil {
			s.logger.Error("Cancel: refund failed for booking=%s, manual reconciliation required: %v",
				booking.ID, err)
		}
	}

	counterpart := booking.SellerID
	if userID == booking.SellerID {
		counterpart = booking.BuyerID
	}
	s.notifier.Send(ctx, notify.Notification{
		Event:     notify.EventBookingCancelled,
		UserID:    counterpart,
		BookingID: booking.ID.String(),
		Message:   fmt.Sprintf("Booking for %q was cancelled", booking.ServiceTitle),
	})

	updated, err := s.loadBooking(ctx, "cancel", booking.ID)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(updated), nil
}

// validateTransition транслирует доменные ошибки переходов в ошибки сервиса
func (s *Service) validateTransition(booking *domain.Booking, target domain.BookingStatus, role domain.Role) error {
	err := domain.ValidateTransition(booking.Status, target, role)
	if err == nil {
		return nil
	}

	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		s.logger.Warn("validateTransition: booking=%s rejected %s -> %s", booking.ID, booking.Status, target)
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	var actorErr *domain.ActorError
	if errors.As(err, &actorErr) {
		s.logger.Warn("validateTransition: booking=%s role=%s rejected for %s -> %s",
			booking.ID, role, booking.Status, target)
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}

	return fmt.Errorf("%w: validateTransition: %v", ErrInternal, err)
}

// loadBooking загружает бронирование, транслируя ошибки репозитория
func (s *Service) loadBooking(ctx context.Context, method string, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking=%s not found", method, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking=%s: %v", method, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
	return booking, nil
}

// mapUpdateError транслирует ошибки условных обновлений репозитория
func (s *Service) mapUpdateError(method string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		s.logger.Warn("%s: booking=%s not found during update", method, id)
		return ErrBookingNotFound
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		s.logger.Warn("%s: booking=%s status changed concurrently", method, id)
		return ErrConcurrentUpdate
	default:
		s.logger.Error("%s: repository error for booking=%s: %v", method, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, method, err)
	}
}
