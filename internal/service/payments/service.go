// Package payments операции перевода средств: release продавцу при
// подтверждении покупателем и refund покупателю при отмене
package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
)

// Service сервис платежных переводов
type Service struct {
	gateway     GatewayClient
	bookingRepo BookingRepository
	currency    string
	logger      Logger
}

// NewService создает новый экземпляр сервиса платежей
func NewService(gateway GatewayClient, bookingRepo BookingRepository, currency string, logger Logger) *Service {
	return &Service{
		gateway:     gateway,
		bookingRepo: bookingRepo,
		currency:    currency,
		logger:      logger,
	}
}

// Release переводит удержанные средства продавцу
// Вызывается state machine ровно один раз при подтверждении delivered -> completed.
// Если платеж по бронированию не был подтвержден шлюзом, переводить нечего -
// операция завершается успешно без обращения к шлюзу
func (s *Service) Release(ctx context.Context, booking *domain.Booking) error {
	if !booking.IsPaid() || booking.PaymentAmount == nil {
		s.logger.Warn("Release: booking=%s has no captured payment (payment_status=%s), skipping transfer",
			booking.ID, booking.PaymentStatus)
		return nil
	}

	req := &paystack.TransferRequest{
		Amount:   toMinorUnits(*booking.PaymentAmount),
		Currency: s.currency,
		// Transfer recipient код продавца провизионится payout-частью
		// платформы вне этого сервиса; здесь используется его платформенный ID
		Recipient: strconv.FormatInt(booking.SellerID, 10),
		Reason:    fmt.Sprintf("booking %s completed", booking.ID),
		Reference: "rls-" + booking.ID.String(),
	}

	transfer, err := s.gateway.CreateTransfer(ctx, req)
	if err != nil {
		s.logger.Error("Release: transfer failed for booking=%s, seller=%d: %v",
			booking.ID, booking.SellerID, err)
		return fmt.Errorf("%w: booking=%s: %v", ErrReleaseFailed, booking.ID, err)
	}

	s.logger.Info("Release: transferred %.2f %s to seller=%d for booking=%s, transfer_code=%s",
		*booking.PaymentAmount, s.currency, booking.SellerID, booking.ID, transfer.TransferCode)

	return nil
}

// Refund возвращает средства покупателю при отмене оплаченного бронирования
// и помечает платеж как refunded
func (s *Service) Refund(ctx context.Context, booking *domain.Booking) error {
	if !booking.IsPaid() || booking.PaymentAmount == nil {
		s.logger.Info("Refund: booking=%s has no captured payment, nothing to refund", booking.ID)
		return nil
	}

	req := &paystack.TransferRequest{
		Amount:    toMinorUnits(*booking.PaymentAmount),
		Currency:  s.currency,
		Recipient: strconv.FormatInt(booking.BuyerID, 10),
		Reason:    fmt.Sprintf("booking %s cancelled", booking.ID),
		Reference: "rfd-" + booking.ID.String(),
	}

	if _, err := s.gateway.CreateTransfer(ctx, req); err != nil {
		s.logger.Error("Refund: transfer failed for booking=%s, buyer=%d: %v",
			booking.ID, booking.BuyerID, err)
		return fmt.Errorf("%w: booking=%s: %v", ErrRefundFailed, booking.ID, err)
	}

	if err := s.bookingRepo.MarkRefunded(ctx, booking.ID); err != nil {
		// Деньги ушли, но отметка не записалась - фиксируем для ручной сверки
		s.logger.Error("Refund: transfer succeeded but failed to mark booking=%s refunded: %v",
			booking.ID, err)
		return fmt.Errorf("%w: booking=%s: %v", ErrInternal, booking.ID, err)
	}

	s.logger.Info("Refund: refunded %.2f %s to buyer=%d for booking=%s",
		*booking.PaymentAmount, s.currency, booking.BuyerID, booking.ID)

	return nil
}

// toMinorUnits конвертирует сумму в минорные единицы шлюза
func toMinorUnits(amount float64) int64 {
	return int64(amount*domain.MinorUnitsFactor + 0.5)
}
