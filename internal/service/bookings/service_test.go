package bookings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/service/bookings/models"
	"github.com/hustleverse/HV-BookingService/pkg/ptr"
)

const (
	buyerID    = int64(10)
	sellerID   = int64(20)
	strangerID = int64(99)
)

// fakeBookingRepo in-memory репозиторий для тестов state machine
type fakeBookingRepo struct {
	bookings map[uuid.UUID]*domain.Booking

	updateCalls   int
	completeCalls int
	cancelCalls   int

	failUpdate   error
	failComplete error
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[uuid.UUID]*domain.Booking)}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) GetByUser(_ context.Context, userID int64, role domain.Role, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if role == domain.RoleBuyer && b.BuyerID != userID {
			continue
		}
		if role == domain.RoleSeller && b.SellerID != userID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeBookingRepo) UpdateStatusFrom(_ context.Context, id uuid.UUID, expected, target domain.BookingStatus) error {
	f.updateCalls++
	if f.failUpdate != nil {
		return f.failUpdate
	}
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != expected {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = target
	return nil
}

func (f *fakeBookingRepo) CompleteWithRelease(_ context.Context, id uuid.UUID) error {
	f.completeCalls++
	if f.failComplete != nil {
		return f.failComplete
	}
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != domain.StatusDelivered {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = domain.StatusCompleted
	b.PaymentStatus = domain.PaymentStatusReleased
	return nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id uuid.UUID, expected domain.BookingStatus, reason *string) error {
	f.cancelCalls++
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if b.Status != expected {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = domain.StatusCancelled
	b.CancellationReason = reason
	return nil
}

// fakePayments считает вызовы release/refund
type fakePayments struct {
	releaseCalls int
	refundCalls  int
	releaseErr   error
	refundErr    error
}

func (f *fakePayments) Release(_ context.Context, _ *domain.Booking) error {
	f.releaseCalls++
	return f.releaseErr
}

func (f *fakePayments) Refund(_ context.Context, _ *domain.Booking) error {
	f.refundCalls++
	return f.refundErr
}

// fakeNotifier собирает отправленные уведомления
type fakeNotifier struct {
	sent []notify.Notification
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) {
	f.sent = append(f.sent, n)
}

// nopLogger глушит логи в тестах
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func testBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		SellerID:     sellerID,
		ServiceID:    7,
		ServiceTitle: "CS101 tutoring",
		Status:       status,
	}
}

func newTestService(repo *fakeBookingRepo, payments *fakePayments, notifier *fakeNotifier) *Service {
	return NewService(repo, payments, notifier, nopLogger{})
}

func TestGetByID_AccessControl(t *testing.T) {
	booking := testBooking(domain.StatusPending)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	resp, err := svc.GetByID(context.Background(), booking.ID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID.String(), resp.ID)

	_, err = svc.GetByID(context.Background(), booking.ID, sellerID)
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), booking.ID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetByID(context.Background(), uuid.New(), buyerID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestAccept_SellerOnly(t *testing.T) {
	booking := testBooking(domain.StatusPending)
	repo := newFakeBookingRepo(booking)
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakePayments{}, notifier)

	_, err := svc.Accept(context.Background(), booking.ID, buyerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Accept(context.Background(), booking.ID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	resp, err := svc.Accept(context.Background(), booking.ID, sellerID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAccepted), resp.Status)

	// Покупатель получает уведомление о принятии
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.EventBookingAccepted, notifier.sent[0].Event)
	assert.Equal(t, buyerID, notifier.sent[0].UserID)
}

func TestAccept_NotPending(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	_, err := svc.Accept(context.Background(), booking.ID, sellerID)
	assert.ErrorIs(t, err, ErrCannotAccept)
	assert.Contains(t, err.Error(), "accepted")
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	resp, err := svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: sellerID,
		Status: "in_progress",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProgress), resp.Status)

	resp, err = svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: sellerID,
		Status: "delivered",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDelivered), resp.Status)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	_, err := svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: sellerID,
		Status: "shipped",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Zero(t, repo.updateCalls)
}

func TestUpdateStatus_ForbiddenTransition(t *testing.T) {
	booking := testBooking(domain.StatusPending)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	// Переход pending -> delivered отсутствует в таблице
	_, err := svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: sellerID,
		Status: "delivered",
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Переход существует, но роль не та: покупатель не принимает
	_, err = svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: buyerID,
		Status: "accepted",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Посторонний не участвует вовсе
	_, err = svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: strangerID,
		Status: "accepted",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.Zero(t, repo.updateCalls)
}

func TestUpdateStatus_ConcurrentConflict(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	repo := newFakeBookingRepo(booking)
	repo.failUpdate = bookingRepo.ErrStatusConflict
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	_, err := svc.UpdateStatus(context.Background(), booking.ID, &models.UpdateStatusRequest{
		UserID: sellerID,
		Status: "in_progress",
	})
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestConfirmCompletion_ReleasesPaymentOnce(t *testing.T) {
	booking := testBooking(domain.StatusDelivered)
	booking.PaymentStatus = domain.PaymentStatusPaid
	booking.PaymentAmount = ptr.Ptr(150.0)

	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, payments, notifier)

	resp, err := svc.ConfirmCompletion(context.Background(), booking.ID, buyerID)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCompleted), resp.Status)
	require.NotNil(t, resp.PaymentStatus)
	assert.Equal(t, string(domain.PaymentStatusReleased), *resp.PaymentStatus)

	assert.Equal(t, 1, payments.releaseCalls)
	assert.Equal(t, 1, repo.completeCalls)

	// Продавец получает уведомление о завершении
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.EventBookingCompleted, notifier.sent[0].Event)
	assert.Equal(t, sellerID, notifier.sent[0].UserID)
}

func TestConfirmCompletion_SellerCannotConfirm(t *testing.T) {
	booking := testBooking(domain.StatusDelivered)
	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.ConfirmCompletion(context.Background(), booking.ID, sellerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, payments.releaseCalls)
}

func TestConfirmCompletion_NotDelivered(t *testing.T) {
	booking := testBooking(domain.StatusInProgress)
	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.ConfirmCompletion(context.Background(), booking.ID, buyerID)
	assert.ErrorIs(t, err, ErrCannotConfirm)
	assert.Zero(t, payments.releaseCalls)
}

func TestConfirmCompletion_ReleaseFailureKeepsDelivered(t *testing.T) {
	booking := testBooking(domain.StatusDelivered)
	booking.PaymentStatus = domain.PaymentStatusPaid

	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{releaseErr: errors.New("gateway down")}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.ConfirmCompletion(context.Background(), booking.ID, buyerID)
	assert.ErrorIs(t, err, ErrReleaseFailed)

	// Бронирование не тронуто - подтверждение можно повторить
	assert.Zero(t, repo.completeCalls)
	assert.Equal(t, domain.StatusDelivered, repo.bookings[booking.ID].Status)

	// Повтор после восстановления шлюза проходит
	payments.releaseErr = nil
	resp, err := svc.ConfirmCompletion(context.Background(), booking.ID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), resp.Status)
}

func TestCancel_WithReasonAndRefund(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	booking.PaymentStatus = domain.PaymentStatusPaid
	booking.PaymentAmount = ptr.Ptr(80.0)

	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, payments, notifier)

	reason := "schedule conflict"
	resp, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{
		UserID: buyerID,
		Reason: &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, reason, *resp.CancellationReason)

	assert.Equal(t, 1, payments.refundCalls)

	// Уведомляется контрагент отменившего
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, sellerID, notifier.sent[0].UserID)
}

func TestCancel_UnpaidSkipsRefund(t *testing.T) {
	booking := testBooking(domain.StatusPending)
	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{}
	svc := newTestService(repo, payments, &fakeNotifier{})

	_, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{UserID: sellerID})
	require.NoError(t, err)
	assert.Zero(t, payments.refundCalls)
}

func TestCancel_RefundFailureDoesNotFailCancel(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	booking.PaymentStatus = domain.PaymentStatusPaid

	repo := newFakeBookingRepo(booking)
	payments := &fakePayments{refundErr: errors.New("transfer rejected")}
	svc := newTestService(repo, payments, &fakeNotifier{})

	resp, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{UserID: sellerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, 1, payments.refundCalls)
}

func TestCancel_BuyerCannotCancelInProgress(t *testing.T) {
	booking := testBooking(domain.StatusInProgress)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	_, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{UserID: buyerID})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, repo.cancelCalls)
}

func TestCancel_CompletedIsFinal(t *testing.T) {
	booking := testBooking(domain.StatusCompleted)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	_, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{UserID: sellerID})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_ReasonTooLong(t *testing.T) {
	booking := testBooking(domain.StatusPending)
	repo := newFakeBookingRepo(booking)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	long := make([]byte, domain.MaxCancellationReasonLength+1)
	for i := range long {
		long[i] = 'a'
	}
	reason := string(long)

	_, err := svc.Cancel(context.Background(), booking.ID, &models.CancelBookingRequest{
		UserID: buyerID,
		Reason: &reason,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetUserBookings_RoleAndStatusFilter(t *testing.T) {
	asBuyer := testBooking(domain.StatusPending)
	asSeller := testBooking(domain.StatusAccepted)
	asSeller.BuyerID = strangerID
	asSeller.SellerID = buyerID // тот же пользователь, но в роли продавца

	repo := newFakeBookingRepo(asBuyer, asSeller)
	svc := newTestService(repo, &fakePayments{}, &fakeNotifier{})

	resp, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: buyerID,
		Role:   "buyer",
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, asBuyer.ID.String(), resp.Bookings[0].ID)

	resp, err = svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: buyerID,
		Role:   "seller",
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, asSeller.ID.String(), resp.Bookings[0].ID)

	_, err = svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: buyerID,
		Role:   "admin",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := "shipped"
	_, err = svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: buyerID,
		Role:   "buyer",
		Status: &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
