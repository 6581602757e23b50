package initiate_payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepository "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	serviceRepository "github.com/hustleverse/HV-BookingService/internal/infra/storage/service"
	"github.com/hustleverse/HV-BookingService/internal/integrations/identity"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
	"github.com/hustleverse/HV-BookingService/pkg/ptr"
)

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*domain.Booking

	amountSetErr   error
	pendingSetErr  error
	setAmountCalls int

	// Сумма, которую "успел" записать конкурент при неудавшейся фиксации
	concurrentAmount *float64

	lastReference string
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepository.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) SetPaymentAmount(_ context.Context, id uuid.UUID, amount float64) error {
	f.setAmountCalls++
	if f.amountSetErr != nil {
		if f.concurrentAmount != nil {
			f.bookings[id].PaymentAmount = f.concurrentAmount
		}
		return f.amountSetErr
	}
	f.bookings[id].PaymentAmount = &amount
	return nil
}

func (f *fakeBookingRepo) SetPaymentPending(_ context.Context, id uuid.UUID, reference string) error {
	if f.pendingSetErr != nil {
		return f.pendingSetErr
	}
	f.lastReference = reference
	f.bookings[id].PaymentStatus = domain.PaymentStatusPending
	f.bookings[id].PaystackReference = &reference
	return nil
}

type fakeServiceRepo struct {
	services map[int64]*domain.Service
}

func (f *fakeServiceRepo) GetByID(_ context.Context, id int64) (*domain.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, serviceRepository.ErrServiceNotFound
	}
	return svc, nil
}

type fakeGateway struct {
	initCalls int
	lastReq   *paystack.InitializeRequest
	initErr   error
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, req *paystack.InitializeRequest) (*paystack.InitializeData, error) {
	f.initCalls++
	f.lastReq = req
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &paystack.InitializeData{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		AccessCode:       "abc123",
		Reference:        "ref-xyz",
	}, nil
}

type fakeIdentity struct {
	users map[int64]*identity.User
}

func (f *fakeIdentity) GetUser(_ context.Context, userID int64) (*identity.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

type fakeOutbox struct {
	kinds      []string
	payloads   [][]byte
	enqueueErr error
}

func (f *fakeOutbox) Enqueue(_ context.Context, kind string, payload []byte) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.kinds = append(f.kinds, kind)
	f.payloads = append(f.payloads, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func testBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:        uuid.New(),
		BuyerID:   10,
		SellerID:  20,
		ServiceID: 7,
		Status:    status,
	}
}

func newFixture(booking *domain.Booking) (*UseCase, *fakeBookingRepo, *fakeGateway, *fakeOutbox) {
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	services := &fakeServiceRepo{services: map[int64]*domain.Service{
		7: {ID: 7, UserID: 20, Title: "Essay proofreading", Price: 120.0, IsVerified: true, IsActive: true},
		8: {ID: 8, UserID: 20, Title: "Mispriced listing", Price: 0.5, IsVerified: true, IsActive: true},
	}}
	gateway := &fakeGateway{}
	users := &fakeIdentity{users: map[int64]*identity.User{
		10: {ID: 10, Email: "buyer@campus.edu", FullName: "Test Buyer"},
	}}
	outbox := &fakeOutbox{}

	uc := NewUseCase(bookings, services, gateway, users, outbox, "NGN", "https://app.example.com/callback", nopLogger{})
	return uc, bookings, gateway, outbox
}

func TestExecute_Success_DefaultsToServicePrice(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, bookings, gateway, _ := newFixture(booking)

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, "ref-xyz", resp.Reference)
	assert.Equal(t, 120.0, resp.Amount)
	assert.Equal(t, "NGN", resp.Currency)

	// Сумма в минорных единицах, метаданные связывают транзакцию с бронированием
	require.NotNil(t, gateway.lastReq)
	assert.Equal(t, int64(12000), gateway.lastReq.Amount)
	assert.Equal(t, "buyer@campus.edu", gateway.lastReq.Email)
	assert.Equal(t, booking.ID.String(), gateway.lastReq.Metadata.BookingID)
	assert.Equal(t, int64(10), gateway.lastReq.Metadata.BuyerID)

	// Сумма зафиксирована, ссылка сохранена
	assert.Equal(t, 1, bookings.setAmountCalls)
	assert.Equal(t, "ref-xyz", bookings.lastReference)
	assert.Equal(t, domain.PaymentStatusPending, bookings.bookings[booking.ID].PaymentStatus)
}

func TestExecute_AmountFixedFromServicePrice(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, bookings, gateway, _ := newFixture(booking)

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	require.NoError(t, err)

	// Сумма берется только из цены услуги и фиксируется за бронированием
	assert.Equal(t, 120.0, resp.Amount)
	assert.Equal(t, int64(12000), gateway.lastReq.Amount)
	require.NotNil(t, bookings.bookings[booking.ID].PaymentAmount)
	assert.Equal(t, 120.0, *bookings.bookings[booking.ID].PaymentAmount)
}

func TestExecute_AlreadyPaid_NoGatewayCall(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	booking.PaymentStatus = domain.PaymentStatusPaid
	uc, _, gateway, _ := newFixture(booking)

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Zero(t, gateway.initCalls)
}

func TestExecute_OnlyBuyerMayPay(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, _, gateway, _ := newFixture(booking)

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    20, // продавец
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    99, // посторонний
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.Zero(t, gateway.initCalls)
}

func TestExecute_CancelledBookingRejected(t *testing.T) {
	booking := testBooking(domain.StatusCancelled)
	uc, _, gateway, _ := newFixture(booking)

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, gateway.initCalls)
}

func TestExecute_BookingNotFound(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, _, _, _ := newFixture(booking)

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: uuid.New(),
		UserID:    10,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_ServicePriceBelowMinimum(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	booking.ServiceID = 8 // цена 0.5 ниже минимальной суммы платежа
	uc, _, gateway, _ := newFixture(booking)

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Zero(t, gateway.initCalls)
}

func TestExecute_StoredAmountReusedOnRepeatInitiation(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	booking.PaymentAmount = ptr.Ptr(75.0)
	uc, bookings, gateway, _ := newFixture(booking)

	// Повторная инициация использует зафиксированную сумму,
	// даже если цена услуги с тех пор изменилась
	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, resp.Amount)
	assert.Equal(t, int64(7500), gateway.lastReq.Amount)
	assert.Zero(t, bookings.setAmountCalls)
}

func TestExecute_ConcurrentAmountFixation(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, bookings, gateway, _ := newFixture(booking)

	// Конкурент успевает записать сумму между чтением и записью
	bookings.amountSetErr = bookingRepository.ErrPaymentAmountAlreadySet
	bookings.concurrentAmount = ptr.Ptr(50.0)

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, resp.Amount)
	assert.Equal(t, int64(5000), gateway.lastReq.Amount)
}

func TestExecute_GatewayFailure(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, _, gateway, _ := newFixture(booking)
	gateway.initErr = paystack.ErrGatewayFailure

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	assert.ErrorIs(t, err, ErrGatewayFailure)
}

func TestExecute_ReferenceSaveFailureStillSucceeds(t *testing.T) {
	booking := testBooking(domain.StatusAccepted)
	uc, bookings, _, outbox := newFixture(booking)
	bookings.pendingSetErr = errors.New("db down")

	// Верификация умеет находить бронирование по метаданным,
	// поэтому инициация не проваливается
	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: booking.ID,
		UserID:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, "ref-xyz", resp.Reference)

	// Досохранение ссылки встало в очередь повторов
	require.Equal(t, []string{domain.OutboxKindPersistReference}, outbox.kinds)

	var payload domain.PersistReferencePayload
	require.NoError(t, json.Unmarshal(outbox.payloads[0], &payload))
	assert.Equal(t, booking.ID, payload.BookingID)
	assert.Equal(t, "ref-xyz", payload.Reference)
}
