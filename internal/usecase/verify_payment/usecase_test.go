package verify_payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	bookingRepository "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	"github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	"github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
	"github.com/hustleverse/HV-BookingService/internal/service/invoices"
)

type fakeBookingRepo struct {
	bookings    map[uuid.UUID]*domain.Booking
	byReference map[string]*domain.Booking

	markPaidCalls int
	markPaidErr   error
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepository.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) GetByPaystackReference(_ context.Context, reference string) (*domain.Booking, error) {
	b, ok := f.byReference[reference]
	if !ok {
		return nil, bookingRepository.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBookingRepo) MarkPaid(_ context.Context, id uuid.UUID, reference string) error {
	f.markPaidCalls++
	if f.markPaidErr != nil {
		return f.markPaidErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepository.ErrBookingNotFound
	}
	b.PaymentStatus = domain.PaymentStatusPaid
	b.PaystackReference = &reference
	return nil
}

type fakeGateway struct {
	data *paystack.VerifyData
	err  error
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*paystack.VerifyData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeInvoiceService struct {
	createCalls int
	createErr   error
	created     *domain.Invoice
	existing    *domain.Invoice
}

func (f *fakeInvoiceService) CreateForPayment(_ context.Context, params invoices.CreateParams) (*domain.Invoice, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &domain.Invoice{
		ID:                uuid.New(),
		Number:            "HV-2025-0001",
		BookingID:         params.BookingID,
		BuyerID:           params.BuyerID,
		ServiceID:         params.ServiceID,
		Amount:            params.Amount,
		Currency:          params.Currency,
		PaystackReference: params.PaystackReference,
	}
	return f.created, nil
}

func (f *fakeInvoiceService) GetByReference(_ context.Context, _ string) (*domain.Invoice, error) {
	if f.existing == nil {
		return nil, errors.New("not found")
	}
	return f.existing, nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	sent []notify.Notification
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) {
	f.sent = append(f.sent, n)
}

type fakeOutbox struct {
	kinds    []string
	payloads [][]byte
}

func (f *fakeOutbox) Enqueue(_ context.Context, kind string, payload []byte) error {
	f.kinds = append(f.kinds, kind)
	f.payloads = append(f.payloads, payload)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const testReference = "ref-abc"

func successData(bookingID uuid.UUID) *paystack.VerifyData {
	return &paystack.VerifyData{
		Status:    paystack.TransactionStatusSuccess,
		Reference: testReference,
		Amount:    12000,
		Currency:  "NGN",
		Metadata: paystack.TransactionMetadata{
			BookingID: bookingID.String(),
			BuyerID:   10,
			ServiceID: 7,
		},
	}
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		ID:           uuid.New(),
		BuyerID:      10,
		SellerID:     20,
		ServiceID:    7,
		ServiceTitle: "Essay proofreading",
		Status:       domain.StatusAccepted,
	}
}

func TestExecute_SuccessfulVerification(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	gateway := &fakeGateway{data: successData(booking.ID)}
	invoiceSvc := &fakeInvoiceService{}
	notifier := &fakeNotifier{}

	uc := NewUseCase(bookings, gateway, invoiceSvc, fakeTxManager{}, notifier, &fakeOutbox{}, nil, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, booking.ID, resp.BookingID)
	assert.Equal(t, paystack.TransactionStatusSuccess, resp.GatewayStatus)

	require.NotNil(t, resp.InvoiceNumber)
	assert.Equal(t, "HV-2025-0001", *resp.InvoiceNumber)

	// Платеж помечен, счет создан из минорных единиц шлюза
	assert.Equal(t, 1, bookings.markPaidCalls)
	assert.Equal(t, domain.PaymentStatusPaid, bookings.bookings[booking.ID].PaymentStatus)
	assert.Equal(t, 120.0, invoiceSvc.created.Amount)

	// Покупатель уведомлен
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notify.EventPaymentConfirmed, notifier.sent[0].Event)
	assert.Equal(t, int64(10), notifier.sent[0].UserID)
}

func TestExecute_NonSuccessLeavesStateUntouched(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}

	data := successData(booking.ID)
	data.Status = "failed"
	gateway := &fakeGateway{data: data}
	invoiceSvc := &fakeInvoiceService{}

	uc := NewUseCase(bookings, gateway, invoiceSvc, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "failed", resp.GatewayStatus)
	assert.Equal(t, booking.ID, resp.BookingID)
	assert.Nil(t, resp.InvoiceID)

	assert.Zero(t, bookings.markPaidCalls)
	assert.Zero(t, invoiceSvc.createCalls)
	assert.Equal(t, domain.PaymentStatusNone, bookings.bookings[booking.ID].PaymentStatus)
}

func TestExecute_ReferenceNotFoundInGateway(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{}}
	gateway := &fakeGateway{err: paystack.ErrTransactionNotFound}

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestExecute_GatewayFailure(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{}}
	gateway := &fakeGateway{err: paystack.ErrGatewayFailure}

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	assert.ErrorIs(t, err, ErrGatewayFailure)
}

func TestExecute_FallbackResolutionByReference(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{
		bookings:    map[uuid.UUID]*domain.Booking{booking.ID: booking},
		byReference: map[string]*domain.Booking{testReference: booking},
	}

	// Метаданные шлюза пусты - бронирование находится по сохраненной ссылке
	data := successData(booking.ID)
	data.Metadata = paystack.TransactionMetadata{}
	gateway := &fakeGateway{data: data}

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, booking.ID, resp.BookingID)
}

func TestExecute_SuccessfulButNoBooking(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{}}
	gateway := &fakeGateway{data: successData(uuid.New())}

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_InvoiceFailureDoesNotFailVerification(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	gateway := &fakeGateway{data: successData(booking.ID)}
	invoiceSvc := &fakeInvoiceService{createErr: errors.New("db down")}
	outbox := &fakeOutbox{}

	uc := NewUseCase(bookings, gateway, invoiceSvc, fakeTxManager{}, &fakeNotifier{}, outbox, nil, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)

	// Платеж подтвержден, счет досоздаст фоновый диспетчер
	assert.True(t, resp.Success)
	assert.Nil(t, resp.InvoiceID)
	assert.Equal(t, 1, bookings.markPaidCalls)

	require.Equal(t, []string{domain.OutboxKindCreateInvoice}, outbox.kinds)

	var payload domain.CreateInvoicePayload
	require.NoError(t, json.Unmarshal(outbox.payloads[0], &payload))
	assert.Equal(t, booking.ID, payload.BookingID)
	assert.Equal(t, 120.0, payload.Amount)
	assert.Equal(t, testReference, payload.PaystackReference)
}

func TestExecute_DuplicateInvoiceReturnsExisting(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	gateway := &fakeGateway{data: successData(booking.ID)}

	existing := &domain.Invoice{ID: uuid.New(), Number: "HV-2025-0042"}
	invoiceSvc := &fakeInvoiceService{
		createErr: invoices.ErrInvoiceExists,
		existing:  existing,
	}

	uc := NewUseCase(bookings, gateway, invoiceSvc, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)

	require.NotNil(t, resp.InvoiceID)
	assert.Equal(t, existing.ID, *resp.InvoiceID)
	require.NotNil(t, resp.InvoiceNumber)
	assert.Equal(t, "HV-2025-0042", *resp.InvoiceNumber)
}

func TestExecute_RedisLockAcquiredAndReleased(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	gateway := &fakeGateway{data: successData(booking.ID)}

	redisClient, redisMock := redismock.NewClientMock()
	key := verifyLockKeyPrefix + testReference
	redisMock.ExpectSetNX(key, "1", 30*time.Second).SetVal(true)
	redisMock.ExpectDel(key).SetVal(1)

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, redisClient, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_ConcurrentVerificationRejected(t *testing.T) {
	booking := testBooking()
	bookings := &fakeBookingRepo{bookings: map[uuid.UUID]*domain.Booking{booking.ID: booking}}
	gateway := &fakeGateway{data: successData(booking.ID)}

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectSetNX(verifyLockKeyPrefix+testReference, "1", 30*time.Second).SetVal(false)

	uc := NewUseCase(bookings, gateway, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, redisClient, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Reference: testReference})
	assert.ErrorIs(t, err, ErrVerificationInProgress)

	assert.Zero(t, bookings.markPaidCalls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_EmptyReference(t *testing.T) {
	uc := NewUseCase(&fakeBookingRepo{}, &fakeGateway{}, &fakeInvoiceService{}, fakeTxManager{}, &fakeNotifier{}, &fakeOutbox{}, nil, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Reference: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
