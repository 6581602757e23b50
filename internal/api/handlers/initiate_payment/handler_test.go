package initiate_payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustleverse/HV-BookingService/internal/api/handlers"
	"github.com/hustleverse/HV-BookingService/internal/api/middleware"
	initiatePayment "github.com/hustleverse/HV-BookingService/internal/usecase/initiate_payment"
)

type fakeUseCase struct {
	lastReq *initiatePayment.Request
	resp    *initiatePayment.Response
	err     error
}

func (f *fakeUseCase) Execute(_ context.Context, req *initiatePayment.Request) (*initiatePayment.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestRouter(uc *fakeUseCase) *mux.Router {
	h := NewHandler(uc, nopLogger{})
	router := mux.NewRouter()
	router.Handle("/api/v1/bookings/{bookingId}/payments/initiate",
		middleware.Auth(http.HandlerFunc(h.Handle))).Methods(http.MethodPost)
	return router
}

func doInitiate(t *testing.T, router *mux.Router, bookingID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/bookings/"+bookingID.String()+"/payments/initiate", strings.NewReader(body))
	req.Header.Set(middleware.HeaderUserID, "10")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	return rec
}

// Сумма платежа определяется сервером: поля тела запроса,
// включая amount, не влияют на выставляемый счет
func TestHandle_ClientAmountHasNoEffect(t *testing.T) {
	bookingID := uuid.New()
	uc := &fakeUseCase{resp: &initiatePayment.Response{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		Reference:        "ref-xyz",
		Amount:           120.0,
		Currency:         "NGN",
	}}
	router := newTestRouter(uc)

	rec := doInitiate(t, router, bookingID, `{"amount": 1.0}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var payment InitiatePaymentResponse
	require.NoError(t, json.Unmarshal(data, &payment))
	assert.Equal(t, 120.0, payment.Amount)

	// До use case доходят только идентификаторы из пути и заголовка
	require.NotNil(t, uc.lastReq)
	assert.Equal(t, &initiatePayment.Request{BookingID: bookingID, UserID: 10}, uc.lastReq)
}

func TestHandle_EmptyBodyAccepted(t *testing.T) {
	bookingID := uuid.New()
	uc := &fakeUseCase{resp: &initiatePayment.Response{
		AuthorizationURL: "https://checkout.paystack.com/abc123",
		Reference:        "ref-xyz",
		Amount:           120.0,
		Currency:         "NGN",
	}}
	router := newTestRouter(uc)

	rec := doInitiate(t, router, bookingID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, uc.lastReq)
	assert.Equal(t, int64(10), uc.lastReq.UserID)
}

func TestHandle_InvalidBookingID(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, nopLogger{})
	router := mux.NewRouter()
	router.Handle("/api/v1/bookings/{bookingId}/payments/initiate",
		middleware.Auth(http.HandlerFunc(h.Handle))).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/bookings/not-a-uuid/payments/initiate", strings.NewReader(""))
	req.Header.Set(middleware.HeaderUserID, "10")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, uc.lastReq)
}
