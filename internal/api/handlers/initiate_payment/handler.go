package initiate_payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hustleverse/HV-BookingService/internal/api/handlers"
	"github.com/hustleverse/HV-BookingService/internal/api/middleware"
	initiatePayment "github.com/hustleverse/HV-BookingService/internal/usecase/initiate_payment"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "оплатить бронирование может только покупатель"
	msgAlreadyPaid      = "бронирование уже оплачено"
	msgInvalidAmount    = "некорректная сумма платежа"
	msgGatewayFailure   = "платежный шлюз недоступен, повторите попытку"
	msgInvalidInput     = "некорректные входные данные"
)

type Handler struct {
	useCase InitiatePaymentUseCase
	logger  Logger
}

func NewHandler(useCase InitiatePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/payments/initiate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := uuid.Parse(vars["bookingId"])
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/payments/initiate - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/payments/initiate - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &initiatePayment.Request{
		BookingID: bookingID,
		UserID:    userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, initiatePayment.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/payments/initiate - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, initiatePayment.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/payments/initiate - Access denied: booking_id=%s, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, initiatePayment.ErrAlreadyPaid):
			h.logger.Warn("POST /bookings/{id}/payments/initiate - Already paid: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgAlreadyPaid)

		case errors.Is(err, initiatePayment.ErrInvalidAmount):
			h.logger.Warn("POST /bookings/{id}/payments/initiate - Invalid amount: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidAmount)

		case errors.Is(err, initiatePayment.ErrGatewayFailure):
			h.logger.Error("POST /bookings/{id}/payments/initiate - Gateway failure: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondBadGateway(w, msgGatewayFailure)

		case errors.Is(err, initiatePayment.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/payments/initiate - Invalid input: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings/{id}/payments/initiate - Failed to initiate: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/payments/initiate - Payment initiated: booking_id=%s, reference=%s",
		bookingID, result.Reference)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
