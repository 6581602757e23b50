package verify_payment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hustleverse/HV-BookingService/internal/api/handlers"
	verifyPayment "github.com/hustleverse/HV-BookingService/internal/usecase/verify_payment"
)

const (
	msgMissingReference  = "отсутствует ссылка транзакции"
	msgReferenceNotFound = "транзакция не найдена в платежном шлюзе"
	msgBookingNotFound   = "бронирование для транзакции не найдено"
	msgVerifyInProgress  = "верификация этой транзакции уже выполняется"
	msgGatewayFailure    = "платежный шлюз недоступен, повторите попытку"
)

type Handler struct {
	useCase VerifyPaymentUseCase
	logger  Logger
}

func NewHandler(useCase VerifyPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/payments/verify/{reference}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	reference := vars["reference"]
	if reference == "" {
		h.logger.Warn("GET /payments/verify/{reference} - Missing reference")
		handlers.RespondBadRequest(w, msgMissingReference)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &verifyPayment.Request{
		Reference: reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, verifyPayment.ErrReferenceNotFound):
			h.logger.Warn("GET /payments/verify/{reference} - Reference not found: reference=%s", reference)
			handlers.RespondNotFound(w, msgReferenceNotFound)

		case errors.Is(err, verifyPayment.ErrBookingNotFound):
			h.logger.Error("GET /payments/verify/{reference} - Booking not found: reference=%s", reference)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, verifyPayment.ErrVerificationInProgress):
			h.logger.Warn("GET /payments/verify/{reference} - Already in progress: reference=%s", reference)
			handlers.RespondConflict(w, msgVerifyInProgress)

		case errors.Is(err, verifyPayment.ErrGatewayFailure):
			h.logger.Error("GET /payments/verify/{reference} - Gateway failure: reference=%s, error=%v", reference, err)
			handlers.RespondBadGateway(w, msgGatewayFailure)

		case errors.Is(err, verifyPayment.ErrInvalidInput):
			h.logger.Warn("GET /payments/verify/{reference} - Invalid input: error=%v", err)
			handlers.RespondBadRequest(w, msgMissingReference)

		default:
			h.logger.Error("GET /payments/verify/{reference} - Failed to verify: reference=%s, error=%v", reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if !result.Success {
		h.logger.Warn("GET /payments/verify/{reference} - Payment not confirmed: reference=%s, gateway_status=%s",
			reference, result.GatewayStatus)
		// Не ошибка сервиса: шлюз ответил, но транзакция не успешна
		handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
		return
	}

	h.logger.Info("GET /payments/verify/{reference} - Payment verified: reference=%s, booking_id=%s",
		reference, result.BookingID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
