package confirm_completion

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hustleverse/HV-BookingService/internal/api/handlers"
	"github.com/hustleverse/HV-BookingService/internal/api/middleware"
	"github.com/hustleverse/HV-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgNotFound         = "бронирование не найдено"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "подтвердить завершение может только покупатель"
	msgCannotConfirm    = "бронирование нельзя подтвердить в текущем статусе"
	msgConcurrentUpdate = "бронирование изменено конкурентно, повторите запрос"
	msgReleaseFailed    = "не удалось перевести средства продавцу, повторите подтверждение"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	bookingID, err := uuid.Parse(vars["bookingId"])
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/confirm - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.ConfirmCompletion(r.Context(), bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Access denied: booking_id=%s, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrCannotConfirm):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Cannot confirm: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgCannotConfirm)

		case errors.Is(err, bookings.ErrConcurrentUpdate):
			h.logger.Warn("PATCH /bookings/{id}/confirm - Concurrent update: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgConcurrentUpdate)

		case errors.Is(err, bookings.ErrReleaseFailed):
			h.logger.Error("PATCH /bookings/{id}/confirm - Release failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadGateway(w, msgReleaseFailed)

		default:
			h.logger.Error("PATCH /bookings/{id}/confirm - Failed to confirm: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/confirm - Completion confirmed: booking_id=%s, buyer_id=%d", bookingID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
