package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/pkg/dbmetrics"
	"github.com/hustleverse/HV-BookingService/pkg/psqlbuilder"
)

// uniqueViolation код PostgreSQL для нарушения уникального ограничения
const uniqueViolation = "23505"

var bookingColumns = []string{
	"id",
	"buyer_id",
	"seller_id",
	"service_id",
	"service_title",
	"scheduled_date",
	"scheduled_time",
	"note",
	"status",
	"payment_status",
	"payment_amount",
	"paystack_reference",
	"payment_captured_at",
	"payment_released_at",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, использует её.
//
// Уникальность активного бронирования для пары (покупатель, услуга)
// обеспечивается частичным уникальным индексом; нарушение транслируется
// в ErrDuplicateActiveBooking
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"buyer_id",
			"seller_id",
			"service_id",
			"service_title",
			"scheduled_date",
			"scheduled_time",
			"note",
			"status",
		).
		Values(
			booking.ID,
			booking.BuyerID,
			booking.SellerID,
			booking.ServiceID,
			booking.ServiceTitle,
			booking.ScheduledDate,
			booking.ScheduledTime,
			booking.Note,
			booking.Status,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateActiveBooking
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanBooking(executor.QueryRowContext(ctx, query, args...), "GetByID")
}

// GetByPaystackReference ищет бронирование по сохраненной ссылке шлюза
// Используется как fallback при верификации платежа, когда callback
// не вернул booking_id в метаданных
func (r *Repository) GetByPaystackReference(ctx context.Context, reference string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"paystack_reference": reference}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaystackReference - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanBooking(executor.QueryRowContext(ctx, query, args...), "GetByPaystackReference")
}

// GetActiveByBuyerAndService возвращает активные бронирования пары (покупатель, услуга)
// Используется как guard перед созданием нового бронирования.
// Внутри транзакции добавляет FOR UPDATE для блокировки строк
func (r *Repository) GetActiveByBuyerAndService(ctx context.Context, buyerID, serviceID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatusStrings := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		activeStatusStrings[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"buyer_id":   buyerID,
			"service_id": serviceID,
			"status":     activeStatusStrings,
		}).
		OrderBy("created_at DESC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByBuyerAndService - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByBuyerAndService - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetByUser возвращает бронирования пользователя в указанной роли
// Опционально фильтрует по статусу
func (r *Repository) GetByUser(ctx context.Context, userID int64, role domain.Role, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	roleColumn := "buyer_id"
	if role == domain.RoleSeller {
		roleColumn = "seller_id"
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{roleColumn: userID}).
		OrderBy("created_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUser - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUser - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// UpdateStatusFrom условно обновляет статус бронирования (compare-and-swap):
// запись меняется только если текущий статус равен expected.
// Возвращает ErrStatusConflict, если статус уже изменился конкурентно
func (r *Repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, expected, target domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", target).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": expected}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatusFrom - build update query: %v", ErrBuildQuery, err)
	}

	return r.execConditional(ctx, executor, query, args, "UpdateStatusFrom", id)
}

// CompleteWithRelease завершает бронирование после успешного release платежа:
// единым условным обновлением переводит delivered -> completed и
// проставляет payment_status = released + payment_released_at
func (r *Repository) CompleteWithRelease(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("payment_status", domain.PaymentStatusReleased).
		Set("payment_released_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusDelivered}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CompleteWithRelease - build update query: %v", ErrBuildQuery, err)
	}

	return r.execConditional(ctx, executor, query, args, "CompleteWithRelease", id)
}

// Cancel условно отменяет бронирование с указанием причины
// Переход выполняется только из ожидаемого статуса expected
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, expected domain.BookingStatus, reason *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": expected}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execConditional(ctx, executor, query, args, "Cancel", id)
}

// SetPaymentAmount фиксирует сумму платежа на бронировании
// First write wins: сумма записывается только если еще не была установлена
func (r *Repository) SetPaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_amount", amount).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("payment_amount IS NULL")).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentAmount - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetPaymentAmount - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetPaymentAmount - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrPaymentAmountAlreadySet
	}

	return nil
}

// SetPaymentPending сохраняет ссылку шлюза и переводит платеж в pending
// после успешной инициализации транзакции
func (r *Repository) SetPaymentPending(ctx context.Context, id uuid.UUID, reference string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", domain.PaymentStatusPending).
		Set("paystack_reference", reference).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPaymentPending - build update query: %v", ErrBuildQuery, err)
	}

	return r.execNotFound(ctx, executor, query, args, "SetPaymentPending")
}

// MarkPaid помечает платеж подтвержденным шлюзом:
// payment_status = paid, payment_captured_at = NOW(), ссылка перезаписывается
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, reference string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", domain.PaymentStatusPaid).
		Set("paystack_reference", reference).
		Set("payment_captured_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkPaid - build update query: %v", ErrBuildQuery, err)
	}

	return r.execNotFound(ctx, executor, query, args, "MarkPaid")
}

// MarkRefunded помечает платеж возвращенным
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_status", domain.PaymentStatusRefunded).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkRefunded - build update query: %v", ErrBuildQuery, err)
	}

	return r.execNotFound(ctx, executor, query, args, "MarkRefunded")
}

// execConditional выполняет условное обновление; 0 затронутых строк означает,
// что запись отсутствует или её статус изменился конкурентно
func (r *Repository) execConditional(ctx context.Context, executor DBExecutor, query string, args []interface{}, method string, id uuid.UUID) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		// Различаем "не найдено" и "статус ушел конкурентно"
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return ErrBookingNotFound
		}
		return ErrStatusConflict
	}

	return nil
}

// execNotFound выполняет безусловное обновление; 0 строк = запись не найдена
func (r *Repository) execNotFound(ctx context.Context, executor DBExecutor, query string, args []interface{}, method string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// scanBooking сканирует одну строку результата в доменную модель
func (r *Repository) scanBooking(row *sql.Row, method string) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.BuyerID,
		&booking.SellerID,
		&booking.ServiceID,
		&booking.ServiceTitle,
		&booking.ScheduledDate,
		&booking.ScheduledTime,
		&booking.Note,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentAmount,
		&booking.PaystackReference,
		&booking.PaymentCapturedAt,
		&booking.PaymentReleasedAt,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, method, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&booking.ID,
			&booking.BuyerID,
			&booking.SellerID,
			&booking.ServiceID,
			&booking.ServiceTitle,
			&booking.ScheduledDate,
			&booking.ScheduledTime,
			&booking.Note,
			&booking.Status,
			&booking.PaymentStatus,
			&booking.PaymentAmount,
			&booking.PaystackReference,
			&booking.PaymentCapturedAt,
			&booking.PaymentReleasedAt,
			&booking.CancellationReason,
			&booking.CancelledAt,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}

		booking.CreatedAt = createdAt.Time
		booking.UpdatedAt = updatedAt.Time

		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
