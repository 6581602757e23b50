package invoice

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

const uniqueViolation = "23505"

// Repository репозиторий для работы со счетами
// Счета append-only: только вставка и чтение
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория счетов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый счет
// Уникальность номера и ссылки шлюза обеспечивается ограничениями БД;
// нарушение транслируется в ErrDuplicateInvoice
func (r *Repository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert("invoices").
		Columns(
			"id",
			"invoice_number",
			"booking_id",
			"buyer_id",
			"service_id",
			"amount",
			"currency",
			"paystack_reference",
		).
		Values(
			inv.ID,
			inv.Number,
			inv.BookingID,
			inv.BuyerID,
			inv.ServiceID,
			inv.Amount,
			inv.Currency,
			inv.PaystackReference,
		).
		Suffix("RETURNING created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateInvoice
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	inv.CreatedAt = createdAt.Time

	return inv, nil
}

// GetLatestNumberForYear возвращает последний выданный номер счета
// в указанном году (упорядоченный limited-запрос по префиксу года)
// Возвращает ErrInvoiceNotFound, если счетов за год еще нет
func (r *Repository) GetLatestNumberForYear(ctx context.Context, year int) (string, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("invoice_number").
		From("invoices").
		Where(squirrel.Like{"invoice_number": domain.InvoiceYearPrefix(year) + "%"}).
		OrderBy("invoice_number DESC").
		Limit(1)

	// Внутри транзакции блокируем строку, чтобы параллельная верификация
	// не вычислила тот же следующий номер
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: GetLatestNumberForYear - build select query: %v", ErrBuildQuery, err)
	}

	var number string
	err = executor.QueryRowContext(ctx, query, args...).Scan(&number)
	if err == sql.ErrNoRows {
		return "", ErrInvoiceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: GetLatestNumberForYear - scan number: %v", ErrScanRow, err)
	}

	return number, nil
}

// GetByPaystackReference возвращает счет по ссылке платежной транзакции
func (r *Repository) GetByPaystackReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"invoice_number",
		"booking_id",
		"buyer_id",
		"service_id",
		"amount",
		"currency",
		"paystack_reference",
		"created_at",
	).
		From("invoices").
		Where(squirrel.Eq{"paystack_reference": reference}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaystackReference - build select query: %v", ErrBuildQuery, err)
	}

	var inv domain.Invoice
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&inv.ID,
		&inv.Number,
		&inv.BookingID,
		&inv.BuyerID,
		&inv.ServiceID,
		&inv.Amount,
		&inv.Currency,
		&inv.PaystackReference,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaystackReference - scan invoice: %v", ErrScanRow, err)
	}

	inv.CreatedAt = createdAt.Time

	return &inv, nil
}
