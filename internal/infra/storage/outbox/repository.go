// Package outbox хранилище отложенных вторичных записей
//
// Первичные операции кладут сюда задачи, которые не удалось выполнить
// синхронно (досохранение ссылки шлюза, создание счета, уведомление);
// фоновый диспетчер забирает их и переигрывает
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hustleverse/HV-BookingService/internal/domain"
	"github.com/hustleverse/HV-BookingService/pkg/dbmetrics"
	"github.com/hustleverse/HV-BookingService/pkg/psqlbuilder"
)

var taskColumns = []string{
	"id",
	"kind",
	"payload",
	"attempts",
	"next_attempt_at",
	"created_at",
}

// Repository репозиторий задач outbox
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Enqueue ставит задачу в очередь на немедленное выполнение
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Enqueue(ctx context.Context, kind string, payload []byte) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("outbox_tasks").
		Columns("kind", "payload").
		Values(kind, string(payload)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Enqueue - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Enqueue - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ClaimDue атомарно забирает до limit просроченных задач, сдвигая их
// next_attempt_at на lease вперед и увеличивая счетчик попыток.
// SKIP LOCKED позволяет нескольким экземплярам сервиса разбирать очередь
// без взаимных блокировок; упавший обработчик вернет задачу по истечении lease
func (r *Repository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxTask, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_tasks").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("next_attempt_at", squirrel.Expr("NOW() + make_interval(secs => ?)", lease.Seconds())).
		Where(squirrel.Expr(
			"id IN (SELECT id FROM outbox_tasks WHERE next_attempt_at <= NOW() ORDER BY next_attempt_at LIMIT ? FOR UPDATE SKIP LOCKED)",
			limit,
		)).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ClaimDue - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ClaimDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

// Delete удаляет выполненную задачу
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("outbox_tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// Reschedule переносит следующую попытку задачи на delay вперед
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, delay time.Duration) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_tasks").
		Set("next_attempt_at", squirrel.Expr("NOW() + make_interval(secs => ?)", delay.Seconds())).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Reschedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Reschedule - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// scanTasks сканирует результаты запроса в слайс задач
func (r *Repository) scanTasks(rows *sql.Rows) ([]*domain.OutboxTask, error) {
	tasks := make([]*domain.OutboxTask, 0)

	for rows.Next() {
		var task domain.OutboxTask
		var nextAttemptAt, createdAt sql.NullTime

		err := rows.Scan(
			&task.ID,
			&task.Kind,
			&task.Payload,
			&task.Attempts,
			&nextAttemptAt,
			&createdAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanTasks - scan row: %v", ErrScanRow, err)
		}

		task.NextAttemptAt = nextAttemptAt.Time
		task.CreatedAt = createdAt.Time

		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanTasks - rows error: %v", ErrScanRow, err)
	}

	return tasks, nil
}
