package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Константы нумерации счетов
const (
	InvoiceNumberPrefix = "HV"
	invoiceSeqDigits    = 4
)

// Invoice неизменяемая запись об успешно подтвержденном платеже
// Append-only: после создания никогда не обновляется и не удаляется
type Invoice struct {
	ID uuid.UUID

	// Человекочитаемый последовательный номер вида "HV-2025-0007",
	// монотонно растущий в пределах календарного года
	Number string

	BookingID uuid.UUID
	BuyerID   int64
	ServiceID int64

	Amount   float64
	Currency string

	// Ссылка на транзакцию платежного шлюза; не более одного счета на ссылку
	PaystackReference string

	CreatedAt time.Time
}

// FormatInvoiceNumber форматирует номер счета для года и порядкового номера
func FormatInvoiceNumber(year int, seq int) string {
	return fmt.Sprintf("%s-%d-%0*d", InvoiceNumberPrefix, year, invoiceSeqDigits, seq)
}

// InvoiceYearPrefix возвращает префикс номеров счетов указанного года
func InvoiceYearPrefix(year int) string {
	return fmt.Sprintf("%s-%d-", InvoiceNumberPrefix, year)
}

// ParseInvoiceSeq извлекает порядковый номер из номера счета указанного года
// Возвращает false, если номер не соответствует формату года
func ParseInvoiceSeq(number string, year int) (int, bool) {
	prefix := InvoiceYearPrefix(year)
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
