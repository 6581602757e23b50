package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "HV-2025-0001", FormatInvoiceNumber(2025, 1))
	assert.Equal(t, "HV-2025-0042", FormatInvoiceNumber(2025, 42))
	assert.Equal(t, "HV-2026-9999", FormatInvoiceNumber(2026, 9999))
	// Переполнение четырех знаков не обрезается
	assert.Equal(t, "HV-2025-10000", FormatInvoiceNumber(2025, 10000))
}

func TestParseInvoiceSeq(t *testing.T) {
	seq, ok := ParseInvoiceSeq("HV-2025-0009", 2025)
	assert.True(t, ok)
	assert.Equal(t, 9, seq)

	seq, ok = ParseInvoiceSeq("HV-2025-10000", 2025)
	assert.True(t, ok)
	assert.Equal(t, 10000, seq)

	// Чужой год
	_, ok = ParseInvoiceSeq("HV-2024-0009", 2025)
	assert.False(t, ok)

	// Мусор вместо номера
	_, ok = ParseInvoiceSeq("HV-2025-00x9", 2025)
	assert.False(t, ok)

	_, ok = ParseInvoiceSeq("", 2025)
	assert.False(t, ok)
}
