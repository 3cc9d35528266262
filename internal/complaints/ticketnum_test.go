package complaints

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTicketNumber(t *testing.T) {
	day := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "CMP-20250307-001", FormatTicketNumber(day, 1))
	assert.Equal(t, "CMP-20250307-042", FormatTicketNumber(day, 42))
	assert.Equal(t, "CMP-20250307-999", FormatTicketNumber(day, 999))
}

func TestParseTicketNumber(t *testing.T) {
	day, seq, err := ParseTicketNumber("CMP-20250307-017")
	require.NoError(t, err)

	assert.Equal(t, 2025, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 7, day.Day())
	assert.Equal(t, 17, seq)
}

func TestParseTicketNumberRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"CMP-20250307",
		"TKT-20250307-001",
		"CMP-2025037-001",
		"CMP-20250307-abc",
		"CMP-20250307-000",
	}
	for _, num := range cases {
		_, _, err := ParseTicketNumber(num)
		assert.Error(t, err, "expected error for %q", num)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	day := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	num := FormatTicketNumber(day, 123)

	parsedDay, seq, err := ParseTicketNumber(num)
	require.NoError(t, err)
	assert.Equal(t, day, parsedDay)
	assert.Equal(t, 123, seq)
}
