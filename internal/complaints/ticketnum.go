package complaints

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ticketPrefix = "CMP"

// FormatTicketNumber renders the CMP-YYYYMMDD-NNN ticket number for the given
// day and sequence.
func FormatTicketNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", ticketPrefix, day.Format("20060102"), seq)
}

// ParseTicketNumber splits a ticket number into its day and daily sequence.
func ParseTicketNumber(num string) (time.Time, int, error) {
	parts := strings.Split(num, "-")
	if len(parts) != 3 || parts[0] != ticketPrefix {
		return time.Time{}, 0, fmt.Errorf("malformed ticket number: %q", num)
	}

	day, err := time.Parse("20060102", parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("malformed ticket date in %q: %w", num, err)
	}

	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("malformed ticket sequence in %q", num)
	}

	return day, seq, nil
}

// NextTicketNumber allocates the next ticket number for the given day. The
// counter resets each calendar day. Callers must pass the transaction the
// ticket is created in: the highest existing row for the day is row-locked so
// concurrent submissions can't hand out the same sequence.
func NextTicketNumber(tx *gorm.DB, now time.Time) (string, error) {
	pattern := fmt.Sprintf("%s-%s-%%", ticketPrefix, now.Format("20060102"))

	// Sequences are zero-padded to three digits but keep growing past 999, so
	// plain lexicographic order would rank -999 above -1000. Longer numbers
	// always carry the larger sequence.
	var last Ticket
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("ticket_number LIKE ?", pattern).
		Order("length(ticket_number) DESC, ticket_number DESC").
		First(&last).Error

	seq := 1
	switch {
	case err == nil:
		_, lastSeq, perr := ParseTicketNumber(last.TicketNumber)
		if perr != nil {
			return "", fmt.Errorf("existing ticket number unparseable: %w", perr)
		}
		seq = lastSeq + 1
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First ticket of the day.
	default:
		return "", fmt.Errorf("query last ticket number: %w", err)
	}

	return FormatTicketNumber(now, seq), nil
}
