package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEntryID returns a ledger entry ID like "22-000041".
func FormatEntryID(ledgerType, number int) string {
	return fmt.Sprintf("%d-%06d", ledgerType, number)
}

// FormatLegID returns a leg ID like "22-000041a" (leg 0='a', 1='b', etc.).
func FormatLegID(entryID string, leg int) string {
	return entryID + string(rune('a'+leg))
}

// ParseEntryID parses "22-000041" (with or without leg suffix) into ledger type and number.
func ParseEntryID(id string) (ledgerType, number int, err error) {
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	ledgerType, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ledger type in entry ID %q: %w", id, err)
	}

	number, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number in entry ID %q: %w", id, err)
	}
	if number <= 0 {
		return 0, 0, fmt.Errorf("invalid number in entry ID %q", id)
	}

	return ledgerType, number, nil
}

// EntryGroup strips the leg suffix from a leg ID.
// "22-000041a" -> "22-000041"
func EntryGroup(legID string) string {
	i := len(legID)
	for i > 0 && legID[i-1] >= 'a' && legID[i-1] <= 'z' {
		i--
	}
	return legID[:i]
}

// ParseTransactionID parses a transaction id as it appears in request keys.
func ParseTransactionID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid transaction id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid transaction id %q", s)
	}
	return n, nil
}

// ParseIDList parses a comma-separated list of transaction ids, skipping blanks.
func ParseIDList(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := ParseTransactionID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, n)
	}
	return ids, nil
}
