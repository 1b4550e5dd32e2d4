// Package format translates per-bank CSV row shapes into the canonical
// transaction row the import pipeline works with.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownFormat is returned when a format id was never registered.
var ErrUnknownFormat = errors.New("format: unknown format id")

// CanonicalRow is the bank-agnostic shape of one imported transaction.
// Date is ISO (2006-01-02), Amount a signed decimal string with two places.
type CanonicalRow struct {
	Account     string
	Description string
	Date        string
	Amount      string
	RawType     string
}

// MapperFunc maps a normalized header->value row to a CanonicalRow.
// Mappers are pure; all lookups go through the normalized key set.
type MapperFunc func(row map[string]string) CanonicalRow

// Registry is a named table of mappers.
type Registry struct {
	mappers map[string]MapperFunc
}

func NewRegistry() *Registry {
	return &Registry{mappers: make(map[string]MapperFunc)}
}

func (r *Registry) Register(id string, fn MapperFunc) {
	r.mappers[id] = fn
}

func (r *Registry) Lookup(id string) (MapperFunc, error) {
	fn, ok := r.mappers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}
	return fn, nil
}

// IDs lists the registered format ids.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.mappers))
	for id := range r.mappers {
		out = append(out, id)
	}
	return out
}

// Normalize zips a header and a record into a row map with lower-cased,
// trimmed keys so mappers match headers case-insensitively.
func Normalize(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, h := range header {
		if i >= len(record) {
			break
		}
		row[strings.ToLower(strings.TrimSpace(h))] = strings.TrimSpace(record[i])
	}
	return row
}

// pick returns the first non-empty value among the synonym keys.
func pick(row map[string]string, synonyms ...string) string {
	for _, k := range synonyms {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Ambiguous numeric dates are read day-first, as in the AU bank exports
// these formats come from. A US month-first export needs its own format.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"Jan 2, 2006",
}

// isoDate normalizes a bank date string to ISO, returning the input
// unchanged when no layout matches so validation can reject it later.
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// signedAmount parses amount and applies the sign policy for single-column
// formats: a type containing "debit" forces negative, "credit" positive.
func signedAmount(amount, rawType string) string {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(amount), ",", ""))
	if err != nil {
		return ""
	}
	switch {
	case strings.Contains(strings.ToLower(rawType), "debit"):
		d = d.Abs().Neg()
	case strings.Contains(strings.ToLower(rawType), "credit"):
		d = d.Abs()
	}
	return d.StringFixed(2)
}

// splitAmount applies the sign policy for separate debit/credit columns.
func splitAmount(debit, credit string) string {
	if strings.TrimSpace(debit) != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(debit), ",", ""))
		if err != nil {
			return ""
		}
		return d.Abs().Neg().StringFixed(2)
	}
	if strings.TrimSpace(credit) != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(credit), ",", ""))
		if err != nil {
			return ""
		}
		return d.Abs().StringFixed(2)
	}
	return ""
}

// Default returns a registry with the built-in bank formats.
func Default() *Registry {
	r := NewRegistry()
	r.Register("checking", mapChecking)
	r.Register("card", mapCard)
	r.Register("simple", mapSimple)
	return r
}

// mapChecking handles exports with a single amount column plus a
// debit/credit type string.
func mapChecking(row map[string]string) CanonicalRow {
	rawType := pick(row, "transaction type", "type", "trans type")
	return CanonicalRow{
		Account:     pick(row, "account number", "account", "acct"),
		Description: pick(row, "transaction description", "description", "memo", "details"),
		Date:        isoDate(pick(row, "transaction date", "date", "trans date", "posting date")),
		Amount:      signedAmount(pick(row, "transaction amount", "amount"), rawType),
		RawType:     rawType,
	}
}

// mapCard handles exports with separate Debit and Credit columns.
func mapCard(row map[string]string) CanonicalRow {
	return CanonicalRow{
		Account:     pick(row, "card number", "account number", "account", "card no."),
		Description: pick(row, "description", "transaction description", "merchant", "details"),
		Date:        isoDate(pick(row, "transaction date", "date", "posted date")),
		Amount:      splitAmount(pick(row, "debit", "debit amount", "withdrawals"), pick(row, "credit", "credit amount", "deposits")),
		RawType:     "",
	}
}

// mapSimple handles minimal date,amount,description exports where the sign
// is already carried on the amount.
func mapSimple(row map[string]string) CanonicalRow {
	amount := ""
	if raw := pick(row, "amount", "transaction amount", "value"); raw != "" {
		if d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err == nil {
			amount = d.StringFixed(2)
		}
	}
	return CanonicalRow{
		Account:     pick(row, "account", "account number"),
		Description: pick(row, "description", "narrative", "details", "memo"),
		Date:        isoDate(pick(row, "date", "transaction date", "trans date")),
		Amount:      amount,
		RawType:     pick(row, "type", "transaction type"),
	}
}
