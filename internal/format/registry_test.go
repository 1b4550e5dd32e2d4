package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := Default().Lookup("no-such-bank")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNormalizeTrimsAndLowercasesKeys(t *testing.T) {
	t.Parallel()
	row := Normalize(
		[]string{"  Transaction Date ", "AMOUNT", "Description"},
		[]string{" 2024-03-01 ", "12.00", " COFFEE "},
	)
	require.Equal(t, "2024-03-01", row["transaction date"])
	require.Equal(t, "12.00", row["amount"])
	require.Equal(t, "COFFEE", row["description"])
}

func TestCheckingSignPolicy(t *testing.T) {
	t.Parallel()
	fn, err := Default().Lookup("checking")
	require.NoError(t, err)

	debit := fn(map[string]string{
		"transaction date":        "01/03/2024",
		"transaction type":        "Debit",
		"transaction amount":      "50.00",
		"transaction description": "GROCER",
		"account number":          "0012345",
	})
	require.Equal(t, "-50.00", debit.Amount)
	require.Equal(t, "2024-03-01", debit.Date)
	require.Equal(t, "GROCER", debit.Description)
	require.Equal(t, "0012345", debit.Account)

	credit := fn(map[string]string{
		"transaction type":   "Credit",
		"transaction amount": "50.00",
	})
	require.Equal(t, "50.00", credit.Amount)
}

func TestCheckingHeaderSynonyms(t *testing.T) {
	t.Parallel()
	fn, err := Default().Lookup("checking")
	require.NoError(t, err)

	row := fn(map[string]string{
		"trans date":  "2024-02-10",
		"memo":        "PAYROLL",
		"amount":      "1,200.00",
		"type":        "CREDIT",
		"acct":        "99",
	})
	require.Equal(t, "2024-02-10", row.Date)
	require.Equal(t, "PAYROLL", row.Description)
	require.Equal(t, "1200.00", row.Amount)
	require.Equal(t, "99", row.Account)
}

func TestCardSplitColumns(t *testing.T) {
	t.Parallel()
	fn, err := Default().Lookup("card")
	require.NoError(t, err)

	debit := fn(map[string]string{
		"transaction date": "2024-01-05",
		"description":      "RESTAURANT",
		"debit":            "32.80",
	})
	require.Equal(t, "-32.80", debit.Amount)

	credit := fn(map[string]string{
		"transaction date": "2024-01-06",
		"description":      "REFUND",
		"credit":           "18.99",
	})
	require.Equal(t, "18.99", credit.Amount)

	empty := fn(map[string]string{"transaction date": "2024-01-07"})
	require.Equal(t, "", empty.Amount)
}

func TestSimpleKeepsSign(t *testing.T) {
	t.Parallel()
	fn, err := Default().Lookup("simple")
	require.NoError(t, err)

	row := fn(map[string]string{
		"date":        "2/01/2024",
		"amount":      "-20",
		"description": "DAN MURPHY'S SPOTSWOOD",
	})
	require.Equal(t, "-20.00", row.Amount)
	require.Equal(t, "2024-01-02", row.Date)
}

func TestISODateDayFirst(t *testing.T) {
	t.Parallel()

	// ambiguous numeric dates resolve day-first
	require.Equal(t, "2024-01-02", isoDate("2/01/2024"))
	require.Equal(t, "2024-01-02", isoDate("02/01/2024"))
	require.Equal(t, "2024-01-02", isoDate("2-1-2024"))
	require.Equal(t, "2024-03-14", isoDate("14/03/2024"))
	require.Equal(t, "2024-03-14", isoDate("2024-03-14"))
	require.Equal(t, "2024-03-14", isoDate("Mar 14, 2024"))

	// unrecognized input passes through for validation to reject
	require.Equal(t, "31/31/2024", isoDate("31/31/2024"))
	require.Equal(t, "not a date", isoDate("not a date"))
}

func TestMissingFieldsFallBackToEmpty(t *testing.T) {
	t.Parallel()
	fn, err := Default().Lookup("checking")
	require.NoError(t, err)

	row := fn(map[string]string{})
	require.Equal(t, "", row.Date)
	require.Equal(t, "", row.Description)
	require.Equal(t, "", row.Amount)
}
