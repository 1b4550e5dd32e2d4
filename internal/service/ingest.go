package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/format"
	"github.com/jask/ledgerlock/internal/vault"
)

var (
	// ErrParse means the CSV file itself is malformed. The whole import
	// session aborts; nothing is committed.
	ErrParse = errors.New("import: parse failed")
	// ErrImportCancelled means the reviewer abandoned unmapped-category
	// resolution. The whole import aborts; nothing is committed.
	ErrImportCancelled = errors.New("import: cancelled")
)

// nearDuplicateFloor is the similarity above which a row is surfaced as a
// probable duplicate even though the exact three-field match failed.
const nearDuplicateFloor = 0.6

// ImportService runs CSV imports: parse, map, validate, dedupe, suggest,
// commit. Review between suggest and commit belongs to the caller.
type ImportService struct {
	Vault        *vault.Vault
	Transactions *repository.TransactionRepo
	Categories   *repository.CategoryRepo
	Payees       *repository.PayeeRepo
	Mappings     *repository.MappingRepo
	Formats      *format.Registry
	Resolver     *Resolver
}

// ReviewRow is one import candidate surfaced for review. Suggested* fields
// are computed; Override* and Skip carry the reviewer's decisions back into
// Commit.
type ReviewRow struct {
	Date               string
	Description        string
	Amount             string
	AccountNumber      string
	AccountDisplayName string

	SuggestedCategoryID   *int64
	SuggestedTransfer     bool
	SuggestedCategoryName string // from the mapping; set even when dangling
	NeedsCategory         bool   // mapping names a category that does not exist
	SuggestedPayeeID      *int64
	SuggestedPayeeName    string

	IsDuplicate bool
	Similarity  float64 // closest stored same-amount transaction, when notable

	Skip               bool
	OverrideCategoryID *int64
	OverrideTransfer   bool
	LinkedID           *string
	OverridePayeeID    *int64
	Note               string
	SaveMapping        bool
}

// CommitResult accumulates per-row outcomes; the batch is best-effort.
type CommitResult struct {
	ImportedIDs []string
	Skipped     int
	Errors      []error
}

// CategoryDecision answers "what do I do with this unmapped category name".
type CategoryDecision struct {
	CategoryID int64
	CreateNew  bool
	Type       repository.CategoryType
}

// CategoryDecider is the review collaborator for category names that match
// no live category. Returning ok=false cancels the whole import.
type CategoryDecider interface {
	DecideCategory(name string) (decision CategoryDecision, ok bool)
}

// DeciderFunc adapts a function to CategoryDecider.
type DeciderFunc func(name string) (CategoryDecision, bool)

func (f DeciderFunc) DecideCategory(name string) (CategoryDecision, bool) { return f(name) }

// storedKey is the decrypted duplicate key of one stored transaction.
// Account is deliberately not part of it.
type storedKey struct {
	date        string
	amount      string
	description string
}

// Process parses and maps a CSV export, drops invalid rows, flags
// duplicates and attaches category/payee suggestions. It writes nothing.
func (s *ImportService) Process(ctx context.Context, r io.Reader, formatID string) ([]ReviewRow, error) {
	mapper, err := s.Formats.Lookup(formatID)
	if err != nil {
		return nil, err
	}

	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header, data := records[0], records[1:]

	existing, err := s.storedKeys(ctx)
	if err != nil {
		return nil, err
	}

	var rows []ReviewRow
	for _, rec := range data {
		canon := mapper(format.Normalize(header, rec))
		if !isValidRow(canon) {
			continue // silently dropped, not an error
		}
		row := ReviewRow{
			Date:          canon.Date,
			Description:   canon.Description,
			Amount:        canon.Amount,
			AccountNumber: canon.Account,
		}
		s.flagDuplicates(&row, existing)
		if err := s.suggest(ctx, &row); err != nil {
			return nil, err
		}
		if name, err := s.accountDisplayName(ctx, canon.Account); err == nil {
			row.AccountDisplayName = name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Commit persists the reviewed rows. Unmapped category names are resolved
// through the decider first; cancelling there aborts everything. After
// that each row commits independently and a failure never rolls back rows
// already written.
func (s *ImportService) Commit(ctx context.Context, rows []ReviewRow, decider CategoryDecider) (CommitResult, error) {
	var res CommitResult

	resolved, err := s.resolveUnmapped(ctx, rows, decider)
	if err != nil {
		return res, err
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			// interruptible only between rows
			return res, err
		}
		row := &rows[i]
		if row.Skip {
			res.Skipped++
			continue
		}
		id, err := s.commitRow(ctx, row, resolved)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("row %q: %w", row.Description, err))
			continue
		}
		res.ImportedIDs = append(res.ImportedIDs, id)
	}
	return res, nil
}

// resolveUnmapped walks the non-skipped rows whose suggested category name
// has no live category and asks the decider per distinct name. Runs before
// any insert so a cancel leaves the store untouched.
func (s *ImportService) resolveUnmapped(ctx context.Context, rows []ReviewRow, decider CategoryDecider) (map[string]int64, error) {
	resolved := make(map[string]int64)
	for i := range rows {
		row := &rows[i]
		if row.Skip || !row.NeedsCategory || row.OverrideTransfer || row.OverrideCategoryID != nil {
			continue
		}
		name := row.SuggestedCategoryName
		if _, done := resolved[name]; done {
			continue
		}
		if decider == nil {
			return nil, ErrImportCancelled
		}
		decision, ok := decider.DecideCategory(name)
		if !ok {
			return nil, ErrImportCancelled
		}
		id := decision.CategoryID
		if decision.CreateNew {
			ct, err := s.Vault.Encrypt(name)
			if err != nil {
				return nil, err
			}
			typ := decision.Type
			if typ == "" {
				typ = repository.TypeExpense
			}
			id, err = s.Categories.Insert(ctx, repository.Category{Name: ct, Type: typ})
			if err != nil {
				return nil, err
			}
		}
		resolved[name] = id
	}
	return resolved, nil
}

func (s *ImportService) commitRow(ctx context.Context, row *ReviewRow, resolved map[string]int64) (string, error) {
	kind, categoryID, autoPayee := s.classify(row, resolved)

	var payeeID *int64
	switch {
	case row.OverridePayeeID != nil:
		payeeID = row.OverridePayeeID
	case row.SuggestedPayeeID != nil:
		payeeID = row.SuggestedPayeeID
	case autoPayee && row.SuggestedPayeeName != "":
		id, err := s.findOrCreatePayee(ctx, row.SuggestedPayeeName)
		if err != nil {
			return "", err
		}
		payeeID = &id
	}

	t := repository.Transaction{
		ID:           uuid.NewString(),
		CategoryKind: kind,
		CategoryID:   categoryID,
		PayeeID:      payeeID,
		AutoPayee:    autoPayee,
	}
	if kind == repository.KindTransfer {
		t.LinkedID = row.LinkedID // present but possibly nil
	}

	var err error
	if t.Date, err = s.Vault.Encrypt(row.Date); err != nil {
		return "", err
	}
	if t.Amount, err = s.Vault.Encrypt(row.Amount); err != nil {
		return "", err
	}
	if t.Description, err = s.Vault.Encrypt(row.Description); err != nil {
		return "", err
	}
	if t.Account, err = s.Vault.Encrypt(row.AccountNumber); err != nil {
		return "", err
	}
	if row.Note != "" {
		note, err := s.Vault.Encrypt(row.Note)
		if err != nil {
			return "", err
		}
		t.Note = &note
	}

	if err := s.Transactions.Insert(ctx, t); err != nil {
		return "", err
	}

	if row.SaveMapping {
		if err := s.saveMapping(ctx, row, kind, categoryID); err != nil {
			log.Printf("warn: mapping for %q not saved: %v", row.Description, err)
		}
	}
	return t.ID, nil
}

// classify decides the category kind for a reviewed row. Auto only applies
// when the id came from a mapping and the reviewer did not override it.
func (s *ImportService) classify(row *ReviewRow, resolved map[string]int64) (repository.CategoryKind, *int64, bool) {
	autoPayee := row.OverridePayeeID == nil && row.SuggestedPayeeName != ""

	switch {
	case row.OverrideTransfer:
		return repository.KindTransfer, nil, autoPayee
	case row.OverrideCategoryID != nil:
		return repository.KindExplicit, row.OverrideCategoryID, autoPayee
	case row.SuggestedTransfer:
		return repository.KindTransfer, nil, autoPayee
	case row.SuggestedCategoryID != nil:
		return repository.KindAuto, row.SuggestedCategoryID, autoPayee
	case row.NeedsCategory:
		if id, ok := resolved[row.SuggestedCategoryName]; ok {
			return repository.KindAuto, &id, autoPayee
		}
		return repository.KindUncategorized, nil, autoPayee
	default:
		return repository.KindUncategorized, nil, autoPayee
	}
}

func (s *ImportService) saveMapping(ctx context.Context, row *ReviewRow, kind repository.CategoryKind, categoryID *int64) error {
	var categoryName string
	switch {
	case kind == repository.KindTransfer:
		categoryName = TransferSentinel
	case categoryID != nil:
		cat, err := s.Categories.Get(ctx, *categoryID)
		if err != nil {
			return err
		}
		categoryName, err = s.Vault.Decrypt(cat.Name)
		if err != nil {
			return err
		}
	default:
		return nil // nothing worth remembering
	}

	ct, err := s.Vault.Encrypt(categoryName)
	if err != nil {
		return err
	}
	m := repository.DescriptionMapping{Description: row.Description, CategoryName: ct}
	if row.SuggestedPayeeName != "" {
		payeeCT, err := s.Vault.Encrypt(row.SuggestedPayeeName)
		if err != nil {
			return err
		}
		m.PayeeName = &payeeCT
	}
	return s.Mappings.UpsertDescription(ctx, m)
}

func (s *ImportService) findOrCreatePayee(ctx context.Context, name string) (int64, error) {
	p, err := s.Resolver.FindPayeeByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if p != nil {
		return p.ID, nil
	}
	ct, err := s.Vault.Encrypt(name)
	if err != nil {
		return 0, err
	}
	return s.Payees.Insert(ctx, repository.Payee{Name: ct})
}

// storedKeys decrypts the duplicate key of every stored transaction.
// O(existing) decrypts per import; fine at interactive scale. A record
// that fails to decrypt is logged and skipped.
func (s *ImportService) storedKeys(ctx context.Context) ([]storedKey, error) {
	txs, err := s.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]storedKey, 0, len(txs))
	for _, t := range txs {
		date, err := s.Vault.Decrypt(t.Date)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return nil, err
			}
			log.Printf("warn: skipping transaction %s: %v", t.ID, err)
			continue
		}
		amount, err := s.Vault.Decrypt(t.Amount)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return nil, err
			}
			log.Printf("warn: skipping transaction %s: %v", t.ID, err)
			continue
		}
		description, err := s.Vault.Decrypt(t.Description)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				return nil, err
			}
			log.Printf("warn: skipping transaction %s: %v", t.ID, err)
			continue
		}
		keys = append(keys, storedKey{date: date, amount: amount, description: description})
	}
	return keys, nil
}

// flagDuplicates compares the candidate against stored keys: exact
// date+amount+description equality marks a duplicate (pre-flagged skip,
// reviewer can override); a close same-amount description is carried as a
// similarity hint only.
func (s *ImportService) flagDuplicates(row *ReviewRow, existing []storedKey) {
	for _, k := range existing {
		if k.date == row.Date && k.amount == row.Amount && k.description == row.Description {
			row.IsDuplicate = true
			row.Skip = true
			row.Similarity = 1
			return
		}
	}
	for _, k := range existing {
		if k.amount != row.Amount {
			continue
		}
		if sim := descriptionSimilarity(k.description, row.Description); sim >= nearDuplicateFloor && sim > row.Similarity {
			row.Similarity = sim
		}
	}
}

func descriptionSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	dist := levenshtein.ComputeDistance(strings.ToUpper(a), strings.ToUpper(b))
	return 1 - float64(dist)/float64(maxLen)
}

// suggest attaches the mapping-derived category and payee suggestions.
func (s *ImportService) suggest(ctx context.Context, row *ReviewRow) error {
	m, err := s.Mappings.GetDescription(ctx, row.Description)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	name, err := s.Vault.Decrypt(m.CategoryName)
	if err != nil {
		return err
	}
	if name == TransferSentinel {
		row.SuggestedTransfer = true
	} else {
		row.SuggestedCategoryName = name
		cat, err := s.Resolver.FindCategoryByName(ctx, name)
		if err != nil {
			return err
		}
		if cat != nil {
			row.SuggestedCategoryID = &cat.ID
		} else {
			row.NeedsCategory = true // dangling: needs review, distinct from "no mapping"
		}
	}

	if m.PayeeName != nil {
		payeeName, err := s.Vault.Decrypt(*m.PayeeName)
		if err != nil {
			return err
		}
		row.SuggestedPayeeName = payeeName
		p, err := s.Resolver.FindPayeeByName(ctx, payeeName)
		if err != nil {
			return err
		}
		if p != nil {
			row.SuggestedPayeeID = &p.ID
		}
		// a missing payee is created at commit, not here
	}
	return nil
}

func (s *ImportService) accountDisplayName(ctx context.Context, account string) (string, error) {
	m, err := s.Mappings.GetAccount(ctx, account)
	if err != nil {
		return "", err
	}
	return s.Vault.Decrypt(m.DisplayName)
}

// readAll slurps the CSV whole; streaming is out of scope. Blank lines are
// skipped, any structural error aborts the session.
func readAll(r io.Reader) ([][]string, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func isValidRow(c format.CanonicalRow) bool {
	return c.Date != "" && c.Description != ""
}
