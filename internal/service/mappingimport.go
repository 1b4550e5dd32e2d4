package service

import (
	"context"
	"io"
	"strings"

	"github.com/jask/ledgerlock/internal/database/repository"
	"github.com/jask/ledgerlock/internal/format"
)

// MappingImportResult accumulates per-rule outcomes of a bulk rule import.
type MappingImportResult struct {
	Imported int
	Skipped  int // duplicates of existing rule keys
	Errors   []error
}

// ImportMappings bulk-loads description->category/payee rules from a CSV
// with description/category/payee columns. Same session shape as the
// transaction import: parse, resolve unmapped names, dedupe, commit.
// Duplicates are keyed by the rule's description text, case-insensitively,
// against the existing rule table.
func (s *ImportService) ImportMappings(ctx context.Context, r io.Reader, decider CategoryDecider) (MappingImportResult, error) {
	var res MappingImportResult

	records, err := readAll(r)
	if err != nil {
		return res, err
	}
	if len(records) == 0 {
		return res, nil
	}
	header, data := records[0], records[1:]

	existing, err := s.existingMappingKeys(ctx)
	if err != nil {
		return res, err
	}

	type rule struct {
		description string
		category    string
		payee       string
	}
	var rules []rule
	seen := make(map[string]bool) // dedupe inside the file too
	for _, rec := range data {
		row := format.Normalize(header, rec)
		ru := rule{
			description: firstValue(row, "description", "match", "pattern"),
			category:    firstValue(row, "category", "category name"),
			payee:       firstValue(row, "payee", "payee name"),
		}
		if ru.description == "" || ru.category == "" {
			continue
		}
		key := strings.ToLower(ru.description)
		if existing[key] || seen[key] {
			res.Skipped++
			continue
		}
		seen[key] = true
		rules = append(rules, ru)
	}

	// resolve category names with no live category before writing anything
	resolved := make(map[string]bool)
	for _, ru := range rules {
		if ru.category == TransferSentinel || resolved[ru.category] {
			continue
		}
		cat, err := s.Resolver.FindCategoryByName(ctx, ru.category)
		if err != nil {
			return res, err
		}
		if cat != nil {
			resolved[ru.category] = true
			continue
		}
		if decider == nil {
			return res, ErrImportCancelled
		}
		decision, ok := decider.DecideCategory(ru.category)
		if !ok {
			return res, ErrImportCancelled
		}
		if decision.CreateNew {
			ct, err := s.Vault.Encrypt(ru.category)
			if err != nil {
				return res, err
			}
			typ := decision.Type
			if typ == "" {
				typ = repository.TypeExpense
			}
			if _, err := s.Categories.Insert(ctx, repository.Category{Name: ct, Type: typ}); err != nil {
				return res, err
			}
		}
		resolved[ru.category] = true
	}

	for _, ru := range rules {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		catCT, err := s.Vault.Encrypt(ru.category)
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		m := repository.DescriptionMapping{Description: ru.description, CategoryName: catCT}
		if ru.payee != "" {
			payeeCT, err := s.Vault.Encrypt(ru.payee)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			m.PayeeName = &payeeCT
		}
		if err := s.Mappings.UpsertDescription(ctx, m); err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Imported++
	}
	return res, nil
}

func (s *ImportService) existingMappingKeys(ctx context.Context) (map[string]bool, error) {
	mappings, err := s.Mappings.ListDescriptions(ctx)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		keys[strings.ToLower(m.Description)] = true
	}
	return keys, nil
}

func firstValue(row map[string]string, synonyms ...string) string {
	for _, k := range synonyms {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}
