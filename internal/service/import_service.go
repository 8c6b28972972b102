package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"products-api/internal/domain"
	"products-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportError describes a single rejected CSV record. Line numbers start at
// 2, accounting for the header row.
type ImportError struct {
	Line  int      `json:"line"`
	Error string   `json:"error"`
	Data  []string `json:"data,omitempty"`
}

// ImportResult summarizes one bulk import run.
type ImportResult struct {
	BatchID  string        `json:"batch_id"`
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportService loads products in bulk from CSV files. CSV rows are
// normalized rather than strictly validated: the import path tolerates messy
// exports (currency signs, stray ids in names, unknown categories) that the
// JSON API rejects outright.
type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type importService struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(repo repository.ProductRepository, logger *zap.Logger) ImportService {
	return &importService{repo: repo, logger: logger}
}

// ImportCSV reads records of the form name[,#id],price,category,has_active_sale.
// The first row is a header and is skipped. Rows that fail normalization are
// reported per line; valid rows are inserted individually.
func (s *importService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{BatchID: uuid.New().String()}

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	line := 1
	for {
		line++

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, ImportError{
				Line:  line,
				Error: fmt.Sprintf("Failed to parse CSV record: %v", err),
			})
			continue
		}

		product, recordErrs := parseRecord(record, line)
		if len(recordErrs) > 0 {
			result.Errors = append(result.Errors, recordErrs...)
			continue
		}

		if err := s.repo.Create(ctx, product); err != nil {
			s.logger.Error("Failed to insert imported product",
				zap.Int("line", line),
				zap.String("batch_id", result.BatchID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, ImportError{
				Line:  line,
				Error: "Database error",
				Data:  record,
			})
			continue
		}

		result.Imported++
	}

	s.logger.Info("CSV import finished",
		zap.String("batch_id", result.BatchID),
		zap.Int("imported", result.Imported),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func parseRecord(record []string, line int) (*domain.Product, []ImportError) {
	var errs []ImportError

	if len(record) < 4 {
		errs = append(errs, ImportError{
			Line:  line,
			Error: "Invalid number of columns",
			Data:  record,
		})
		return nil, errs
	}

	name := parseName(field(record, 0))
	if name == "" {
		errs = append(errs, ImportError{
			Line:  line,
			Error: "Name is required",
			Data:  record,
		})
	}

	price, priceErr := parsePrice(field(record, 1))
	if priceErr != "" {
		errs = append(errs, ImportError{
			Line:  line,
			Error: priceErr,
			Data:  record,
		})
	}

	category := parseLenientCategory(field(record, 2))

	hasActiveSale, err := strconv.ParseBool(field(record, 3))
	if err != nil {
		hasActiveSale = false
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &domain.Product{
		Name:          name,
		Price:         price,
		Category:      category,
		HasActiveSale: hasActiveSale,
	}, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseName splits an optional "#id" suffix off the raw name, sanitizes both
// halves, and rejoins them. "Laptop #(A-1!)" becomes "Laptop #A-1".
func parseName(raw string) string {
	name, id, found := strings.Cut(raw, "#")
	name = sanitize(strings.TrimSpace(name), func(r rune) bool {
		return isAlphanumeric(r) || unicode.IsSpace(r) || r == '-'
	})
	name = strings.TrimSpace(name)

	if !found {
		return name
	}

	id = strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(id), ")"), "(")
	id = sanitize(id, func(r rune) bool {
		return isAlphanumeric(r) || r == '-' || r == '_'
	})
	if id == "" {
		return name
	}

	return name + " #" + id
}

// parsePrice accepts "$X.XX" or plain numbers and strips zero-width spaces,
// BOMs, and stray line endings that spreadsheet exports leave behind.
func parsePrice(raw string) (float64, string) {
	if raw == "" {
		return 0, "Price is required"
	}

	cleaned := strings.TrimSpace(strings.TrimPrefix(raw, "$"))
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\ufeff', '\r', '\n':
			return -1
		}
		return r
	}, cleaned)

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Sprintf("Invalid price format. Expected format: $X.XX, got: %q", raw)
	}
	if price < 0 {
		return 0, fmt.Sprintf("Invalid price: must be non-negative, got: %v", price)
	}

	return price, ""
}

// parseLenientCategory folds case and maps unknown tokens to "other".
func parseLenientCategory(raw string) domain.Category {
	category, err := domain.ParseCategory(strings.ToLower(raw))
	if err != nil {
		return domain.CategoryOther
	}
	return category
}

func sanitize(s string, keep func(rune) bool) string {
	return strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, s)
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
