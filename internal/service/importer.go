package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/db/repository"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/policy"
	"github.com/salesvisit/visit-service/internal/websockets"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Spreadsheet header names of the customer import
const (
	ImportColumnName   = "STANDARD_NAME"
	ImportColumnNipNas = "NIP_NAS"
)

const (
	importMsgMissing   = "Missing STANDARD_NAME or NIP_NAS"
	importMsgDuplicate = "Duplicate NIP_NAS"
	importMsgDatabase  = "Database error"
)

// ImportService bulk-loads customers from spreadsheets
type ImportService struct {
	store    Store
	notifier *Notifier
	log      *zap.Logger
	tempDir  string
}

// NewImportService creates an import service staging uploads in tempDir.
// An empty tempDir uses the system default.
func NewImportService(store Store, notifier *Notifier, tempDir string, log *zap.Logger) *ImportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportService{store: store, notifier: notifier, tempDir: tempDir, log: log}
}

// ImportCustomers reads the first sheet of an uploaded workbook and inserts one
// IMPORT customer per valid row. Rows succeed or fail independently. Admin only.
func (s *ImportService) ImportCustomers(ctx context.Context, p policy.Principal, upload io.Reader) (*models.ImportResult, error) {
	if !p.IsAdmin() {
		return nil, policyErr(policy.ErrAdminOnly)
	}

	path, err := s.stage(upload)
	if err != nil {
		return nil, api.Internal("Failed to store upload", err)
	}
	defer os.Remove(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, api.Wrap(api.KindValidation, "File is not a readable spreadsheet", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, api.Wrap(api.KindValidation, "Failed to read spreadsheet", err)
	}

	result := s.importRows(ctx, p, rows)

	s.log.Info("customers imported",
		zap.Int("inserted", result.Inserted),
		zap.Int("rejected", len(result.Errors)),
		zap.String("by", p.ID.String()),
	)
	if result.Inserted > 0 {
		s.notifier.Notify(ctx, websockets.TypeCustomersImported, p.ID, map[string]int{"inserted": result.Inserted})
	}
	return result, nil
}

// stage copies the upload to a temp file and returns its path
func (s *ImportService) stage(upload io.Reader) (string, error) {
	tmp, err := os.CreateTemp(s.tempDir, "customers-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, upload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// importRows processes data rows. Reported row numbers are spreadsheet rows,
// so the first data row is 2.
func (s *ImportService) importRows(ctx context.Context, p policy.Principal, rows [][]string) *models.ImportResult {
	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	if len(rows) < 2 {
		return result
	}

	nameCol, nipCol := headerIndex(rows[0], ImportColumnName), headerIndex(rows[0], ImportColumnNipNas)

	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			continue
		}

		name, nipNas := cell(row, nameCol), cell(row, nipCol)
		if name == "" || nipNas == "" {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Message: importMsgMissing})
			continue
		}

		exists, err := s.store.Customers().ExistsByNipNas(ctx, nipNas)
		if err != nil {
			s.log.Warn("import row lookup failed", zap.Int("row", rowNum), zap.Error(err))
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Message: importMsgDatabase})
			continue
		}
		if exists {
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Message: importMsgDuplicate})
			continue
		}

		_, err = s.store.Customers().Create(ctx, models.Customer{
			Name:      name,
			NipNas:    &nipNas,
			Status:    models.CustomerStatusActive,
			Source:    models.CustomerSourceImport,
			CreatedBy: p.ID,
		})
		if err != nil {
			msg := importMsgDatabase
			if errors.Is(err, repository.ErrConflict) {
				msg = importMsgDuplicate
			} else {
				s.log.Warn("import row insert failed", zap.Int("row", rowNum), zap.Error(err))
			}
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Message: msg})
			continue
		}
		result.Inserted++
	}
	return result
}

// headerIndex returns the column holding name, or -1
func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
