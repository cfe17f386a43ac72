// Package google mirrors the ledger to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetboard/internal/core"
	applog "budgetboard/internal/log"
	ports "budgetboard/internal/sheets"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	ExpensesSheet   string
	IncomeSheet     string
	CredentialsJSON string
	CredentialsFile string
}

// values is the part of the Sheets values API the mirror needs.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Append(ctx context.Context, rng string, rows [][]any) error
	Clear(ctx context.Context, rng string) error
}

type Client struct {
	values        values
	expensesSheet string
	incomeSheet   string
	logger        *applog.Logger
}

var _ ports.Mirror = (*Client)(nil)

// New creates a mirror authenticated with service account credentials.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg, logger), nil
}

func newClient(v values, cfg Config, logger *applog.Logger) *Client {
	expenses, income := cfg.ExpensesSheet, cfg.IncomeSheet
	if expenses == "" {
		expenses = "Expenses"
	}
	if income == "" {
		income = "Income"
	}
	return &Client{
		values:        v,
		expensesSheet: expenses,
		incomeSheet:   income,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

// newSheetsService initializes a Sheets service from inline JSON or a file.
func newSheetsService(ctx context.Context, cfg Config, logger *applog.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.Debug("Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.Debug("Read service account credentials", "path", cfg.CredentialsFile)
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) AppendExpense(ctx context.Context, e core.Expense) error {
	key := strconv.FormatInt(e.ID, 10)
	row, err := c.findRow(ctx, c.expensesSheet, key)
	if err != nil {
		return err
	}
	if row > 0 {
		c.logger.Debug("Expense already mirrored", applog.FieldExpenseID, e.ID, "row", row)
		return nil
	}

	rng := fmt.Sprintf("%s!A:E", c.expensesSheet)
	vals := [][]any{{key, e.Date.String(), e.Category, e.Description, e.Amount.Float()}}
	if err := c.values.Append(ctx, rng, vals); err != nil {
		return fmt.Errorf("append expense %d to %s: %w", e.ID, c.expensesSheet, err)
	}
	c.logger.Info("Expense mirrored", applog.FieldExpenseID, e.ID)
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	row, err := c.findRow(ctx, c.expensesSheet, strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	if row == 0 {
		c.logger.Debug("Expense not in sheet", applog.FieldExpenseID, id)
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:E%d", c.expensesSheet, row, row)
	if err := c.values.Clear(ctx, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.Info("Expense removed from sheet", applog.FieldExpenseID, id, "row", row)
	return nil
}

func (c *Client) UpsertIncome(ctx context.Context, in core.Income) error {
	key := in.Period().String()
	vals := [][]any{{key, in.Amount.Float()}}

	row, err := c.findRow(ctx, c.incomeSheet, key)
	if err != nil {
		return err
	}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:B%d", c.incomeSheet, row, row)
		if err := c.values.Update(ctx, rng, vals); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
	} else if err := c.values.Append(ctx, fmt.Sprintf("%s!A:B", c.incomeSheet), vals); err != nil {
		return fmt.Errorf("append income %s: %w", key, err)
	}
	c.logger.Info("Income mirrored", applog.FieldPeriod, key)
	return nil
}

// findRow returns the 1-based row whose first column equals key, or 0.
func (c *Client) findRow(ctx context.Context, sheet, key string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	rows, err := c.values.Get(ctx, rng)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == key {
			return i + 1, nil
		}
	}
	return 0, nil
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) Append(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}
