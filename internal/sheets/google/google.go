package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"finbook/internal/core"
	"finbook/internal/log"
	ports "finbook/internal/sheets"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.TransactionAppender = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth, in order of preference: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS; else
// the GOOGLE_OAUTH_CLIENT_JSON/FILE + GOOGLE_OAUTH_TOKEN_JSON/FILE pair
// produced by cmd/oauth-init.
// Optional: GOOGLE_SHEET_NAME (default "Transactions").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	log.ForComponent(log.ComponentSheets).InfoContext(ctx, "Google Sheets client ready",
		"spreadsheet_id", spreadsheetID, "sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	creds, err := credentialFromEnv("GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE")
	if err != nil {
		return nil, err
	}
	if creds == nil {
		if file := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); file != "" {
			creds, err = os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
		}
	}
	if creds != nil {
		service, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	// No service account: fall back to the OAuth client plus the token
	// written by cmd/oauth-init.
	return newOAuthSheetsService(ctx)
}

func newOAuthSheetsService(ctx context.Context) (*gsheet.Service, error) {
	clientJSON, err := credentialFromEnv("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := credentialFromEnv("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON/FILE, GOOGLE_APPLICATION_CREDENTIALS, or the GOOGLE_OAUTH_CLIENT and GOOGLE_OAUTH_TOKEN pair)")
	}

	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// credentialFromEnv reads a credential given an inline-JSON variable
// and a file-path variable; nil means neither is set.
func credentialFromEnv(jsonVar, fileVar string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonVar)); v != "" {
		return []byte(v), nil
	}
	if file := strings.TrimSpace(os.Getenv(fileVar)); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileVar, err)
		}
		return b, nil
	}
	return nil, nil
}

// AppendTransaction appends one row: date, type, description, amount,
// account, category, currency.
func (c *Client) AppendTransaction(ctx context.Context, tx *core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if tx == nil {
		return errors.New("nil transaction")
	}

	amount := float64(tx.Amount.Cents) / 100.0
	row := []any{
		tx.Date.String(),
		string(tx.Type),
		tx.Description,
		amount,
		tx.AccountName,
		tx.CategoryName,
		tx.CurrencySymbol,
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}
