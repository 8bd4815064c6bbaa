package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const oauthClientJSON = `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

// clearAuthEnv blanks every credential variable so each test starts
// from a known environment.
func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SPREADSHEET_ID",
		"GOOGLE_SHEET_NAME",
		"GOOGLE_SERVICE_ACCOUNT_JSON",
		"GOOGLE_SERVICE_ACCOUNT_FILE",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_CLIENT_JSON",
		"GOOGLE_OAUTH_CLIENT_FILE",
		"GOOGLE_OAUTH_TOKEN_JSON",
		"GOOGLE_OAUTH_TOKEN_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnvMissingSpreadsheetID(t *testing.T) {
	clearAuthEnv(t)

	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing spreadsheet id error, got %v", err)
	}
}

func TestNewFromEnvMissingCredentials(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNewFromEnvOAuthPair(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", oauthClientJSON)
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", `{"access_token":"tok","token_type":"Bearer"}`)

	c, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("expected oauth pair to authenticate, got %v", err)
	}
	if c.svc == nil {
		t.Fatalf("expected initialized sheets service")
	}
	if c.sheetName != "Transactions" {
		t.Fatalf("expected default sheet name, got %q", c.sheetName)
	}
}

func TestNewFromEnvOAuthTokenFile(t *testing.T) {
	clearAuthEnv(t)

	// The token file written by the oauth-init flow is enough on its own.
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(tokenFile, []byte(`{"access_token":"tok","token_type":"Bearer"}`), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", oauthClientJSON)
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", tokenFile)

	if _, err := NewFromEnv(context.Background()); err != nil {
		t.Fatalf("expected token file to authenticate, got %v", err)
	}
}

func TestNewFromEnvOAuthInvalidClient(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "not json")
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", `{"access_token":"tok"}`)

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestNewFromEnvOAuthInvalidToken(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", oauthClientJSON)
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", "not json")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "oauth token") {
		t.Fatalf("expected oauth token error, got %v", err)
	}
}
