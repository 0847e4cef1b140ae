package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the calls WritePanel makes against the REST API.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared []string
	written map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet:
		sheets := []map[string]any{}
		for _, title := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		title := req.Requests[0].AddSheet.Properties.Title
		f.added = append(f.added, title)
		f.titles = append(f.titles, title)
		w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, rangeOf(path, ":clear"))
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.written[rangeOf(path, "")] = vr.Values
		w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func rangeOf(path, suffix string) string {
	i := strings.Index(path, "/values/")
	return strings.TrimSuffix(path[i+len("/values/"):], suffix)
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return New(svc, "sheet-id", "")
}

func TestWritePanelCreatesMissingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"2024 Painel"}, written: map[string][][]any{}}
	c := newFakeClient(t, fake)

	table := [][]any{{"Membro", "Dízimo (R$) - Jan"}, {"Maria", 100.0}}
	require.NoError(t, c.WritePanel(context.Background(), 2025, table))

	assert.Equal(t, []string{"2025 Painel"}, fake.added)
	assert.Equal(t, []string{"'2025 Painel'!A:ZZ"}, fake.cleared)
	got := fake.written["'2025 Painel'!A1"]
	require.Len(t, got, 2)
	assert.Equal(t, "Maria", got[1][0])
	assert.Equal(t, 100.0, got[1][1])
}

func TestWritePanelReusesExistingSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"2025 Painel"}, written: map[string][][]any{}}
	c := newFakeClient(t, fake)

	require.NoError(t, c.WritePanel(context.Background(), 2025, [][]any{{"Membro"}}))
	assert.Empty(t, fake.added)
	assert.Len(t, fake.written, 1)
}

func TestWritePanelWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x", baseName: "Painel"}
	assert.Error(t, c.WritePanel(context.Background(), 2025, nil))
}

func TestNewFromEnvMissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	_, err := NewFromEnv(context.Background())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := serviceAccountCredentials()
	assert.ErrorContains(t, err, "missing service account credentials")

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err := serviceAccountCredentials()
	require.NoError(t, err)
	assert.Contains(t, string(b), "service_account")

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"inline":true}`)
	b, err = serviceAccountCredentials()
	require.NoError(t, err)
	assert.Equal(t, `{"inline":true}`, string(b))
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base     string
		year     int
		expected string
	}{
		{"Painel", 2025, "2025 Painel"},
		{" Painel ", 2024, "2024 Painel"},
		{"", 2023, ""},
		{"2025 Painel Anual", 2024, "2025 Painel Anual"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.expected)
		}
	}
}
