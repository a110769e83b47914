package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klokku/timestudy/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type fakeSheetsApi struct {
	created     map[string]any
	valueRanges []map[string]any
	failValues  bool
}

func (f *fakeSheetsApi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v4/spreadsheets":
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId":  "sheet-123",
			"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/sheet-123",
		})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-123/values/"):
		if f.failValues {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.valueRanges = append(f.valueRanges, body)
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-123"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupPublisher(t *testing.T, api *fakeSheetsApi) *SheetsPublisher {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	publisher, err := NewSheetsPublisher(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return publisher
}

func TestSheetsPublisher_Publish(t *testing.T) {
	table := report.Table{
		Columns: []string{"Makine", "Süre (sn)"},
		Rows:    [][]any{{"Dikiş-04", 300.0}},
	}

	t.Run("should create spreadsheet and write table", func(t *testing.T) {
		// given
		api := &fakeSheetsApi{}
		publisher := setupPublisher(t, api)

		// when
		published, err := publisher.Publish(context.Background(), "Etüt Dikiş-04", table)

		// then
		require.NoError(t, err)
		assert.Equal(t, "sheet-123", published.SpreadsheetId)
		assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-123", published.Url)

		properties := api.created["properties"].(map[string]any)
		assert.Equal(t, "Etüt Dikiş-04", properties["title"])

		require.Len(t, api.valueRanges, 1)
		values := api.valueRanges[0]["values"].([]any)
		require.Len(t, values, 2)
		assert.Equal(t, []any{"Makine", "Süre (sn)"}, values[0])
		assert.Equal(t, []any{"Dikiş-04", 300.0}, values[1])
	})

	t.Run("should fail when values cannot be written", func(t *testing.T) {
		api := &fakeSheetsApi{failValues: true}
		publisher := setupPublisher(t, api)

		_, err := publisher.Publish(context.Background(), "Etüt", table)

		assert.Error(t, err)
	})
}

func TestNewSheetsPublisherFromFile(t *testing.T) {
	t.Run("should report missing dependency for unreadable credentials", func(t *testing.T) {
		_, err := NewSheetsPublisherFromFile(context.Background(), t.TempDir()+"/missing.json")

		assert.ErrorIs(t, err, ErrMissingDependency)
	})
}
