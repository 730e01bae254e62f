package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionwatch/internal/domain"
)

func TestHTTPSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes data envelope", func(t *testing.T) {
		var gotCookie string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"sessionUid":"a"},{"sessionUid":"b"}]}`))
		}))
		defer srv.Close()

		records, err := NewHTTPSource(srv.Client(), srv.URL, "session=abc").Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.JSONEq(t, `{"sessionUid":"a"}`, string(records[0]))
		assert.Equal(t, "session=abc", gotCookie)
	})

	t.Run("empty data is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		records, err := NewHTTPSource(nil, srv.URL, "").Fetch(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200 status", status: http.StatusForbidden, body: `{"data":[]}`},
		{name: "malformed body", status: http.StatusOK, body: `<html>`},
		{name: "missing data", status: http.StatusOK, body: `{"items":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPSource(srv.Client(), srv.URL, "").Fetch(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
		})
	}

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPSource(nil, url, "").Fetch(ctx)
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := []struct {
		name    string
		path    string
		want    int
		wantErr bool
	}{
		{name: "envelope", path: write("envelope.json", `{"data":[{"sessionUid":"a"}]}`), want: 1},
		{name: "bare array", path: write("array.json", "\n [{\"sessionUid\":\"a\"},{\"sessionUid\":\"b\"}]"), want: 2},
		{name: "empty array", path: write("empty.json", `[]`), want: 0},
		{name: "empty file", path: write("blank.json", ""), wantErr: true},
		{name: "null", path: write("null.json", "null"), wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewFileSource(tt.path).Fetch(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}
