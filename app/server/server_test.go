package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/random-theme/app/catalog"
	"github.com/umputun/random-theme/app/enum"
	"github.com/umputun/random-theme/app/history"
	"github.com/umputun/random-theme/app/picker"
	"github.com/umputun/random-theme/app/store"
	"github.com/umputun/random-theme/app/switcher"
)

const key = "swingLookAndFeel"

type testEnv struct {
	srv     *Server
	cell    *store.Cached
	history *history.Store
}

func newTestEnv(t *testing.T, withHistory bool) testEnv {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	cell, err := store.NewCached(db, 10, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cell.Close() })

	cat := &catalog.Catalog{
		Light: []catalog.Theme{{Name: "A", ID: "a"}},
		Dark:  []catalog.Theme{{Name: "B", ID: "b"}, {Name: "C", ID: "c"}},
	}

	env := testEnv{cell: cell}
	var rec switcher.Recorder
	var hr HistoryReader
	if withHistory {
		env.history, err = history.New(history.Config{Path: filepath.Join(t.TempDir(), ".history")})
		require.NoError(t, err)
		rec, hr = env.history, env.history
	}
	sw := switcher.New(cell, cat, picker.New(nil), key, rec)
	env.srv = New(sw, hr, Config{Address: ":0", ReadTimeout: time.Second, Version: "test"})
	return env
}

func (e testEnv) do(t *testing.T, method, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, http.NoBody)
	rec := httptest.NewRecorder()
	e.srv.routes().ServeHTTP(rec, req)
	return rec
}

func TestServer_Ping(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, "random-theme", rec.Header().Get("App-Name"))
}

func TestServer_HandleCurrent(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("not set", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/theme")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("set", func(t *testing.T) {
		require.NoError(t, env.cell.Set(context.Background(), key, "b"))
		rec := env.do(t, http.MethodGet, "/api/v1/theme")
		require.Equal(t, http.StatusOK, rec.Code)

		var th catalog.Theme
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &th))
		assert.Equal(t, catalog.Theme{Name: "B", ID: "b"}, th)
	})
}

func TestServer_HandleSwitch_ExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GLOBAL_prefs.txt")
	require.NoError(t, os.WriteFile(path, []byte(key+"=a\n"), 0o600))
	cell, err := store.NewCached(store.NewProps(path), 10, time.Hour)
	require.NoError(t, err)

	cat := &catalog.Catalog{Light: []catalog.Theme{{Name: "A", ID: "a"}}, Dark: []catalog.Theme{{Name: "B", ID: "b"}}}
	env := testEnv{cell: cell, srv: New(switcher.New(cell, cat, picker.New(nil), key, nil), nil, Config{Version: "test"})}

	rec := env.do(t, http.MethodGet, "/api/v1/theme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"a"`)

	// host application rewrites the prefs file while the server runs
	require.NoError(t, os.WriteFile(path, []byte(key+"=b\n"), 0o600))

	rec = env.do(t, http.MethodPost, "/api/v1/theme/all")
	require.Equal(t, http.StatusOK, rec.Code)
	var res switcher.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "b", res.Previous)
	assert.Equal(t, catalog.Theme{Name: "A", ID: "a"}, res.Theme)

	stored, err := store.NewProps(path).Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "a", stored)
}

func TestServer_HandleSwitch(t *testing.T) {
	env := newTestEnv(t, false)

	t.Run("switch all", func(t *testing.T) {
		prev := ""
		for range 10 {
			rec := env.do(t, http.MethodPost, "/api/v1/theme/all")
			require.Equal(t, http.StatusOK, rec.Code)

			var res switcher.Result
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEqual(t, prev, res.Theme.ID)
			assert.Equal(t, prev, res.Previous)
			assert.Equal(t, enum.GroupAll, res.Group)
			prev = res.Theme.ID

			stored, err := env.cell.Get(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, res.Theme.ID, stored)
		}
	})

	t.Run("switch dark from light", func(t *testing.T) {
		require.NoError(t, env.cell.Set(context.Background(), key, "a"))
		rec := env.do(t, http.MethodPost, "/api/v1/theme/dark")
		require.Equal(t, http.StatusOK, rec.Code)
		var res switcher.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Contains(t, []string{"b", "c"}, res.Theme.ID)
		assert.Equal(t, "a", res.Previous)
	})

	t.Run("invalid group", func(t *testing.T) {
		require.NoError(t, env.cell.Set(context.Background(), key, "a"))
		rec := env.do(t, http.MethodPost, "/api/v1/theme/bogus")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		stored, err := env.cell.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, "a", stored, "no write on invalid group")
	})
}

func TestServer_HandleCatalog(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		group string
		code  int
		ids   []string
	}{
		{"all", http.StatusOK, []string{"a", "b", "c"}},
		{"light", http.StatusOK, []string{"a"}},
		{"dark", http.StatusOK, []string{"b", "c"}},
		{"purple", http.StatusBadRequest, nil},
	}
	for _, tc := range tests {
		t.Run(tc.group, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/catalog/"+tc.group)
			require.Equal(t, tc.code, rec.Code)
			if tc.code != http.StatusOK {
				return
			}
			var themes []catalog.Theme
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &themes))
			ids := make([]string, 0, len(themes))
			for _, th := range themes {
				ids = append(ids, th.ID)
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestServer_HandleHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.do(t, http.MethodGet, "/api/v1/history")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, true)

		rec := env.do(t, http.MethodGet, "/api/v1/history")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())

		for range 3 {
			require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/theme/all").Code)
		}

		rec = env.do(t, http.MethodGet, "/api/v1/history")
		require.Equal(t, http.StatusOK, rec.Code)
		var entries []history.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 3)
		assert.Equal(t, "all", entries[0].Group)

		stored, err := env.cell.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, stored, entries[0].ID)

		rec = env.do(t, http.MethodGet, "/api/v1/history?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 2)
	})

	t.Run("invalid limit", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec := env.do(t, http.MethodGet, "/api/v1/history?limit=-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec = env.do(t, http.MethodGet, "/api/v1/history?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Run(t *testing.T) {
	env := newTestEnv(t, false)
	port := freePort(t)
	env.srv.cfg.Address = fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- env.srv.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/ping", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec,noctx // test code
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
