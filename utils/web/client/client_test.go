package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func splitHostPort(t *testing.T, raw string) (string, int) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}

func TestDoJson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/kernel/falla" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no existe el proceso"}`))
			return
		}
		w.Write([]byte(`{"pid":7}`))
	}))
	defer srv.Close()
	ip, port := splitHostPort(t, srv.URL)

	var out struct {
		Pid int `json:"pid"`
	}
	require.NoError(t, DoJson(context.Background(), ip, port, "POST", "kernel/procesos", map[string]int{"prioridad": 3}, &out))
	assert.Equal(t, 7, out.Pid)

	err := DoJson(context.Background(), ip, port, "GET", "kernel/falla", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no existe el proceso")
}
