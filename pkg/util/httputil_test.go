package util_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/barter-daemon/pkg/util"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
			return
		}
		w.Write([]byte(`{"price":"42.5"}`))
	}))
	t.Cleanup(server.Close)

	var resp struct {
		Price string `json:"price"`
	}
	err := util.GetJSON(context.Background(), nil, server.URL, nil, &resp)
	require.NoError(t, err)
	require.Equal(t, "42.5", resp.Price)

	err = util.GetJSON(context.Background(), nil, server.URL+"/missing", nil, &resp)
	require.Error(t, err)
	var statusErr *util.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" ||
			r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	var resp struct {
		Ok bool `json:"ok"`
	}
	err := util.PostJSON(
		context.Background(), nil, server.URL,
		map[string]string{"Authorization": "Bearer token"},
		map[string]string{"hello": "world"}, &resp,
	)
	require.NoError(t, err)
	require.True(t, resp.Ok)
}

func TestUnsupportedVerb(t *testing.T) {
	_, _, err := util.NewHTTPRequest(
		context.Background(), nil, "LIST", "http://localhost", nil, nil,
	)
	require.Error(t, err)
}
