package mtc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachesVersion(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, stubScripts["OtmAcc_Account.controller.js"])
	}))
	defer srv.Close()

	r := newScriptResolver(srv.URL, srv.Client())

	v, err := r.Resolve(context.Background(), endpointLogin)
	require.NoError(t, err)
	assert.Equal(t, "v-login-1", v)

	v2, err := r.Resolve(context.Background(), endpointLogin)
	require.NoError(t, err)
	assert.Equal(t, v, v2)
	assert.Equal(t, 1, requests, "second resolve must come from cache")
}

func TestResolveUnknownEndpoint(t *testing.T) {
	r := newScriptResolver("http://unused.invalid", http.DefaultClient)

	_, err := r.Resolve(context.Background(), "nonsense")
	require.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestResolveProtocolMismatchDoesNotCache(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `window.__loaded = true; // vendor shipped new client code`)
	}))
	defer srv.Close()

	r := newScriptResolver(srv.URL, srv.Client())

	_, err := r.Resolve(context.Background(), endpointSubmit)
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.True(t, IsProtocolMismatch(err))

	_, err = r.Resolve(context.Background(), endpointSubmit)
	require.ErrorIs(t, err, ErrProtocolMismatch)
	assert.Equal(t, 2, requests, "failed match must not be cached")
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := newScriptResolver(srv.URL, srv.Client())

	_, err := r.Resolve(context.Background(), endpointTransactions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
