package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEthPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"usd":2143.87}}`))
	}))
	defer srv.Close()

	price, err := New().WithEndpoint(srv.URL).EthPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2143.87", price.String())
}

func TestEthPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New().WithEndpoint(srv.URL).EthPrice(context.Background())
	assert.Error(t, err)
}

func TestEthPriceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New().WithEndpoint(srv.URL).EthPrice(context.Background())
	assert.Error(t, err)
}

func TestEthPriceMissingField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":1}}`))
	}))
	defer srv.Close()

	_, err := New().WithEndpoint(srv.URL).EthPrice(context.Background())
	assert.Error(t, err)
}

func TestEthPriceUnreachable(t *testing.T) {
	_, err := New().WithEndpoint("http://127.0.0.1:1/price").EthPrice(context.Background())
	assert.Error(t, err)
}
