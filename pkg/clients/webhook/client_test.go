package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
)

func TestClient_Publish(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	valorizado := 31.5
	row := models.LedgerRow{
		Codigo:      "A1",
		Descripcion: "Widget",
		Cantidad:    3,
		Valorizado:  &valorizado,
		Fecha:       "2026-08-28",
		Hora:        "14:30:05",
	}

	client := NewClient(srv.URL)
	require.NoError(t, client.Publish(context.Background(), row))

	var got map[string]any
	require.NoError(t, json.Unmarshal(received, &got))
	assert.Equal(t, "A1", got["Codigo"])
	assert.Equal(t, "Widget", got["Descripcion"])
	assert.InDelta(t, 31.5, got["Valorizado"].(float64), 1e-9)
	assert.Nil(t, got["Usuario"])
}

func TestClient_Publish_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Publish(context.Background(), models.LedgerRow{Codigo: "A1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
