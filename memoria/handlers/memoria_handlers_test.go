package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

func TestMemoryInfoHandler(t *testing.T) {
	handler := MemoryInfoHandler(func(context.Context) (models.MemoryInfo, error) {
		return models.MemoryInfo{CapacityPages: 10, UsedPages: 2, Used: "8.0 KiB"}, nil
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/memoria", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.MemoryInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, uint64(2), info.UsedPages)
	assert.Equal(t, "8.0 KiB", info.Used)
}

func TestMemoryInfoHandler_Unavailable(t *testing.T) {
	handler := MemoryInfoHandler(func(context.Context) (models.MemoryInfo, error) {
		return models.MemoryInfo{}, errors.New("núcleo apagado")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/memoria", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "núcleo apagado")
}
