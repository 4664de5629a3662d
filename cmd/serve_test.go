package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServePort(t *testing.T) {
	setupCLI(t)

	assert.Equal(t, defaultServerPort, servePort(serveCmd))

	viper.Set("server.port", 7000)
	assert.Equal(t, 7000, servePort(serveCmd))

	require.NoError(t, serveCmd.Flags().Set("port", "7100"))
	assert.Equal(t, 7100, servePort(serveCmd))
}

func TestNewAPIServer_SharesStoreAndOracle(t *testing.T) {
	setupCLI(t)
	seedBacklog(t)
	calls := stubOracle(t, `{"Monday": [1], "Tuesday": [2, 3]}`)

	srv, cleanup, err := newAPIServer(serveCmd)
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, strings.HasPrefix(srv.Addr(), "127.0.0.1:"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Renew passport")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res planner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Plan.TaskCount())
	assert.Equal(t, 1, *calls)

	out, err := runCLI(t, "plan", "show", "latest", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, res.Plan.ID)
}
