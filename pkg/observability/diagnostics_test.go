package observability_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/observability"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestDiagnosticsServer_Endpoints(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(rw, "codechurn_rows_emitted_total 3\n")
	})

	srv, err := observability.NewDiagnosticsServer(context.Background(), "127.0.0.1:0", metrics)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close(context.Background())) })

	base := "http://" + srv.Addr()

	status, body := get(t, base+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "codechurn_rows_emitted_total")
}

func TestDiagnosticsServer_NoMetricsHandler(t *testing.T) {
	t.Parallel()

	srv, err := observability.NewDiagnosticsServer(context.Background(), "127.0.0.1:0", nil)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, srv.Close(context.Background())) })

	status, _ := get(t, "http://"+srv.Addr()+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDiagnosticsServer_BadAddress(t *testing.T) {
	t.Parallel()

	_, err := observability.NewDiagnosticsServer(context.Background(), "not-an-address", nil)
	require.Error(t, err)
}
