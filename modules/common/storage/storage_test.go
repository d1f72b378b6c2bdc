package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
	"pdl-server/modules/common/logger"
)

func testClient(t *testing.T, upstream http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.Config{
		SupabaseURL:        srv.URL,
		SupabaseServiceKey: "service-key",
		StorageBucket:      "attachments",
		StorageFolder:      "pdl/generated",
		UploadTimeout:      timeout,
	}, logger.NewTest(t))
	require.NoError(t, err)
	return client
}

func TestUpload_ReturnsPublicURL(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"Key":"attachments/pdl/generated/source_abc.png"}`))
	}, 5*time.Second)

	url, err := client.Upload(context.Background(), []byte("png-data"), "source_abc.png", "image/png")
	require.NoError(t, err)

	assert.Contains(t, gotPath, "attachments/pdl/generated/source_abc.png")
	assert.Contains(t, url, "attachments/pdl/generated/source_abc.png")
}

func TestUpload_ServerErrorIsStoreUpload(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bucket not found"}`, http.StatusNotFound)
	}, 5*time.Second)

	_, err := client.Upload(context.Background(), []byte("png-data"), "source_abc.png", "image/png")
	require.Error(t, err)
	assert.Equal(t, apperr.StoreUpload, apperr.KindOf(err))
}

func TestUpload_TimeoutIsStoreUpload(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}, 50*time.Millisecond)

	_, err := client.Upload(context.Background(), []byte("png-data"), "source_abc.png", "image/png")
	require.Error(t, err)
	assert.Equal(t, apperr.StoreUpload, apperr.KindOf(err))
}
