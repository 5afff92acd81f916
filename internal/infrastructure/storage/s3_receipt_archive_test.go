package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func fakeS3(t *testing.T, status func(r *http.Request) int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body})
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(status(r))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:     endpoint,
		Bucket:       "receipts",
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
	}
}

func TestNewS3ReceiptArchive_Validation(t *testing.T) {
	_, err := NewS3ReceiptArchive(nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ReceiptArchive(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3ReceiptArchive(&config.StorageConfig{Bucket: "b"})
	assert.ErrorContains(t, err, "secret key are required")

	a, err := NewS3ReceiptArchive(&config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "minio:9000"})
	require.NoError(t, err)
	assert.Equal(t, "b", a.Bucket())
	assert.Equal(t, 15*time.Minute, a.presignExpiration)
}

func TestReceiptKey(t *testing.T) {
	id := uuid.MustParse("7d7f1d8c-1111-4a4a-9b9b-123456789abc")
	assert.Equal(t, "receipts/7d7f1d8c-1111-4a4a-9b9b-123456789abc/RCP-000001.pdf", ReceiptKey(id, "RCP-000001"))
}

func TestS3ReceiptArchive_PutReceipt(t *testing.T) {
	srv, requests := fakeS3(t, func(*http.Request) int { return http.StatusOK })
	a, err := NewS3ReceiptArchive(testConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	tenantID := uuid.New()

	require.NoError(t, a.PutReceipt(context.Background(), tenantID, "RCP-000009", []byte("%PDF-1.7")))

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/receipts/"+ReceiptKey(tenantID, "RCP-000009"), reqs[0].path)
	assert.Equal(t, "application/pdf", reqs[0].contentType)
	assert.Equal(t, []byte("%PDF-1.7"), reqs[0].body)
}

func TestS3ReceiptArchive_PutReceipt_ServerError(t *testing.T) {
	srv, _ := fakeS3(t, func(*http.Request) int { return http.StatusForbidden })
	a, err := NewS3ReceiptArchive(testConfig(srv.URL))
	require.NoError(t, err)

	err = a.PutReceipt(context.Background(), uuid.New(), "RCP-1", []byte("x"))
	assert.ErrorContains(t, err, "failed to upload receipt RCP-1")

	err = a.PutReceipt(context.Background(), uuid.New(), "", []byte("x"))
	assert.ErrorContains(t, err, "receipt number is required")
}

func TestS3ReceiptArchive_EnsureBucket(t *testing.T) {
	srv, requests := fakeS3(t, func(r *http.Request) int {
		if r.Method == http.MethodHead {
			return http.StatusNotFound
		}
		return http.StatusOK
	})
	a, err := NewS3ReceiptArchive(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, a.EnsureBucket(context.Background()))
	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodHead, reqs[0].method)
	assert.Equal(t, http.MethodPut, reqs[1].method)
	assert.Equal(t, "/receipts", strings.TrimSuffix(reqs[1].path, "/"))
}

func TestS3ReceiptArchive_ReceiptURL(t *testing.T) {
	a, err := NewS3ReceiptArchive(testConfig("http://localhost:9000"))
	require.NoError(t, err)
	tenantID := uuid.New()

	u, expires, err := a.ReceiptURL(context.Background(), tenantID, "RCP-000002")
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:9000/receipts/receipts/"+tenantID.String()+"/RCP-000002.pdf")
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, time.Minute)
}
