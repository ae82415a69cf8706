package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/ingest"
	"github.com/AIS170/SENG3011-OMEGA/internal/retrieval"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/object"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/sqlite"
)

var testBuckets = map[dataset.Kind]string{
	dataset.KindFinance: "finance-bucket",
	dataset.KindNews:    "news-bucket",
	dataset.KindSport:   "sport-bucket",
}

func newTestApp(t *testing.T) (*fiber.App, storage.ObjectStore) {
	t.Helper()
	dir := t.TempDir()

	records, err := sqlite.NewClient(filepath.Join(dir, "records.db"))
	require.NoError(t, err)
	require.NoError(t, records.InitSchema())
	t.Cleanup(func() { records.Close() })

	objects, err := object.NewFSStore(filepath.Join(dir, "objects"))
	require.NoError(t, err)

	retrievalHandler := NewRetrievalHandler(retrieval.NewService(records, objects, testBuckets))
	ingestHandler := NewIngestHandler(ingest.NewService(objects, testBuckets))

	app := fiber.New()
	app.Post("/v1/register", retrievalHandler.Register)
	app.Get("/v1/retrieve/:username/:stockname", retrievalHandler.RetrieveV1)
	app.Get("/v2/retrieve/:username/:kind/:stockname", retrievalHandler.RetrieveV2)
	app.Delete("/v1/delete/:username/:filename", retrievalHandler.Delete)
	app.Get("/v1/list/:username", retrievalHandler.List)
	app.Post("/v1/collect/:username/:kind/:stockname", ingestHandler.Upload)
	app.Delete("/v1/collect/:username/:kind/:stockname", ingestHandler.Delete)
	app.Get("/v1/collect/:username/:kind", ingestHandler.List)

	return app, objects
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body []byte) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp.StatusCode, decoded
}

func registerUser(t *testing.T, app *fiber.App, username string) {
	t.Helper()
	status, _ := doJSON(t, app, http.MethodPost, "/v1/register", []byte(`{"username":"`+username+`"}`))
	require.Equal(t, http.StatusOK, status)
}

func TestRegisterEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/v1/register", []byte(`{"username":"Alice"}`))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["Success"]), "alice")

	// Registration folds case, so a differently-cased duplicate conflicts.
	status, body = doJSON(t, app, http.MethodPost, "/v1/register", []byte(`{"username":"ALICE"}`))
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "UserTakenError")

	status, body = doJSON(t, app, http.MethodPost, "/v1/register", []byte(`{"username":""}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")
}

func TestRetrieveEndpoint(t *testing.T) {
	app, objects := newTestApp(t)
	registerUser(t, app, "alice")

	raw := []byte("Date,Open,Close\n2025-01-01,9,10\n2025-01-02,11,12\n")
	key := dataset.KindFinance.ObjectKey("alice", "tesla", "")
	require.NoError(t, objects.Put(context.Background(), testBuckets[dataset.KindFinance], key, raw))

	status, body := doJSON(t, app, http.MethodGet, "/v2/retrieve/alice/finance/tesla", nil)
	require.Equal(t, http.StatusOK, status)

	var env retrieval.Envelope
	full, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(full, &env))
	assert.Equal(t, "yahoo_finance", env.DataSource)
	assert.Equal(t, "tesla", env.DatasetName)
	require.Len(t, env.Events, 2)
	assert.Equal(t, "stock-ohlc", env.Events[0].EventType)
	assert.Equal(t, "2025-01-01", env.Events[0].TimeObject.Timestamp)

	// The v1 route is a finance alias onto the same cache entry.
	status, _ = doJSON(t, app, http.MethodGet, "/v1/retrieve/alice/tesla", nil)
	assert.Equal(t, http.StatusOK, status)

	status, listBody := doJSON(t, app, http.MethodGet, "/v1/list/alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["finance_tesla"]`, string(listBody["Success"]))
}

func TestRetrieveErrorMapping(t *testing.T) {
	app, _ := newTestApp(t)
	registerUser(t, app, "alice")

	status, body := doJSON(t, app, http.MethodGet, "/v2/retrieve/nobody/finance/tesla", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "UserNotFound")

	status, body = doJSON(t, app, http.MethodGet, "/v2/retrieve/alice/finance/ghost", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "StockNotFound")

	status, body = doJSON(t, app, http.MethodGet, "/v2/retrieve/alice/weather/tesla", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidDataKey")

	status, body = doJSON(t, app, http.MethodGet, "/v2/retrieve/alice/news/tesla?date=bad-date", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")
}

func TestRetrieveMalformedData(t *testing.T) {
	app, objects := newTestApp(t)
	registerUser(t, app, "alice")

	key := dataset.KindFinance.ObjectKey("alice", "tesla", "")
	raw := []byte("Date,Close\n2025-01-01,10\n,12\n")
	require.NoError(t, objects.Put(context.Background(), testBuckets[dataset.KindFinance], key, raw))

	status, body := doJSON(t, app, http.MethodGet, "/v1/retrieve/alice/tesla", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "MalformedData")
}

func TestDeleteEndpoint(t *testing.T) {
	app, objects := newTestApp(t)
	registerUser(t, app, "alice")

	key := dataset.KindFinance.ObjectKey("alice", "tesla", "")
	raw := []byte("Date,Close\n2025-01-01,10\n")
	require.NoError(t, objects.Put(context.Background(), testBuckets[dataset.KindFinance], key, raw))

	status, _ := doJSON(t, app, http.MethodGet, "/v1/retrieve/alice/tesla", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodDelete, "/v1/delete/alice/finance_tesla", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["Success"]), "finance_tesla")

	status, body = doJSON(t, app, http.MethodDelete, "/v1/delete/alice/finance_tesla", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "FileNotFound")

	status, body = doJSON(t, app, http.MethodDelete, "/v1/delete/nobody/finance_tesla", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "UserNotFound")
}

func TestCollectEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	registerUser(t, app, "alice")

	csv := []byte("Date,Close\n2025-01-01,10\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/collect/alice/finance/tesla", bytes.NewReader(csv))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	status, body := doJSON(t, app, http.MethodGet, "/v1/collect/alice/finance", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["alice#tesla_stock_data.csv"]`, string(body["Success"]))

	// The collected object is retrievable straight away.
	status, _ = doJSON(t, app, http.MethodGet, "/v1/retrieve/alice/tesla", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/v1/collect/alice/finance/tesla", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/v1/collect/alice/finance", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body["Success"]))
}

func TestCollectRejectsEmptyBody(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/v1/collect/alice/finance/tesla", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")
}

// A rejected parameter must stop the request at the 400, not fall
// through into the service with empty values.
func TestCollectRejectsInvalidParams(t *testing.T) {
	app, objects := newTestApp(t)
	ctx := context.Background()
	csv := []byte("Date,Close\n2025-01-01,10\n")

	status, body := doJSON(t, app, http.MethodPost, "/v1/collect/bad%21user/finance/tesla", csv)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")

	status, body = doJSON(t, app, http.MethodPost, "/v1/collect/alice/weather/tesla", csv)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidDataKey")

	status, body = doJSON(t, app, http.MethodPost, "/v1/collect/alice/news/tesla?date=2025-99-99", csv)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")

	status, body = doJSON(t, app, http.MethodDelete, "/v1/collect/bad%21user/finance/tesla", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "InvalidInput")

	// No object was written anywhere.
	for _, bucket := range testBuckets {
		keys, err := objects.List(ctx, bucket, "")
		require.NoError(t, err)
		assert.Empty(t, keys)
	}
}
