package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/logger"
)

type capturedRequest struct {
	method string
	path   string
	body   string
}

func newTestIndex(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*ProductIndex, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewProductIndex(client, "workshop-products", logger.NewNop()), &reqs
}

func TestProductIndexSync(t *testing.T) {
	idx, reqs := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	idx.Sync(context.Background(), &model.Product{
		BaseModel:     model.BaseModel{ID: "p-1"},
		DealerID:      "dealer-1",
		SKU:           "OIL-10W40",
		Name:          "Engine oil",
		StockQuantity: 3,
		StockStatus:   model.StockStatusLowStock,
		IsActive:      true,
	})

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/workshop-products/_doc/p-1", got.path)

	var doc ProductDocument
	require.NoError(t, json.Unmarshal([]byte(got.body), &doc))
	assert.Equal(t, "dealer-1", doc.DealerID)
	assert.Equal(t, model.StockStatusLowStock, doc.StockStatus)
	assert.True(t, doc.IsActive)
}

func TestProductIndexSyncRemovesInactive(t *testing.T) {
	idx, reqs := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	idx.Sync(context.Background(), &model.Product{
		BaseModel: model.BaseModel{ID: "p-1"},
		DealerID:  "dealer-1",
		IsActive:  false,
	})

	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].method)
	assert.Equal(t, "/workshop-products/_doc/p-1", (*reqs)[0].path)
}

func TestProductIndexSearchFiltersDealer(t *testing.T) {
	idx, reqs := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[
			{"_id":"p-1","_source":{"id":"p-1","dealer_id":"dealer-1","sku":"OIL","name":"Engine oil","stock_quantity":9,"stock_status":"in_stock","is_active":true}}
		]}}`))
	})

	docs, total, err := idx.Search(context.Background(), "dealer-1", "oil", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Engine oil", docs[0].Name)
	assert.True(t, docs[0].IsActive)

	body := (*reqs)[0].body
	assert.True(t, strings.Contains(body, `"dealer_id":"dealer-1"`))
	assert.True(t, strings.Contains(body, `{"term":{"is_active":true}}`))
	assert.True(t, strings.Contains(body, `"from":10`))
}

func TestEnsureIndexIgnoresExisting(t *testing.T) {
	idx, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"},"status":400}`))
	})
	assert.NoError(t, idx.EnsureIndex(context.Background()))
}

func TestNilProductIndex(t *testing.T) {
	var idx *ProductIndex
	assert.NoError(t, idx.EnsureIndex(context.Background()))
	idx.Sync(context.Background(), &model.Product{})
}
