package search

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/motohub/workshop-service/internal/model"
	"github.com/motohub/workshop-service/internal/pkg/logger"
)

const productMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"dealer_id": { "type": "keyword" },
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"stock_quantity": { "type": "integer" },
			"stock_status": { "type": "keyword" },
			"is_active": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

// ProductDocument is the stock view of a product kept in the search index.
type ProductDocument struct {
	ID            string            `json:"id"`
	DealerID      string            `json:"dealer_id"`
	SKU           string            `json:"sku"`
	Name          string            `json:"name"`
	StockQuantity int               `json:"stock_quantity"`
	StockStatus   model.StockStatus `json:"stock_status"`
	IsActive      bool              `json:"is_active"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func NewProductDocument(p *model.Product) ProductDocument {
	return ProductDocument{
		ID:            p.ID,
		DealerID:      p.DealerID,
		SKU:           p.SKU,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		StockStatus:   p.StockStatus,
		IsActive:      p.IsActive,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ProductIndex keeps product stock documents in sync. A nil *ProductIndex
// is valid and does nothing.
type ProductIndex struct {
	client *Client
	index  string
	logger logger.ZapLogger
}

func NewProductIndex(client *Client, index string, log logger.ZapLogger) *ProductIndex {
	return &ProductIndex{client: client, index: index, logger: log}
}

func (p *ProductIndex) EnsureIndex(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.client.CreateIndex(ctx, p.index, productMapping)
}

// Sync writes the product document, or drops it once the product is
// deactivated. Failures are only logged; the database stays the source of
// truth.
func (p *ProductIndex) Sync(ctx context.Context, prod *model.Product) {
	if p == nil || prod == nil {
		return
	}
	if !prod.IsActive {
		if err := p.client.Delete(ctx, p.index, prod.ID); err != nil {
			p.logger.Error("failed to remove product from index", zap.String("product_id", prod.ID), zap.Error(err))
		}
		return
	}
	if err := p.client.Index(ctx, p.index, prod.ID, NewProductDocument(prod)); err != nil {
		p.logger.Error("failed to index product", zap.String("product_id", prod.ID), zap.Error(err))
	}
}

// Search matches active products of one dealer by name or SKU.
func (p *ProductIndex) Search(ctx context.Context, dealerID, q string, page, pageSize int) ([]ProductDocument, int, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"query_string": map[string]interface{}{
							"query":  "*" + q + "*",
							"fields": []string{"name^3", "sku"},
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"dealer_id": dealerID}},
					{"term": map[string]interface{}{"is_active": true}},
				},
			},
		},
		"from": (page - 1) * pageSize,
		"size": pageSize,
	}

	res, err := p.client.Search(ctx, p.index, query)
	if err != nil {
		return nil, 0, err
	}
	docs := make([]ProductDocument, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var d ProductDocument
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			p.logger.Warn("skipping malformed search hit", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		docs = append(docs, d)
	}
	return docs, res.Hits.Total.Value, nil
}
