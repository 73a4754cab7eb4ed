package inventory

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"

	"github.com/motohub/workshop-service/internal/inventory/dto"
	"github.com/motohub/workshop-service/internal/pkg/cache"
)

// ListCacheKey is inventory:list:{dealer}:{md5 of the filters}.
func ListCacheKey(f *dto.InventoryFilters) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("inventory:list:%s:%x", f.DealerID, md5.Sum(data)), nil
}

// InvalidateListCache drops every cached listing of the dealer. Any stock
// mutation must call it after commit.
func InvalidateListCache(ctx context.Context, store cache.Store, dealerID string) error {
	if store == nil {
		return nil
	}
	return store.DeletePattern(ctx, fmt.Sprintf("inventory:list:%s:*", dealerID))
}

func LockKey(dealerID, productID string) string {
	return fmt.Sprintf("lock:inventory:%s:%s", dealerID, productID)
}
