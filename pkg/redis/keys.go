package redis

import "fmt"

// StockKey names the cached current-stock value for a product.
func StockKey(productID uint) string {
	return fmt.Sprintf("fulfillment:stock:%d", productID)
}

// AvailabilityKey names the cached in-stock flag for a product.
func AvailabilityKey(productID uint) string {
	return fmt.Sprintf("fulfillment:stock:available:%d", productID)
}
