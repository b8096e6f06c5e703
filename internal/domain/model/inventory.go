package model

// InventoryItem is one stock line as reported by the record system.
// Timestamps stay as upstream strings.
type InventoryItem struct {
	ID           int64  `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorderLevel"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Report is a titled, timestamped snapshot generated by the record system.
type Report[T any] struct {
	Title       string `json:"title"`
	GeneratedAt string `json:"generatedAt"`
	Rows        []T    `json:"rows"`
}
