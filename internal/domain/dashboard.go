package domain

// LowStockProduct is a product whose stock fell below its reorder point
type LowStockProduct struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	CurrentStock int     `json:"current_stock"`
	ReorderPoint float64 `json:"reorder_point"`
	EOQ          float64 `json:"eoq"`
}

// DashboardSummary aggregates the headline inventory figures
type DashboardSummary struct {
	TotalProducts    int               `json:"total_products"`
	LowStockCount    int               `json:"low_stock_count"`
	TotalStockValue  float64           `json:"total_stock_value"`
	LowStockProducts []LowStockProduct `json:"low_stock_products"`
}

// ImportRowError describes why a single uploaded sales row was rejected
type ImportRowError struct {
	Row         int    `json:"row"`
	ProductCode string `json:"product_code,omitempty"`
	Error       string `json:"error"`
}

// ImportResult summarises a sales upload
type ImportResult struct {
	Message  string           `json:"message"`
	Imported int              `json:"imported"`
	Rejected int              `json:"rejected"`
	Errors   []ImportRowError `json:"errors"`
	Archived string           `json:"archived,omitempty"`
}

// ReorderReportRow is one line of the batch replenishment report
type ReorderReportRow struct {
	Product ProductSnapshot
	Metrics ReplenishmentMetrics
	Err     error
}
