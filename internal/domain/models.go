// backend-go/internal/domain/models.go
package domain

import "time"

// Product represents a stocked item and its replenishment cost parameters
type Product struct {
	ID                    int64     `json:"id" db:"id"`
	Code                  string    `json:"code" db:"code"`
	Name                  string    `json:"name" db:"name"`
	Category              *string   `json:"category" db:"category"`
	Unit                  string    `json:"unit" db:"unit"`
	UnitCost              float64   `json:"unit_cost" db:"unit_cost"`
	OrderingCost          float64   `json:"ordering_cost" db:"ordering_cost"`
	HoldingCostPercentage float64   `json:"holding_cost_percentage" db:"holding_cost_percentage"`
	LeadTimeDays          int       `json:"lead_time_days" db:"lead_time_days"`
	CurrentStock          int       `json:"current_stock" db:"current_stock"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// ProductInput is the payload accepted when creating a product
type ProductInput struct {
	Code                  string   `json:"code" validate:"required,max=64"`
	Name                  string   `json:"name" validate:"required,max=255"`
	Category              *string  `json:"category"`
	Unit                  *string  `json:"unit"`
	UnitCost              float64  `json:"unit_cost" validate:"gte=0"`
	OrderingCost          *float64 `json:"ordering_cost" validate:"omitempty,gte=0"`
	HoldingCostPercentage *float64 `json:"holding_cost_percentage" validate:"omitempty,gt=0,lte=1"`
	LeadTimeDays          *int     `json:"lead_time_days" validate:"omitempty,gte=0"`
	CurrentStock          int      `json:"current_stock" validate:"gte=0"`
}

// ProductUpdate carries a partial product update; nil fields are left untouched
type ProductUpdate struct {
	Name                  *string  `json:"name" validate:"omitempty,max=255"`
	Category              *string  `json:"category"`
	Unit                  *string  `json:"unit"`
	UnitCost              *float64 `json:"unit_cost" validate:"omitempty,gte=0"`
	OrderingCost          *float64 `json:"ordering_cost" validate:"omitempty,gte=0"`
	HoldingCostPercentage *float64 `json:"holding_cost_percentage" validate:"omitempty,gt=0,lte=1"`
	LeadTimeDays          *int     `json:"lead_time_days" validate:"omitempty,gte=0"`
}

// StockTransaction is a single entry of the append-only stock movement log
type StockTransaction struct {
	ID              int64           `json:"id" db:"id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	ProductCode     string          `json:"product_code,omitempty" db:"product_code"`
	ProductName     string          `json:"product_name,omitempty" db:"product_name"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Quantity        int             `json:"quantity" db:"quantity"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	Note            *string         `json:"note" db:"note"`
}

// TransactionInput is the payload accepted when recording a stock movement
type TransactionInput struct {
	ProductID       int64           `json:"product_id" binding:"required" validate:"required,gt=0"`
	TransactionType TransactionType `json:"transaction_type" binding:"required" validate:"required,oneof=in out"`
	Quantity        int             `json:"quantity" binding:"required" validate:"required,gt=0"`
	Note            *string         `json:"note"`
}

// SalesRecord is one cleaned sales observation ready to be persisted
type SalesRecord struct {
	ProductID int64     `db:"product_id"`
	SaleDate  time.Time `db:"sale_date"`
	Quantity  int       `db:"quantity"`
}

// DailySales is the quantity sold for a product on one calendar day
type DailySales struct {
	Date     time.Time `json:"date" db:"sale_date"`
	Quantity float64   `json:"quantity" db:"quantity"`
}

// UploadedFile represents an uploaded file for processing
type UploadedFile struct {
	Filename string
	Path     string
	Size     int64
}
