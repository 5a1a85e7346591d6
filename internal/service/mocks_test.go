package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/storage"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, search string) ([]domain.Product, error) {
	args := m.Called(ctx, search)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	args := m.Called(ctx, codes)
	products, _ := args.Get(0).(map[string]domain.Product)
	return products, args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockSalesRepository struct {
	mock.Mock
}

func (m *MockSalesRepository) DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.DailySales, error) {
	args := m.Called(ctx, productID, from, to)
	sales, _ := args.Get(0).([]domain.DailySales)
	return sales, args.Error(1)
}

func (m *MockSalesRepository) DailySalesByProduct(ctx context.Context) (map[int64][]domain.DailySales, error) {
	args := m.Called(ctx)
	sales, _ := args.Get(0).(map[int64][]domain.DailySales)
	return sales, args.Error(1)
}

func (m *MockSalesRepository) InsertSales(ctx context.Context, records []domain.SalesRecord) error {
	return m.Called(ctx, records).Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, in domain.TransactionInput, at time.Time) (int, error) {
	args := m.Called(ctx, in, at)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error) {
	args := m.Called(ctx, productID, limit)
	txs, _ := args.Get(0).([]domain.StockTransaction)
	return txs, args.Error(1)
}

type MockDashboardCache struct {
	mock.Mock
}

func (m *MockDashboardCache) GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*domain.DashboardSummary)
	return summary, args.Bool(1), args.Error(2)
}

func (m *MockDashboardCache) SetSummary(ctx context.Context, summary *domain.DashboardSummary) error {
	return m.Called(ctx, summary).Error(0)
}

func (m *MockDashboardCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	objects, _ := args.Get(0).([]storage.ObjectInfo)
	return objects, args.Error(1)
}

func (m *MockObjectStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return m.Called(ctx, key, destPath).Error(0)
}

func (m *MockObjectStorage) UploadObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

// recordingMetrics captures what the services report.
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	methods  []string
	imported int
	rejected int
}

func (r *recordingMetrics) ObserveForecast(method string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods = append(r.methods, method)
}

func (r *recordingMetrics) RecordForecastOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) RecordImportRows(imported, rejected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported += imported
	r.rejected += rejected
}

func (r *recordingMetrics) ObserveHTTP(string, string, int, float64) {}

func whiskyProduct() *domain.Product {
	return &domain.Product{
		ID:                    1,
		Code:                  "WH001",
		Name:                  "Blended Whisky 700ml",
		Unit:                  "ขวด",
		UnitCost:              300,
		OrderingCost:          500,
		HoldingCostPercentage: 0.2,
		LeadTimeDays:          7,
		CurrentStock:          200,
	}
}

// dailySales returns n consecutive days of qty starting on 2024-01-01.
func dailySales(n int, qty float64) []domain.DailySales {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.DailySales, n)
	for i := range out {
		out[i] = domain.DailySales{Date: start.AddDate(0, 0, i), Quantity: qty}
	}
	return out
}
