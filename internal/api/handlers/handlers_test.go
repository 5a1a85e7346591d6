package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockForecastService struct {
	mock.Mock
}

func (m *MockForecastService) Forecast(ctx context.Context, req service.ForecastRequest) (*domain.ForecastResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*domain.ForecastResponse)
	return resp, args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, search string) ([]domain.Product, error) {
	args := m.Called(ctx, search)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, upd domain.ProductUpdate) (*domain.Product, error) {
	args := m.Called(ctx, id, upd)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Record(ctx context.Context, in domain.TransactionInput) (int, error) {
	args := m.Called(ctx, in)
	return args.Int(0), args.Error(1)
}

func (m *MockTransactionService) List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error) {
	args := m.Called(ctx, productID, limit)
	txs, _ := args.Get(0).([]domain.StockTransaction)
	return txs, args.Error(1)
}

type MockSalesImporter struct {
	mock.Mock
}

func (m *MockSalesImporter) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, filename, string(body))
	res, _ := args.Get(0).(*domain.ImportResult)
	return res, args.Error(1)
}

func perform(r http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func forecastRouter(svc ForecastService) *gin.Engine {
	r := gin.New()
	r.GET("/forecast/:id", NewForecastHandler(svc, 30).Forecast)
	return r
}

func TestForecastResponseShape(t *testing.T) {
	svc := new(MockForecastService)
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{ProductID: 7, Periods: 30}).Return(&domain.ForecastResponse{
		Product: domain.ProductSnapshot{ID: 7, Code: "WH001", Name: "Whisky", Unit: "ขวด"},
		Forecast: domain.ForecastSeries{
			Points: []domain.ForecastPoint{
				{Date: start, Value: 20, Lower: 12, Upper: 28},
				{Date: start.AddDate(0, 0, 1), Value: 21, Lower: 11, Upper: 31},
			},
			Params:          domain.ARIMAParams{P: 1, D: 0, Q: 1},
			Method:          domain.MethodARIMA,
			ConfidenceLevel: 0.95,
			Criterion:       domain.Criterion{Name: "aic", Value: 123.4},
		},
		Metrics:  domain.ReplenishmentMetrics{EOQ: 348.8, StockStatus: domain.StockSufficient},
		Warnings: []string{},
	}, nil)

	w := perform(forecastRouter(svc), http.MethodGet, "/forecast/7", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	fc := body["forecast"].(map[string]interface{})
	assert.Equal(t, []interface{}{"2024-01-31", "2024-02-01"}, fc["dates"])
	assert.Equal(t, []interface{}{20.0, 21.0}, fc["values"])
	assert.Equal(t, []interface{}{[]interface{}{12.0, 28.0}, []interface{}{11.0, 31.0}}, fc["confidence_intervals"])
	assert.Equal(t, map[string]interface{}{"p": 1.0, "d": 0.0, "q": 1.0}, fc["arima_params"])
	assert.Equal(t, "arima", fc["method"])
	assert.Equal(t, "sufficient", body["metrics"].(map[string]interface{})["stock_status"])
	assert.Equal(t, false, body["model_degraded"])
	assert.Equal(t, []interface{}{}, body["warnings"])
}

func TestForecastQueryParsing(t *testing.T) {
	svc := new(MockForecastService)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	svc.On("Forecast", mock.Anything, service.ForecastRequest{ProductID: 3, Periods: 14, From: from, To: to}).
		Return(&domain.ForecastResponse{Warnings: []string{}}, nil)

	w := perform(forecastRouter(svc), http.MethodGet, "/forecast/3?periods=14&from=2024-01-01&to=2024-03-31", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestForecastBadRequests(t *testing.T) {
	for _, target := range []string{
		"/forecast/abc",
		"/forecast/0",
		"/forecast/1?periods=ten",
		"/forecast/1?from=01-01-2024",
		"/forecast/1?from=2024-02-01&to=2024-01-01",
	} {
		t.Run(target, func(t *testing.T) {
			svc := new(MockForecastService)

			w := perform(forecastRouter(svc), http.MethodGet, target, nil, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
			svc.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything)
		})
	}
}

func TestForecastErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: periods must be between 7 and 90, got 150", domain.ErrInvalidArgument), http.StatusBadRequest},
		{domain.ErrInsufficientHistory, http.StatusUnprocessableEntity},
		{domain.ErrInvalidProductParameters, http.StatusUnprocessableEntity},
		{domain.ErrForecastTimeout, http.StatusServiceUnavailable},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := new(MockForecastService)
			svc.On("Forecast", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := perform(forecastRouter(svc), http.MethodGet, "/forecast/1?periods=150", nil, "")

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, "5", w.Header().Get("Retry-After"))
			}
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", decode(t, w)["error"])
			}
		})
	}
}

func productRouter(svc ProductService) *gin.Engine {
	r := gin.New()
	h := NewProductHandler(svc)
	r.GET("/products", h.List)
	r.POST("/products", h.Create)
	r.GET("/products/:id", h.Get)
	r.PUT("/products/:id", h.Update)
	r.DELETE("/products/:id", h.Delete)
	return r
}

func TestProductCRUD(t *testing.T) {
	svc := new(MockProductService)
	whisky := &domain.Product{ID: 1, Code: "WH001", Name: "Whisky", Unit: "ขวด", UnitCost: 300}
	svc.On("List", mock.Anything, "wh").Return(nil, nil)
	svc.On("Get", mock.Anything, int64(1)).Return(whisky, nil)
	svc.On("Create", mock.Anything, domain.ProductInput{Code: "WH001", Name: "Whisky", UnitCost: 300}).Return(whisky, nil)
	svc.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(u domain.ProductUpdate) bool {
		return u.LeadTimeDays != nil && *u.LeadTimeDays == 9 && u.Name == nil
	})).Return(whisky, nil)
	svc.On("Delete", mock.Anything, int64(1)).Return(nil)
	r := productRouter(svc)

	w := perform(r, http.MethodGet, "/products?search=wh", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = perform(r, http.MethodGet, "/products/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WH001", decode(t, w)["code"])

	w = perform(r, http.MethodPost, "/products", strings.NewReader(`{"code":"WH001","name":"Whisky","unit_cost":300}`), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodPut, "/products/1", strings.NewReader(`{"lead_time_days":9}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodDelete, "/products/1", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.AssertExpectations(t)
}

func TestProductConflicts(t *testing.T) {
	svc := new(MockProductService)
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrDuplicateCode)
	svc.On("Delete", mock.Anything, int64(2)).Return(domain.ErrProductInUse)
	r := productRouter(svc)

	w := perform(r, http.MethodPost, "/products", strings.NewReader(`{"code":"WH001","name":"Whisky"}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodDelete, "/products/2", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodPost, "/products", strings.NewReader(`{"code":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactions(t *testing.T) {
	svc := new(MockTransactionService)
	svc.On("Record", mock.Anything, domain.TransactionInput{ProductID: 1, TransactionType: domain.TransactionOut, Quantity: 5}).Return(195, nil)
	svc.On("Record", mock.Anything, domain.TransactionInput{ProductID: 1, TransactionType: domain.TransactionOut, Quantity: 999}).Return(0, domain.ErrInsufficientStock)
	svc.On("List", mock.Anything, int64(1), 20).Return([]domain.StockTransaction{{ID: 3, ProductID: 1, TransactionType: domain.TransactionOut, Quantity: 5}}, nil)
	svc.On("List", mock.Anything, int64(0), 100).Return(nil, nil)

	r := gin.New()
	h := NewTransactionHandler(svc)
	r.GET("/transactions", h.List)
	r.POST("/transactions", h.Record)

	w := perform(r, http.MethodPost, "/transactions", strings.NewReader(`{"product_id":1,"transaction_type":"out","quantity":5}`), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"new_stock":195}`, w.Body.String())

	w = perform(r, http.MethodPost, "/transactions", strings.NewReader(`{"product_id":1,"transaction_type":"out","quantity":999}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = perform(r, http.MethodPost, "/transactions", strings.NewReader(`{"product_id":1,"transaction_type":"out"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/transactions?product_id=1&limit=20", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)

	w = perform(r, http.MethodGet, "/transactions", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = perform(r, http.MethodGet, "/transactions?product_id=x", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var out []interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSalesUpload(t *testing.T) {
	importer := new(MockSalesImporter)
	importer.On("Import", mock.Anything, "jan.csv", "WH001,2024-01-01,3\n").Return(&domain.ImportResult{
		Message:  "imported 1 rows, rejected 0",
		Imported: 1,
		Errors:   []domain.ImportRowError{},
	}, nil)

	r := gin.New()
	r.POST("/sales/upload", NewSalesHandler(importer, 1<<20).Upload)

	body, ct := multipartBody(t, "file", "jan.csv", "WH001,2024-01-01,3\n")
	w := perform(r, http.MethodPost, "/sales/upload", body, ct)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["imported"])

	body, ct = multipartBody(t, "", "", "")
	w = perform(r, http.MethodPost, "/sales/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	importer.AssertExpectations(t)
}

func TestSalesUploadUnsupportedFormat(t *testing.T) {
	importer := new(MockSalesImporter)
	importer.On("Import", mock.Anything, "sales.json", "[]").Return(nil, service.ErrUnsupportedFormat)

	r := gin.New()
	r.POST("/sales/upload", NewSalesHandler(importer, 0).Upload)

	body, ct := multipartBody(t, "file", "sales.json", "[]")
	w := perform(r, http.MethodPost, "/sales/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(fmt.Errorf("wrap: %w", domain.ErrInsufficientHistory)))
	assert.Equal(t, http.StatusConflict, StatusFor(domain.ErrDuplicateCode))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("x")))
}
