package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

type TransactionService interface {
	Record(ctx context.Context, in domain.TransactionInput) (int, error)
	List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error)
}

type TransactionHandler struct {
	transactions TransactionService
}

func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// Record appends a stock movement and returns the resulting stock level
func (h *TransactionHandler) Record(c *gin.Context) {
	var in domain.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	newStock, err := h.transactions.Record(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"new_stock": newStock})
}

// List returns the newest movements first
func (h *TransactionHandler) List(c *gin.Context) {
	var productID int64
	if raw := strings.TrimSpace(c.Query("product_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "product_id must be a positive integer")
			return
		}
		productID = id
	}
	limit := parsePositiveIntWithDefault(c.Query("limit"), 100)

	txs, err := h.transactions.List(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if txs == nil {
		txs = []domain.StockTransaction{}
	}

	c.JSON(http.StatusOK, txs)
}
