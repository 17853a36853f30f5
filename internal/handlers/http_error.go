package handlers

import (
	"errors"
	"net/http"

	"github.com/rajueekgp/sale-stock-manager/internal/ledger"

	"github.com/gin-gonic/gin"
)

// respondError translates a ledger error into the HTTP status and envelope
// the frontend expects. Anything outside the taxonomy is a 500.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *ledger.NotFoundError
		validation   *ledger.ValidationError
		stock        *ledger.InsufficientStockError
		batchReq     *ledger.BatchRequiredError
		invalidBatch *ledger.InvalidBatchError
		duplicate    *ledger.DuplicateError
		state        *ledger.StateError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &validation),
		errors.As(err, &stock),
		errors.As(err, &batchReq),
		errors.As(err, &invalidBatch),
		errors.As(err, &duplicate):
		status = http.StatusBadRequest
	case errors.As(err, &state):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
