package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatusCode(NewInvalidAddressError("0xzz")))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatusCode(NewUnsupportedNetworkError("moon-mainnet")))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatusCode(NewNotFoundError("wallet", "abc")))
	assert.Equal(t, http.StatusConflict, GetHTTPStatusCode(NewConflictError("duplicate")))
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatusCode(NewProviderError("alchemy", nil)))
	assert.Equal(t, http.StatusGatewayTimeout, GetHTTPStatusCode(NewProviderTimeoutError("alchemy")))
	assert.Equal(t, http.StatusTooManyRequests, GetHTTPStatusCode(NewProviderRateLimitError("alchemy")))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatusCode(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderRateLimitError("alchemy")))
	assert.True(t, IsRetryable(NewProviderTimeoutError("alchemy")))
	assert.True(t, IsRetryable(NewDatabaseError("insert", fmt.Errorf("connection reset"))))
	assert.False(t, IsRetryable(NewInvalidAddressError("0xzz")))
	assert.False(t, IsRetryable(NewUnsupportedNetworkError("moon-mainnet")))
	assert.False(t, IsRetryable(NewNotFoundError("wallet", "abc")))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, IsDuplicateKey(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsDuplicateKey(fmt.Errorf("plain")))
	assert.False(t, IsDuplicateKey(nil))
}

func TestCategorizeWrapsUnknownErrors(t *testing.T) {
	err := fmt.Errorf("something broke")
	catErr := Categorize(err)
	assert.Equal(t, CategorySystem, catErr.Category)
	assert.ErrorIs(t, catErr, err)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewDatabaseError("query", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}
