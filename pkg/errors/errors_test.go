package errors

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	withDetail := ErrInvalidParam.WithDetail("query is required")

	assert.Equal(t, "query is required", withDetail.Detail)
	assert.Empty(t, ErrInvalidParam.Detail)
	assert.NotSame(t, ErrInvalidParam, withDetail)
}

func TestWithErrorDoesNotMutateSentinel(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := ErrAPIKeyMissing.WithError(cause)

	assert.Equal(t, cause, wrapped.Err)
	assert.Nil(t, ErrAPIKeyMissing.Err)
}

func TestWithDetailConcurrentCallersDoNotBleed(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detail := fmt.Sprintf("caller-%d", i)
			got := ErrInvalidParam.WithDetail(detail)
			assert.Equal(t, detail, got.Detail)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, ErrInvalidParam.Detail)
}

func TestWithDetailPreservesCodeAndStatus(t *testing.T) {
	withDetail := ErrInvalidParam.WithDetail("x")

	require.Equal(t, CodeInvalidParam, withDetail.Code)
	assert.Equal(t, http.StatusBadRequest, withDetail.HTTPStatus)
}
