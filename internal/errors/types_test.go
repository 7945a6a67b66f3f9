package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeTransport, TypeOf(Transport("op", context.DeadlineExceeded)))
	assert.Equal(t, ErrorTypeStorage, TypeOf(fmt.Errorf("flush: %w", Storage(stderrors.New("disk full"), "write failed"))))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
	assert.False(t, IsType(nil, ErrorTypeTransport))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Transport("check_eligibility", context.DeadlineExceeded)
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "check_eligibility: request failed")
}

func TestProtocolStatus(t *testing.T) {
	err := Protocol("submit_claim", 503, "busy")
	assert.Equal(t, 503, StatusCode(err))
	assert.Equal(t, "busy", err.Context["body"])
	assert.Equal(t, 0, StatusCode(Malformed("submit_claim", nil)))
	assert.Equal(t, 0, StatusCode(nil))
}
