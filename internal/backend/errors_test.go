package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

func TestError_Wrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("写入失败: %w", NewConnectionError("intdb", "POST /flows", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindConnection))
	assert.False(t, IsKind(err, KindProtocol))

	var be *Error
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, "intdb", be.Backend)
	assert.Contains(t, err.Error(), "CONNECTION_FAILURE")
}

func TestProtocolError_Message(t *testing.T) {
	err := NewProtocolError("influxdb", "write", 401, []byte(strings.Repeat("x", 400)))
	assert.Equal(t, 401, err.Status)
	assert.Contains(t, err.Error(), "401")
	assert.True(t, strings.HasSuffix(err.Error(), "..."))

	noBody := NewProtocolError("influxdb", "write", 500, nil)
	assert.Nil(t, noBody.Unwrap())
}

func TestSerializationError(t *testing.T) {
	err := NewSerializationError("intdb", "decode", errors.New("bad json"))
	assert.True(t, IsKind(err, KindSerialization))
	assert.False(t, IsKind(errors.New("plain"), KindSerialization))
}

type countingBackend struct{}

func (countingBackend) Name() types.BackendName                        { return "fake" }
func (countingBackend) Write(context.Context, types.Batch) WriteResult { return WriteResult{} }
func (countingBackend) Query(context.Context, types.QueryType, string) ([]byte, error) {
	return nil, nil
}
func (countingBackend) Ping(context.Context) error { return nil }
func (countingBackend) CountRows(body []byte) int { return len(body) }

type plainBackend struct{ countingBackend }

func (plainBackend) CountRows() {}

func TestCountRows(t *testing.T) {
	assert.Equal(t, 3, CountRows(countingBackend{}, []byte("abc")))
	assert.Equal(t, -1, CountRows(plainBackend{}, []byte("abc")))
}
