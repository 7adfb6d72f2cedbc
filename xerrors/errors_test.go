package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestError_DerivedCopiesMatchSentinel(t *testing.T) {
	err := ErrInvalidNodeID.WithContext("node", 7).WithDetail("node %d not in [0, %d)", 7, 5)

	assert.ErrorIs(t, err, ErrInvalidNodeID)
	assert.NotErrorIs(t, err, ErrSelfLoop)
	assert.Equal(t, 7, err.Context["node"])
	assert.Contains(t, err.Error(), "node 7 not in [0, 5)")

	// 哨兵本身不被修改。
	assert.Empty(t, ErrInvalidNodeID.Context)
	assert.Equal(t, "node id must be in range [0, n)", ErrInvalidNodeID.Detail)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal, "noop"))

	wrapped := Wrap(ErrSelfLoop, ErrInvalidArg, "edge 3")
	assert.ErrorIs(t, wrapped, ErrSelfLoop)
	assert.Equal(t, "edge 3", wrapped.Message)
	assert.Equal(t, ErrSelfLoop.Code, wrapped.Code)

	plain := fmt.Errorf("disk gone")
	w := WrapInternal(plain, "write output")
	assert.ErrorIs(t, w, plain)
	assert.Equal(t, ErrInternal, w.Type)
	assert.NotEmpty(t, w.Stack)

	var target *Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", wrapped), &target))
	assert.Equal(t, 400102, target.Code)
}

func TestError_GRPCCode(t *testing.T) {
	tests := []struct {
		err  *Error
		grpc codes.Code
	}{
		{ErrInvalidNodeID, codes.InvalidArgument},
		{ErrWeightOverflow, codes.InvalidArgument},
		{ErrDuplicateEdge, codes.AlreadyExists},
		{ErrNotInitialized, codes.Internal},
		{NotFound("x"), codes.NotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grpc, tt.err.GRPCCode(), tt.err.Message)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain")))
	assert.Equal(t, int(codes.InvalidArgument), ExitCode(ErrDisconnectedGraph))
	assert.Equal(t, int(codes.AlreadyExists), ExitCode(fmt.Errorf("build: %w", ErrDuplicateEdge)))
	assert.Equal(t, int(codes.Internal), ExitCode(WrapInternal(errors.New("disk gone"), "write output")))
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "AlreadyExists", ErrAlreadyExists.String())
	assert.Equal(t, "Unknown", ErrorType(99).String())
}
