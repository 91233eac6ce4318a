package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type offsetErr struct{}

func (offsetErr) Error() string        { return "offset 10 > 4" }
func (offsetErr) ErrorCode() int       { return ErrStorageInvalidOffset }
func (offsetErr) PublicDetail() string { return "offset 10 exceeds current size 4" }

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), ErrInternalServer},
		{"app error", New(ErrFileNotFound), ErrFileNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", New(ErrStagingNotFound)), ErrStagingNotFound},
		{"custom coder", fmt.Errorf("write: %w", offsetErr{}), ErrStorageInvalidOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.err))
		})
	}
}

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := New(ErrMissingTagValue, "template x")
	err := Wrap(fmt.Errorf("prepare: %w", inner), ErrDatabase)
	assert.True(t, Is(err, ErrMissingTagValue))
	assert.False(t, Is(err, ErrDatabase))

	assert.Nil(t, Wrap(nil, ErrDatabase))

	wrapped := Wrap(errors.New("conn refused"), ErrDatabase)
	assert.True(t, Is(wrapped, ErrDatabase))
	assert.Contains(t, wrapped.Error(), "conn refused")
}

func TestGetDetails(t *testing.T) {
	assert.Equal(t, "offset 10 exceeds current size 4", GetDetails(fmt.Errorf("x: %w", offsetErr{})))
	assert.Equal(t, "", GetDetails(errors.New("secret dsn")))
	assert.Equal(t, "abc", GetDetails(New(ErrBadRequest, "abc")))
}

func TestStatusClasses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrFileNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrStorageInvalidOffset))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrNoFieldFound))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(ErrStorageStreamFailed))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(99999))

	assert.Equal(t, "Invalid tag value: x", FormatError(ErrInvalidTagValue, "x"))
}

func TestWithCauseKeepsSentinel(t *testing.T) {
	sentinel := New(ErrFileNotFound)
	err := Newf(ErrFileNotFound, "file `%s` is not found", "abc").WithCause(sentinel)

	assert.ErrorIs(t, fmt.Errorf("get: %w", err), sentinel)
	assert.Equal(t, "file `abc` is not found", GetDetails(err))
	assert.Equal(t, "[4000] File not found: file `abc` is not found: [4000] File not found", err.Error())
}
