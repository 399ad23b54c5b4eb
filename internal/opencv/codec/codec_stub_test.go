//go:build !gocv

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubReportsUnavailable(t *testing.T) {
	assert.False(t, Available())
	assert.Empty(t, OpenCVVersion())

	_, err := EncodeWEBP(nil, 90)
	assert.ErrorIs(t, err, ErrNoOpenCV)
}
