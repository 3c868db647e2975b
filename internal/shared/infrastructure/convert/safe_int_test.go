package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftWidth(t *testing.T) {
	assert.Equal(t, uint(0), ShiftWidth(-3))
	assert.Equal(t, uint(4), ShiftWidth(4))
	assert.Equal(t, uint(62), ShiftWidth(400))
}

func TestIntToUint32Clamped(t *testing.T) {
	assert.Equal(t, uint32(0), IntToUint32Clamped(-1))
	assert.Equal(t, uint32(5), IntToUint32Clamped(5))
	assert.Equal(t, uint32(math.MaxUint32), IntToUint32Clamped(math.MaxInt64))
}
