package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommissionRateFor(t *testing.T) {
	assert.Equal(t, 0.10, CommissionRateFor(1))
	assert.Equal(t, 0.05, CommissionRateFor(2))
	assert.Equal(t, 0.03, CommissionRateFor(3))
	assert.Equal(t, 0.02, CommissionRateFor(4))
	assert.Equal(t, 0.015, CommissionRateFor(5))
	assert.Equal(t, 0.01, CommissionRateFor(6))
	assert.Equal(t, 0.005, CommissionRateFor(7))
}

func TestCommissionRateOutsideTable(t *testing.T) {
	assert.Equal(t, 0.0, CommissionRateFor(0))
	assert.Equal(t, 0.0, CommissionRateFor(8))
	assert.Equal(t, 0.0, CommissionRateFor(-3))
}
