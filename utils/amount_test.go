package utils

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualWithinPercent(t *testing.T) {
	cases := []struct {
		a, b      int64
		threshold int64
		want      bool
	}{
		{100, 100, 1, true},
		{200, 201, 1, true},  // d ~ 0.499
		{201, 200, 1, true},  // sign does not matter
		{200, 203, 1, false}, // d ~ 1.489
		{199, 201, 1, false}, // d == 1 exactly, bound is strict
		{0, 0, 1, false},
		{0, 5, 1, false},
		{100, 104, 5, true},
	}
	for _, c := range cases {
		got := EqualWithinPercent(big.NewInt(c.a), big.NewInt(c.b), c.threshold)
		assert.Equal(t, c.want, got, "EqualWithinPercent(%d, %d, %d)", c.a, c.b, c.threshold)
	}
	assert.False(t, EqualWithinPercent(nil, big.NewInt(1), 1))
}

func TestEqualWithinPercent_LargeAmounts(t *testing.T) {
	a, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)
	b := new(big.Int).Sub(a, big.NewInt(1))
	assert.True(t, EqualWithinPercent(a, b, 1))
}

func TestPercentDiff(t *testing.T) {
	d, ok := PercentDiff(big.NewInt(300), big.NewInt(100))
	require.True(t, ok)
	assert.Equal(t, int64(100), d.Int64())

	d, ok = PercentDiff(big.NewInt(100), big.NewInt(300))
	require.True(t, ok)
	assert.Equal(t, int64(-100), d.Int64())

	_, ok = PercentDiff(big.NewInt(0), big.NewInt(0))
	assert.False(t, ok)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("batch call: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(timeoutErr{}))
	assert.True(t, IsTimeout(errors.New("Post \"http://node\": net/http: request canceled (Client.Timeout exceeded)")))
	assert.True(t, IsTimeout(errors.New("429 Too Many Requests")))

	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(errors.New("execution reverted")))
	assert.False(t, IsTimeout(context.Canceled))
}
