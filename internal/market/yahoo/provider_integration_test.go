//go:build integration

package yahoo

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_History(t *testing.T) {
	p := NewProvider(zerolog.Nop())

	for _, symbol := range []string{"AAPL", "GC=F", "^GDAXI", "BTC-USD"} {
		bars, err := p.History(context.Background(), symbol, "6mo")
		require.NoError(t, err, symbol)
		assert.NotEmpty(t, bars, symbol)
	}
}
