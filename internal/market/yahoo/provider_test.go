package yahoo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	yfmodels "github.com/wnjoon/go-yfinance/pkg/models"
)

func TestConvert_OrdersAndDropsEmptyBars(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	raw := []yfmodels.Bar{
		{Date: day(3), Open: 11, High: 12, Low: 10, Close: 11.5, Volume: 300},
		{Date: day(1), Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 100},
		{Date: day(2), Close: 0},
	}

	bars := convert(raw)

	assert.Len(t, bars, 2)
	assert.Equal(t, day(1), bars[0].Time)
	assert.Equal(t, "9.5", bars[0].Close.String())
	assert.Equal(t, int64(300), bars[1].Volume)
}
