package simulator

import "fmt"

// Action is a discrete trading decision. The numeric values are the
// indices of the action space and are stable across artifacts.
type Action int

const (
	Sell Action = iota
	Hold
	Buy
)

// NumActions is the size of the discrete action space.
const NumActions = 3

func (a Action) String() string {
	switch a {
	case Sell:
		return "SELL"
	case Hold:
		return "HOLD"
	case Buy:
		return "BUY"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Valid reports whether a is one of Sell, Hold or Buy.
func (a Action) Valid() bool {
	return a >= Sell && a <= Buy
}
