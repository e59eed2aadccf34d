package experimentutils

import "fmt"

// Interval holds the bounds of a confidence interval. One-tailed tests
// produce half-open intervals with -Inf or +Inf on the open side.
type Interval struct {
	Lower float64
	Upper float64
}

func (i Interval) String() string {
	return fmt.Sprintf("(%g, %g)", i.Lower, i.Upper)
}
