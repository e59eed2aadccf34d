package experimentutils

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNegativeCount        = errors.New("experimentutils: counts must be nonnegative")
	ErrPositivesExceedTotal = errors.New("experimentutils: positive samples greater than total samples")
	ErrEmptyGroup           = errors.New("experimentutils: group has no samples")
	ErrTooFewSamples        = errors.New("experimentutils: need at least two values per group")
)

// Tail selects which side of the distribution the test looks at.
type Tail int

const (
	TwoTailed Tail = iota
	LeftTailed
	RightTailed
)

func (t Tail) String() string {
	switch t {
	case LeftTailed:
		return "left-tailed"
	case RightTailed:
		return "right-tailed"
	default:
		return "two-tailed"
	}
}

// ParseTail maps a free-form tail name to a Tail. Any string containing
// "two", "left" or "right" is accepted.
func ParseTail(s string) (Tail, error) {
	switch ls := strings.ToLower(s); {
	case strings.Contains(ls, "two"):
		return TwoTailed, nil
	case strings.Contains(ls, "left"):
		return LeftTailed, nil
	case strings.Contains(ls, "right"):
		return RightTailed, nil
	}
	return TwoTailed, fmt.Errorf("experimentutils: unknown test tail: %q", s)
}

// Config defines the config for an ABTest.
type Config struct {
	// Alpha is the significance level of the test.
	Alpha float64
	Tail  Tail

	// Verbose logs a summary of every finished test through Logger.
	Logger  Logger
	Verbose bool
}

// ConfigDefault is the default config
var ConfigDefault = Config{
	Alpha: 0.05,
	Tail:  TwoTailed,
}

// Helper function to set default values
func configDefault(config ...Config) Config {
	// Return default config if nothing provided
	if len(config) < 1 {
		return ConfigDefault
	}

	// Override default config
	cfg := config[0]

	if cfg.Alpha == 0 {
		cfg.Alpha = ConfigDefault.Alpha
	}

	return cfg
}

// Counts summarizes a group of a conversion experiment.
type Counts struct {
	// Positives is the number of converted samples in the group.
	Positives int64
	// Total is the number of samples in the group.
	Total int64
}

// Result reports the outcome of a two-sample test. Estimates are
// conversion rates for TestProportions and means for TestMeans.
type Result struct {
	ExpSize      int64
	CtrlSize     int64
	ExpEstimate  float64
	CtrlEstimate float64

	// Diff is the observed difference, treatment minus control.
	Diff          float64
	StandardError float64
	Interval      Interval

	// StatSignificant reports whether the interval excludes zero,
	// PracticalSignificant whether it clears PracticalDiff as well.
	StatSignificant      bool
	PracticalSignificant bool
	PracticalDiff        float64
}

// ABTest runs two-sample significance tests at a fixed significance
// level and tail.
type ABTest struct {
	alpha   float64
	tail    Tail
	logger  Logger
	verbose bool
}

func NewABTest(config ...Config) *ABTest {
	cfg := configDefault(config...)

	return &ABTest{
		alpha:   cfg.Alpha,
		tail:    cfg.Tail,
		logger:  cfg.Logger,
		verbose: cfg.Verbose,
	}
}

// TestProportions compares the conversion rates of a treatment and a
// control group with a pooled two-sample z-test. practicalDiff is the
// minimum difference that matters for the product, in absolute terms.
func (ab *ABTest) TestProportions(exp, ctrl Counts, practicalDiff float64) (*Result, error) {
	for _, c := range []Counts{exp, ctrl} {
		if c.Positives < 0 || c.Total < 0 {
			return nil, ErrNegativeCount
		}
		if c.Total == 0 {
			return nil, ErrEmptyGroup
		}
		if c.Positives > c.Total {
			return nil, ErrPositivesExceedTotal
		}
	}

	nExp, nCtrl := float64(exp.Total), float64(ctrl.Total)
	pExp := float64(exp.Positives) / nExp
	pCtrl := float64(ctrl.Positives) / nCtrl
	diff := pExp - pCtrl

	pooled := float64(exp.Positives+ctrl.Positives) / (nExp + nCtrl)
	se := math.Sqrt(pooled * (1 - pooled) * (1/nExp + 1/nCtrl))

	iv := ab.zInterval(diff, se)

	res := &Result{
		ExpSize:              exp.Total,
		CtrlSize:             ctrl.Total,
		ExpEstimate:          pExp,
		CtrlEstimate:         pCtrl,
		Diff:                 diff,
		StandardError:        se,
		Interval:             iv,
		StatSignificant:      ab.significant(iv, 0),
		PracticalSignificant: ab.significant(iv, practicalDiff),
		PracticalDiff:        practicalDiff,
	}

	ab.report("proportion", res)

	return res, nil
}

// TestMeans compares the means of two samples with a pooled two-sample
// t-test on len(exp)+len(ctrl)-2 degrees of freedom. Group standard
// deviations are population ones.
func (ab *ABTest) TestMeans(exp, ctrl []float64, practicalDiff float64) (*Result, error) {
	if len(exp) < 2 || len(ctrl) < 2 {
		return nil, ErrTooFewSamples
	}

	nExp, nCtrl := float64(len(exp)), float64(len(ctrl))
	muExp := stat.Mean(exp, nil)
	muCtrl := stat.Mean(ctrl, nil)
	sdExp := stat.PopStdDev(exp, nil)
	sdCtrl := stat.PopStdDev(ctrl, nil)
	diff := muExp - muCtrl

	dof := nExp + nCtrl - 2
	pooledSD := math.Sqrt(((nExp-1)*sdExp*sdExp + (nCtrl-1)*sdCtrl*sdCtrl) / dof)
	se := pooledSD * math.Sqrt(1/nExp+1/nCtrl)

	iv := ab.tInterval(diff, se, dof)

	res := &Result{
		ExpSize:              int64(len(exp)),
		CtrlSize:             int64(len(ctrl)),
		ExpEstimate:          muExp,
		CtrlEstimate:         muCtrl,
		Diff:                 diff,
		StandardError:        se,
		Interval:             iv,
		StatSignificant:      ab.significant(iv, 0),
		PracticalSignificant: ab.significant(iv, practicalDiff),
		PracticalDiff:        practicalDiff,
	}

	ab.report("mean", res)

	return res, nil
}

func (ab *ABTest) zInterval(point, se float64) Interval {
	switch ab.tail {
	case RightTailed:
		z := distuv.UnitNormal.Quantile(1 - ab.alpha)
		return Interval{Lower: point - z*se, Upper: math.Inf(1)}
	case LeftTailed:
		z := distuv.UnitNormal.Quantile(1 - ab.alpha)
		return Interval{Lower: math.Inf(-1), Upper: point + z*se}
	default:
		z := distuv.UnitNormal.Quantile(1 - ab.alpha/2)
		return Interval{Lower: point - z*se, Upper: point + z*se}
	}
}

func (ab *ABTest) tInterval(point, se, dof float64) Interval {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	switch ab.tail {
	case RightTailed:
		t := dist.Quantile(1 - ab.alpha)
		return Interval{Lower: point - t*se, Upper: math.Inf(1)}
	case LeftTailed:
		t := dist.Quantile(1 - ab.alpha)
		return Interval{Lower: math.Inf(-1), Upper: point + t*se}
	default:
		t := dist.Quantile(1 - ab.alpha/2)
		return Interval{Lower: point - t*se, Upper: point + t*se}
	}
}

func (ab *ABTest) significant(iv Interval, benchmark float64) bool {
	switch ab.tail {
	case RightTailed: // test if increase
		return iv.Lower > benchmark
	case LeftTailed: // test if decrease
		return iv.Upper < benchmark
	default:
		return iv.Lower > benchmark || iv.Upper < benchmark
	}
}

func (ab *ABTest) report(metric string, r *Result) {
	if !ab.verbose || ab.logger == nil {
		return
	}

	ab.logger.Infow("a/b test finished",
		"metric", metric,
		"tail", ab.tail.String(),
		"alpha", ab.alpha,
		"exp_size", r.ExpSize,
		"exp_estimate", r.ExpEstimate,
		"ctrl_size", r.CtrlSize,
		"ctrl_estimate", r.CtrlEstimate,
		"diff", r.Diff,
		"interval", r.Interval.String(),
		"stat_significant", r.StatSignificant,
		"practical_diff", r.PracticalDiff,
		"practical_significant", r.PracticalSignificant,
	)
}
