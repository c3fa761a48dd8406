package ratio

import "fmt"

// Ratio is a scalar metric that may be unavailable.
type Ratio struct {
	Value     float64
	Available bool
}

// Unavailable is the "not available" marker.
var Unavailable = Ratio{}

// String renders the ratio the way the metric panels show it.
func (r Ratio) String() string {
	if !r.Available {
		return "N/A"
	}
	return fmt.Sprintf("%.2f times", r.Value)
}

// CurrentRatio holds short-term assets over short-term liabilities per period.
type CurrentRatio struct {
	Prior   Ratio
	Current Ratio
}

// Delta is current minus prior, defined only when both periods are available.
func (c CurrentRatio) Delta() (float64, bool) {
	if !c.Prior.Available || !c.Current.Available {
		return 0, false
	}
	return c.Current.Value - c.Prior.Value, true
}

// ComputeCurrentRatio divides short-term assets by short-term liabilities
// for each period. A zero liability yields Unavailable for that period; no
// epsilon is substituted here.
func ComputeCurrentRatio(items []LineItem, labels Labels) (CurrentRatio, error) {
	assets, _, assetsOK := FindFirst(items, labels.ShortTermAssets)
	liabilities, _, liabilitiesOK := FindFirst(items, labels.ShortTermLiabilities)

	var missing []string
	if !assetsOK {
		missing = append(missing, firstOr(labels.ShortTermAssets, "SHORT-TERM ASSETS"))
	}
	if !liabilitiesOK {
		missing = append(missing, firstOr(labels.ShortTermLiabilities, "SHORT-TERM LIABILITIES"))
	}
	if len(missing) > 0 {
		return CurrentRatio{}, &MissingLineItemError{Missing: missing}
	}

	return CurrentRatio{
		Prior:   divide(assets.Prior, liabilities.Prior),
		Current: divide(assets.Current, liabilities.Current),
	}, nil
}

func divide(num, den float64) Ratio {
	if den == 0 {
		return Unavailable
	}
	return Ratio{Value: num / den, Available: true}
}
