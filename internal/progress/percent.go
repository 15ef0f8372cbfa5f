package progress

import "math"

// Percent computes the progress fraction of pos. The first applicable rule wins:
//
//  1. a book with a single unit is always fully read;
//  2. with a ready location index, the resolver's fine-grained percentage is
//     used when it is finite and inside [0, 1];
//  3. otherwise (pageIndex - 1) / max(1, totalUnits - 1).
//
// The result is always a finite number in [0, 1].
func Percent(pos ReadingPosition, resolver LocatorResolver) float64 {
	total := pos.TotalUnits
	if total <= 1 {
		return 1
	}

	if pos.Generation == GenerationReady && resolver != nil && pos.Locator != "" {
		if p, ok := resolver.ResolveLocator(pos.Locator); ok && validFraction(p) {
			return p
		}
	}

	page := clampPage(pos.PageIndex, total)
	return float64(page-1) / float64(max(1, total-1))
}

// TargetPage converts a slider fraction into the page index it addresses.
func TargetPage(percent float64, total int) int {
	if total < 1 {
		total = 1
	}
	p := clampUnit(percent)
	return clampPage(int(math.Round(p*float64(total-1)))+1, total)
}

func validFraction(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0 && p <= 1
}
