package fixup

// Rolling-rating weights (spec §9 Open Question: "The rolling-rating
// formula (75% stable, 25% rolling) is hardcoded; document it in
// config and consider parameterizing"). Resolved in DESIGN.md as named
// constants rather than inline magic numbers. library.rating_updates
// is not consulted here.
const (
	ratingStableWeight  = 0.75
	ratingRollingWeight = 0.25
)

// RecomputeRating blends a file's existing stable rating with a fresh
// sample (e.g. a per-play skip/complete signal already scaled to
// 0..100), per the 75/25 split above, clamped to the 0..100 range
// spec §3 invariant 9 requires. It does not check
// library.rating_updates itself, and it is not part of the normal
// three-pass fixup.
func RecomputeRating(stable, sample int) int {
	blended := float64(stable)*ratingStableWeight + float64(sample)*ratingRollingWeight
	return clampRating(int(blended + 0.5))
}

// ScaleRating rescales an externally configured rating (0..max) into
// the catalog's normalized 0..100 range (spec §3 invariant 9:
// "externally configured maxima are rescaled").
func ScaleRating(value, max int) int {
	if max <= 0 {
		return clampRating(value)
	}
	return clampRating((value*100 + max/2) / max)
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
