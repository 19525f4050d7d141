/*
	Package splitmerge segments a volume by over-splitting it with a seeded watershed and
	then merging adjacent regions best-first under a pluggable value function.

	Three strategies are provided:

		Edge		a quantile of an edge map along the border, optionally normalized
				by the mean intensities of both regions
		Hessian		summed curvature over summed intensity above background along
				the border
		RegionCriterion	statistics of the two whole regions (means or medians)

	Median intensities are cached per region and the cache is invalidated only by fusion
	events, whether they come from the watershed split or from the merge loop.
*/
package splitmerge
