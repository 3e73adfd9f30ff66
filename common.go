package tokwork

type (
	// A Thunk is a function that neither receives nor returns any
	// parameters.
	Thunk func()

	// A RangeFunc is a function that receives a range from low to high,
	// with 0 <= low <= high.
	RangeFunc func(low, high int)

	// A FoldFunc receives a range from low to high, with 0 <= low <= high,
	// and a partial result, and returns the partial result updated with
	// the contribution of the range.
	FoldFunc[V any] func(low, high int, partial V) V

	// A JoinFunc combines two partial results. It must be associative.
	JoinFunc[V any] func(x, y V) V

	// A FilterFunc receives an index and returns the value to keep for
	// that index, and whether to keep it.
	FilterFunc[V any] func(i int) (V, bool)
)
