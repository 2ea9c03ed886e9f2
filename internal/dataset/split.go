package dataset

// Split boundaries: train <= TrainEndYear, ValStartYear..ValEndYear,
// test >= TestStartYear.
const (
	TrainEndYear  = 2005
	ValStartYear  = 2006
	ValEndYear    = 2015
	TestStartYear = 2016
)

type Split[T any] struct {
	Train []T
	Val   []T
	Test  []T
}

// SplitByYear partitions items by the fixed year boundaries. Every item lands
// in exactly one partition; partitions may be empty.
func SplitByYear[T any](items []T, year func(T) int) Split[T] {
	var s Split[T]
	for _, it := range items {
		switch y := year(it); {
		case y <= TrainEndYear:
			s.Train = append(s.Train, it)
		case y <= ValEndYear:
			s.Val = append(s.Val, it)
		default:
			s.Test = append(s.Test, it)
		}
	}
	return s
}

func SplitRows(rows []Row) Split[Row] {
	return SplitByYear(rows, RowYear)
}

func SplitSeaRows(rows []SeaRow) Split[SeaRow] {
	return SplitByYear(rows, SeaRowYear)
}

// EmptyPartitions names the partitions with no rows.
func (s Split[T]) EmptyPartitions() []string {
	var names []string
	if len(s.Train) == 0 {
		names = append(names, "train")
	}
	if len(s.Val) == 0 {
		names = append(names, "validation")
	}
	if len(s.Test) == 0 {
		names = append(names, "test")
	}
	return names
}

func (s Split[T]) Len() int {
	return len(s.Train) + len(s.Val) + len(s.Test)
}
