package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRows_ExhaustiveAndDisjoint(t *testing.T) {
	rows, err := Merge(temperatureSeries(1850, 2024), co2Series(1850, 2024))
	require.NoError(t, err)

	s := SplitRows(rows)
	assert.Equal(t, len(rows), s.Len())

	seen := make(map[int]string)
	check := func(name string, part []Row) {
		for _, r := range part {
			prev, dup := seen[r.Year]
			assert.False(t, dup, "year %d in both %s and %s", r.Year, prev, name)
			seen[r.Year] = name
		}
	}
	check("train", s.Train)
	check("val", s.Val)
	check("test", s.Test)
	assert.Len(t, seen, len(rows))

	assert.Equal(t, 2005, s.Train[len(s.Train)-1].Year)
	assert.Equal(t, 2006, s.Val[0].Year)
	assert.Equal(t, 2015, s.Val[len(s.Val)-1].Year)
	assert.Equal(t, 2016, s.Test[0].Year)
	assert.Empty(t, s.EmptyPartitions())
}

func TestSplitByYear_Boundaries(t *testing.T) {
	years := []int{1900, 2005, 2006, 2015, 2016, 2050}
	s := SplitByYear(years, func(y int) int { return y })

	assert.Equal(t, []int{1900, 2005}, s.Train)
	assert.Equal(t, []int{2006, 2015}, s.Val)
	assert.Equal(t, []int{2016, 2050}, s.Test)
}

func TestSplitByYear_EmptyPartitions(t *testing.T) {
	s := SplitByYear([]int{1950, 1960}, func(y int) int { return y })

	assert.Len(t, s.Train, 2)
	assert.Equal(t, []string{"validation", "test"}, s.EmptyPartitions())
}

func TestSplitSeaRows(t *testing.T) {
	rows := []SeaRow{{Year: 1993}, {Year: 2010}, {Year: 2020}}
	s := SplitSeaRows(rows)
	assert.Len(t, s.Train, 1)
	assert.Len(t, s.Val, 1)
	assert.Len(t, s.Test, 1)
}
