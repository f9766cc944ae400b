// Package stats computes the employee statistics shown on the stats and state pages.
package stats

import (
	"math"
	"slices"
	"strconv"

	"github.com/freedmens-bureau/bureau/internal/models"
)

// AgesInYear assumes every employee has a birth date.
func AgesInYear(employees []models.Employee, year int) []int {
	ages := make([]int, 0, len(employees))
	for _, e := range employees {
		ages = append(ages, e.CalculateAge(year))
	}
	return ages
}

// AgesAtDeath assumes every employee has both dates.
func AgesAtDeath(employees []models.Employee) []int {
	ages := make([]int, 0, len(employees))
	for _, e := range employees {
		ages = append(ages, e.AgeAtDeath())
	}
	return ages
}

// Mean is 0 for no data.
func Mean(data []int) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0
	for _, n := range data {
		sum += n
	}
	return float64(sum) / float64(len(data))
}

// Median is 0 for no data. An even count averages the two middle values.
func Median(data []int) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// Percent is part/total*100, or 0 when either is 0.
func Percent(part, total int64) float64 {
	if part == 0 || total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// FloatFormat prints n with the given number of decimals. Multiples of 100, such as 0 and 100, are
// printed as they are.
func FloatFormat(n float64, places int) string {
	if math.Mod(n, 100) == 0 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', places, 64)
}
