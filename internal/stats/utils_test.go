package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freedmens-bureau/bureau/internal/models"
)

func TestMeanAndMedian(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Median([]int{}))

	assert.InDelta(t, 35.0, Mean([]int{30, 40}), 0.0001)
	assert.InDelta(t, 31.0, Mean([]int{30, 31, 32}), 0.0001)

	assert.Equal(t, 31.0, Median([]int{32, 30, 31}))
	assert.Equal(t, 35.5, Median([]int{40, 30, 31, 50}))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	data := []int{3, 1, 2}
	Median(data)
	assert.Equal(t, []int{3, 1, 2}, data)
}

func TestPercent(t *testing.T) {
	assert.Zero(t, Percent(0, 10))
	assert.Zero(t, Percent(5, 0))
	assert.InDelta(t, 25.0, Percent(1, 4), 0.0001)
	assert.InDelta(t, 100.0, Percent(3, 3), 0.0001)
}

func TestFloatFormat(t *testing.T) {
	assert.Equal(t, "0", FloatFormat(0, 2))
	assert.Equal(t, "100", FloatFormat(100, 2))
	assert.Equal(t, "33.33", FloatFormat(100.0/3, 2))
	assert.Equal(t, "34.5", FloatFormat(34.5, 1))
	assert.Equal(t, "35", FloatFormat(34.6, 0))
	assert.Equal(t, "50.00", FloatFormat(50, 2))
}

func TestAges(t *testing.T) {
	employees := []models.Employee{
		{DateOfBirth: models.MustParsePartialDate("1830-06"), DateOfDeath: models.MustParsePartialDate("1870-02")},
		{DateOfBirth: models.MustParsePartialDate("1840"), DateOfDeath: models.MustParsePartialDate("1900")},
	}

	assert.Equal(t, []int{35, 25}, AgesInYear(employees, 1865))
	assert.Equal(t, []int{39, 60}, AgesAtDeath(employees))
}
