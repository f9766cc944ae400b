package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartialDate(t *testing.T) {
	tests := []struct {
		raw       string
		precision Precision
		iso       string
		display   string
	}{
		{"1865", PrecisionYear, "1865", "1865"},
		{"1865-08", PrecisionMonth, "1865-08", "Aug. 1865"},
		{"1865-08-02", PrecisionDay, "1865-08-02", "Aug. 02, 1865"},
		{" 1866-01 ", PrecisionMonth, "1866-01", "Jan. 1866"},
		{"", PrecisionNone, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, err := ParsePartialDate(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.precision, d.Precision)
			assert.Equal(t, tt.iso, d.String())
			assert.Equal(t, tt.display, d.Display())
		})
	}
}

func TestParsePartialDateRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"65", "1865-8", "1865-13", "1865-02-30", "1865-08-02-01", "abcd", "1865/08"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePartialDate(raw)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestPartialDateOrdersLikeItsStoredForm(t *testing.T) {
	assert.Less(t, MustParsePartialDate("1865-08").String(), "1866")
	assert.Less(t, "1865", MustParsePartialDate("1865-01").String())
	assert.Less(t, MustParsePartialDate("1865-09-30").String(), MustParsePartialDate("1865-10").String())
}

func TestPartialDateScanAndValue(t *testing.T) {
	var d PartialDate
	require.NoError(t, d.Scan([]byte("1867-03")))
	assert.Equal(t, PartialDate{Year: 1867, Month: 3, Precision: PrecisionMonth}, d)

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "1867-03", value)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	value, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	assert.Error(t, d.Scan(42))
}

func TestPartialDateJSON(t *testing.T) {
	var payload struct {
		Born PartialDate `json:"born"`
		Died PartialDate `json:"died"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"born":"1840-05","died":null}`), &payload))
	assert.Equal(t, 1840, payload.Born.Year)
	assert.True(t, payload.Died.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"born":"1840-05","died":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"born":"May 1840"}`), &payload))
}

func TestAgeAtDeath(t *testing.T) {
	tests := []struct {
		name       string
		born, died string
		age        int
	}{
		{"years only", "1830", "1870", 40},
		{"died before birthday", "1830-06", "1870-02", 39},
		{"died after birthday", "1830-06", "1870-09", 40},
		{"same month without days", "1830-06", "1870-06-01", 40},
		{"same month before birthday", "1830-06-20", "1870-06-01", 39},
		{"month known for one date only", "1830", "1870-02", 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Employee{DateOfBirth: MustParsePartialDate(tt.born), DateOfDeath: MustParsePartialDate(tt.died)}
			assert.Equal(t, tt.age, e.AgeAtDeath())
		})
	}
}

func TestCalculateAge(t *testing.T) {
	e := Employee{DateOfBirth: MustParsePartialDate("1831-11-02")}
	assert.Equal(t, 34, e.CalculateAge(1865))
}
