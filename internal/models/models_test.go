package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceString(t *testing.T) {
	us := &Country{Name: "United States"}
	georgia := &Region{Name: "Georgia"}

	city := Place{
		City:    &City{Name: "Jonesboro", Region: georgia, Country: us},
		Region:  georgia,
		Country: us,
	}
	assert.Equal(t, "Jonesboro, Georgia", city.String())
	assert.Equal(t, "Jonesboro, Georgia", city.NameWithoutCountry())

	county := Place{
		County:  &County{Name: "Clayton County", State: georgia, Country: us},
		Region:  georgia,
		Country: us,
	}
	assert.Equal(t, "Clayton County, Georgia", county.String())

	toronto := Place{
		City:    &City{Name: "Toronto", Country: &Country{Name: "Canada"}},
		Country: &Country{Name: "Canada"},
	}
	assert.Equal(t, "Toronto, Canada", toronto.String())
	assert.Equal(t, "Toronto, Canada", toronto.NameWithoutCountry())

	assert.Equal(t, "Georgia", Place{Region: georgia, Country: us}.String())
	assert.Equal(t, "United States", Place{Country: us}.String())
}

func TestPlaceValidate(t *testing.T) {
	assert.ErrorIs(t, (&Place{}).Validate(), ErrEmptyPlace)

	id := BaseModel{}.ID
	assert.NoError(t, (&Place{CountryID: &id}).Validate())
}

func TestEmployeeSyncVRC(t *testing.T) {
	e := Employee{Regiments: []Regiment{{Name: "1st Maine"}, {Name: "9th VRC", VRC: true}}}
	e.SyncVRC()
	assert.True(t, e.VRC)

	e = Employee{VRC: true, Regiments: []Regiment{{Name: "1st Maine"}}}
	e.SyncVRC()
	assert.True(t, e.VRC, "a VRC flag set by hand is kept")

	e = Employee{Regiments: []Regiment{{Name: "1st Maine"}}}
	e.SyncVRC()
	assert.False(t, e.VRC)
}

func TestEmployeeStrings(t *testing.T) {
	e := Employee{
		LastName:     "Howard",
		FirstName:    "Oliver",
		BureauStates: []Region{{Name: "Georgia"}, {Name: "Virginia"}},
	}
	assert.Equal(t, "Howard, Oliver", e.String())
	assert.Equal(t, "Georgia, Virginia", e.BureauStateList())
}

func TestAssignmentStrings(t *testing.T) {
	georgia := &Region{Name: "Georgia"}
	a := Assignment{
		Description: "fallback",
		StartDate:   MustParsePartialDate("1865-08"),
		EndDate:     MustParsePartialDate("1866"),
		Positions:   []Position{{Title: "Agent"}, {Title: "Clerk"}},
		Places: []Place{
			{City: &City{Name: "Jonesboro", Region: georgia}, Region: georgia},
			{Region: georgia},
		},
	}
	assert.Equal(t, "Aug. 1865 - 1866", a.Dates())
	assert.Equal(t, "Agent and Clerk", a.PositionList())
	assert.Equal(t, "Jonesboro, Georgia and Georgia", a.PlaceList())
	assert.Equal(t, "Agent and Clerk, Jonesboro, Georgia and Georgia, Aug. 1865 - 1866", a.String())

	bare := Assignment{Description: "fallback"}
	assert.Equal(t, "fallback", bare.String())
	assert.Equal(t, "-", bare.Dates())

	bare.Positions, bare.Places = []Position{}, []Place{}
	assert.Equal(t, "-, -, -", bare.String())

	onlyEnd := Assignment{EndDate: MustParsePartialDate("1868-12-31")}
	assert.Equal(t, "Dec. 31, 1868", onlyEnd.Dates())
}

func TestSortAssignments(t *testing.T) {
	howard := &Employee{LastName: "Howard", FirstName: "Oliver"}
	adams := &Employee{LastName: "Adams", FirstName: "John"}

	assignments := []Assignment{
		{Description: "undated", Employee: adams},
		{Description: "clerk 1866", StartDate: NewYear(1866), Positions: []Position{{Title: "Clerk"}}, Employee: adams},
		{Description: "agent 1866 howard", StartDate: NewYear(1866), Positions: []Position{{Title: "Agent"}}, Employee: howard},
		{Description: "agent 1866 adams", StartDate: NewYear(1866), Positions: []Position{{Title: "Agent"}}, Employee: adams},
		{Description: "1865", StartDate: MustParsePartialDate("1865-08"), Employee: howard},
	}
	SortAssignments(assignments)

	var order []string
	for _, a := range assignments {
		order = append(order, a.Description)
	}
	assert.Equal(t, []string{"1865", "agent 1866 adams", "agent 1866 howard", "clerk 1866", "undated"}, order)
}

func TestRegimentBranch(t *testing.T) {
	r := Regiment{Name: "1st US Sharpshooters", Branch: "XYZ"}
	assert.True(t, IsValidationError(r.BeforeSave(nil)))

	r.Branch = ""
	assert.NoError(t, r.BeforeSave(nil))
	assert.Equal(t, BranchInfantry, r.Branch)
}
