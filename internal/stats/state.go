package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
)

const topStates = 5

// Row is one labelled value on a state page.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StateValue is one state's value for a comparison measure.
type StateValue struct {
	StateID uuid.UUID `json:"state_id"`
	Name    string    `json:"name"`
	Value   float64   `json:"value"`
	Display string    `json:"display"`
}

// ComparisonRow lists the top states for one measure.
type ComparisonRow struct {
	Label  string       `json:"label"`
	States []StateValue `json:"states"`
}

// profile is an employee with the facts the per-state measures need.
type profile struct {
	models.Employee

	usct         bool
	foreignBorn  bool
	birthRegion  *uuid.UUID
	ailments     map[uuid.UUID]bool
	ailmentTypes map[uuid.UUID]bool
	states       map[uuid.UUID]bool
}

func loadProfiles(db *gorm.DB, scopes ...models.Scope) ([]profile, error) {
	var employees []models.Employee
	err := db.Model(&models.Employee{}).
		Scopes(scopes...).
		Preload("Regiments").
		Preload("Ailments").
		Preload("BureauStates").
		Preload("PlaceOfBirth.Country").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]profile, 0, len(employees))
	for _, e := range employees {
		p := profile{
			Employee:     e,
			ailments:     make(map[uuid.UUID]bool, len(e.Ailments)),
			ailmentTypes: make(map[uuid.UUID]bool, len(e.Ailments)),
			states:       make(map[uuid.UUID]bool, len(e.BureauStates)),
		}
		for _, r := range e.Regiments {
			p.usct = p.usct || r.USCT
		}
		for _, a := range e.Ailments {
			p.ailments[a.ID] = true
			p.ailmentTypes[a.TypeID] = true
		}
		for _, s := range e.BureauStates {
			p.states[s.ID] = true
		}
		if e.PlaceOfBirth != nil {
			p.birthRegion = e.PlaceOfBirth.RegionID
			p.foreignBorn = e.PlaceOfBirth.Country != nil && e.PlaceOfBirth.Country.Code2 != "US"
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func countWhere(profiles []profile, match func(profile) bool) int64 {
	var n int64
	for _, p := range profiles {
		if match(p) {
			n++
		}
	}
	return n
}

func loadAilmentTypes(db *gorm.DB) ([]models.AilmentType, error) {
	var types []models.AilmentType
	err := db.
		Preload("Ailments", func(db *gorm.DB) *gorm.DB { return db.Order("ailments.name") }).
		Order("ailment_types.name").
		Find(&types).Error
	return types, err
}

// homeRegion is the state whose natives count as "born there". Bureau Headquarters uses the
// District of Columbia.
func homeRegion(db *gorm.DB, state models.Region) (uuid.UUID, error) {
	if !state.BureauHeadquarters {
		return state.ID, nil
	}

	name := "%" + strings.ToLower(settings.Get().DistrictOfColumbiaName) + "%"
	var ids []uuid.UUID
	if err := db.Model(&models.Region{}).Where("LOWER(regions.name) LIKE ?", name).Limit(1).Pluck("regions.id", &ids).Error; err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return state.ID, nil
	}
	return ids[0], nil
}

// StateRows computes the statistics shown for one bureau state, over the employees who worked there.
func StateRows(ctx context.Context, db *gorm.DB, state models.Region) ([]Row, error) {
	db = db.WithContext(ctx)

	employees, err := loadProfiles(db, models.EmployeesInBureauState(state.ID))
	if err != nil {
		return nil, err
	}
	home, err := homeRegion(db, state)
	if err != nil {
		return nil, err
	}
	percentVRC, err := state.PercentVRCEmployees(db)
	if err != nil {
		return nil, err
	}

	total := int64(len(employees))
	share := func(match func(profile) bool) string {
		return FloatFormat(Percent(countWhere(employees, match), total), 2)
	}
	birthplaceKnown := countWhere(employees, func(p profile) bool { return p.PlaceOfBirthID != nil })

	var ages []int
	for _, p := range employees {
		if p.HasBirthDate() {
			ages = append(ages, p.CalculateAge(AgeReferenceYear))
		}
	}

	rows := []Row{
		{"Avg. age in 1865", FloatFormat(Mean(ages), 1)},
		{"Median age in 1865", FloatFormat(Median(ages), 0)},
		{"% VRC", FloatFormat(percentVRC, 2)},
		{"% USCT", share(func(p profile) bool { return p.usct })},
		{"% Foreign-born", FloatFormat(Percent(countWhere(employees, func(p profile) bool { return p.foreignBorn }), birthplaceKnown), 2)},
		{"% Born there", FloatFormat(Percent(countWhere(employees, func(p profile) bool {
			return p.birthRegion != nil && *p.birthRegion == home
		}), birthplaceKnown), 2)},
		{"% Female", share(func(p profile) bool { return p.Gender == models.GenderFemale })},
		{`% Identified as "colored"`, share(func(p profile) bool { return p.Colored })},
		{"% Died during assignment", share(func(p profile) bool { return p.DiedDuringAssignment })},
		{"Former slaves", strconv.FormatInt(countWhere(employees, func(p profile) bool { return p.FormerSlave }), 10)},
		{"% Former slaveholder", share(func(p profile) bool { return p.Slaveholder })},
		{"% Union veterans", share(func(p profile) bool { return p.UnionVeteran })},
		{"% Confederate veterans", share(func(p profile) bool { return p.ConfederateVeteran })},
		{"Left-hand penmanship contest entrants", strconv.FormatInt(countWhere(employees, func(p profile) bool { return p.PenmanshipContest }), 10)},
	}

	types, err := loadAilmentTypes(db)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		rows = append(rows, Row{fmt.Sprintf("%% with %s", t.Name), share(func(p profile) bool { return p.ailmentTypes[t.ID] })})
		if len(t.Ailments) > 1 {
			for _, a := range t.Ailments {
				rows = append(rows, Row{fmt.Sprintf("%% with %s", a.Name), share(func(p profile) bool { return p.ailments[a.ID] })})
			}
		}
	}

	return rows, nil
}

type measure struct {
	label   string
	count   bool
	part    func(profile) bool
	ofTotal func(profile) bool
}

// ComputeStateComparison ranks the bureau states on each measure, keeping the top states with a
// non-zero value.
func ComputeStateComparison(ctx context.Context, db *gorm.DB) ([]ComparisonRow, error) {
	return compareStates(ctx, db, topStates)
}

func compareStates(ctx context.Context, db *gorm.DB, number int) ([]ComparisonRow, error) {
	db = db.WithContext(ctx)

	var states []models.Region
	if err := db.Scopes(models.BureauStates).Find(&states).Error; err != nil {
		return nil, err
	}
	employees, err := loadProfiles(db, func(db *gorm.DB) *gorm.DB {
		return db.Where("employees.id IN (?)", db.Session(&gorm.Session{NewDB: true}).Table("employee_bureau_states").Select("employee_id"))
	})
	if err != nil {
		return nil, err
	}
	types, err := loadAilmentTypes(db)
	if err != nil {
		return nil, err
	}

	birthplaceKnown := func(p profile) bool { return p.PlaceOfBirthID != nil }
	measures := []measure{
		{label: "Employee count", count: true, part: func(profile) bool { return true }},
		{label: "% VRC employees", part: func(p profile) bool { return p.VRC }},
		{label: "% USCT employees", part: func(p profile) bool { return p.usct }},
	}
	if countWhere(employees, birthplaceKnown) > 0 {
		measures = append(measures,
			measure{label: "% Foreign-born employees", part: func(p profile) bool { return p.foreignBorn }, ofTotal: birthplaceKnown},
			// filled per state below
			measure{label: "% Employees born there", ofTotal: birthplaceKnown},
		)
	}
	measures = append(measures,
		measure{label: "% Female employees", part: func(p profile) bool { return p.Gender == models.GenderFemale }},
		measure{label: "% Employees who died during assignment", part: func(p profile) bool { return p.DiedDuringAssignment }},
		measure{label: `% Employees identified as "colored"`, part: func(p profile) bool { return p.Colored }},
		measure{label: "Former slave employees", count: true, part: func(p profile) bool { return p.FormerSlave }},
		measure{label: "% Former slaveholder employees", part: func(p profile) bool { return p.Slaveholder }},
		measure{label: "% Ex-Confederate employees", part: func(p profile) bool { return p.ConfederateVeteran }},
		measure{label: "Left-hand penmanship contest entrants", count: true, part: func(p profile) bool { return p.PenmanshipContest }},
	)
	for _, t := range types {
		t := t
		measures = append(measures, measure{label: "% With " + t.Name, part: func(p profile) bool { return p.ailmentTypes[t.ID] }})
		if len(t.Ailments) > 1 {
			for _, a := range t.Ailments {
				a := a
				measures = append(measures, measure{label: "% With " + a.Name, part: func(p profile) bool { return p.ailments[a.ID] }})
			}
		}
	}

	byState := make(map[uuid.UUID][]profile, len(states))
	for _, p := range employees {
		for id := range p.states {
			byState[id] = append(byState[id], p)
		}
	}

	rows := make([]ComparisonRow, 0, len(measures))
	for _, m := range measures {
		values := make([]StateValue, 0, len(states))
		for _, state := range states {
			staff := byState[state.ID]
			part := m.part
			if part == nil {
				stateID := state.ID
				part = func(p profile) bool { return p.birthRegion != nil && *p.birthRegion == stateID }
			}

			var value float64
			switch {
			case m.count:
				value = float64(countWhere(staff, part))
			case m.ofTotal != nil:
				value = Percent(countWhere(staff, part), countWhere(staff, m.ofTotal))
			default:
				value = Percent(countWhere(staff, part), int64(len(staff)))
			}
			if value == 0 {
				continue
			}

			display := FloatFormat(value, 2)
			if m.count {
				display = strconv.FormatInt(int64(value), 10)
			}
			values = append(values, StateValue{StateID: state.ID, Name: state.Name, Value: value, Display: display})
		}

		sort.SliceStable(values, func(i, j int) bool { return values[i].Value > values[j].Value })
		if len(values) > number {
			values = values[:number]
		}
		rows = append(rows, ComparisonRow{Label: m.label, States: values})
	}

	return rows, nil
}
