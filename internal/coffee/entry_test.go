package coffee

import (
	"encoding/json"
	"math"
	"testing"
)

func validEntry() *Entry {
	return &Entry{
		Owner:      "u",
		OccurredAt: "2023-04-20T12:00:00Z",
		Amount:     200,
		Unit:       UnitML,
	}
}

func TestEntry_Validate(t *testing.T) {
	if err := validEntry().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	e := validEntry()
	e.Owner = ""
	if !IsValidation(e.Validate()) {
		t.Error("missing owner accepted")
	}

	e = validEntry()
	e.Amount = 0
	if !IsValidation(e.Validate()) {
		t.Error("zero amount accepted")
	}

	e = validEntry()
	e.Unit = "barrels"
	if !IsValidation(e.Validate()) {
		t.Error("unknown unit accepted")
	}

	e = validEntry()
	rating := 7
	e.Rating = &rating
	if !IsValidation(e.Validate()) {
		t.Error("out-of-range rating accepted")
	}
}

func TestEntry_AmountInML(t *testing.T) {
	tests := []struct {
		amount float64
		unit   Unit
		want   float64
	}{
		{1, UnitCups, 237},
		{2, UnitCups, 474},
		{1, UnitFlOz, 29.5735},
		{1, UnitOz, 29.5735},
		{350, UnitML, 350},
	}

	for _, tt := range tests {
		e := &Entry{Amount: tt.amount, Unit: tt.unit}
		if got := e.AmountInML(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%v %s = %v ml, want %v", tt.amount, tt.unit, got, tt.want)
		}
	}
}

func TestEntry_JSONOmitsAbsentOptionalFields(t *testing.T) {
	data, err := json.Marshal(validEntry())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if _, ok := raw["rating"]; ok {
		t.Error("absent rating serialized")
	}
	if _, ok := raw["location"]; ok {
		t.Error("absent location serialized")
	}
}

func TestUnitsFor(t *testing.T) {
	metric := UnitsFor(SystemMetric)
	if len(metric) != 1 || metric[0] != UnitML {
		t.Errorf("metric units = %v, want [ml]", metric)
	}

	imperial := UnitsFor(SystemImperial)
	if len(imperial) != 2 {
		t.Errorf("imperial units = %v, want cups and fl_oz", imperial)
	}
}
