package visitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlant_Valid(t *testing.T) {
	for _, plant := range AllPlants {
		assert.True(t, plant.Valid(), plant)
	}
	assert.False(t, Plant("").Valid())
	assert.False(t, Plant("Atlantis").Valid())
	assert.False(t, Plant("cement").Valid(), "plant names are case-sensitive")
}

func TestVisitor_OnSite(t *testing.T) {
	now := time.Now().UTC()
	vis := Visitor{SignedInAt: now}
	assert.True(t, vis.OnSite())

	vis.SignedOutAt = &now
	assert.False(t, vis.OnSite())
}

func TestVisitor_FullName(t *testing.T) {
	vis := Visitor{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", vis.FullName())

	vis = Visitor{FirstName: "Jane"}
	assert.Equal(t, "Jane", vis.FullName())
}

func TestCheckIn_Validate(t *testing.T) {
	ci := CheckIn{
		FirstName:   "  Jane ",
		LastName:    " Doe ",
		Email:       " JANE@Acme.Test ",
		Phone:       " 555-0101 ",
		Plant:       PlantDelta,
		MeetingWith: " John Smith ",
	}
	if err := ci.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	// input is cleaned in place; email is lowered for identity matching
	assert.Equal(t, "Jane", ci.FirstName)
	assert.Equal(t, "Doe", ci.LastName)
	assert.Equal(t, "jane@acme.test", ci.Email)
	assert.Equal(t, "555-0101", ci.Phone)
	assert.Equal(t, "John Smith", ci.MeetingWith)

	tests := []struct {
		name string
		mut  func(*CheckIn)
	}{
		{name: "missing first name", mut: func(ci *CheckIn) { ci.FirstName = "" }},
		{name: "missing last name", mut: func(ci *CheckIn) { ci.LastName = "" }},
		{name: "missing email", mut: func(ci *CheckIn) { ci.Email = "" }},
		{name: "bad email", mut: func(ci *CheckIn) { ci.Email = "not-an-email" }},
		{name: "missing phone", mut: func(ci *CheckIn) { ci.Phone = "" }},
		{name: "missing plant", mut: func(ci *CheckIn) { ci.Plant = "" }},
		{name: "unknown plant", mut: func(ci *CheckIn) { ci.Plant = "Atlantis" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := ci
			tt.mut(&bad)
			if err := bad.Validate(); err == nil {
				t.Error("Validate() expected an error")
			}
		})
	}
}

func TestQuizSubmission_Validate(t *testing.T) {
	qs := QuizSubmission{Email: "jane@acme.test", Plant: PlantDelta, Score: 100}
	if err := qs.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	qs.Score = 101
	if err := qs.Validate(); err == nil {
		t.Error("Validate() expected an error for score > 100")
	}
	qs.Score = -1
	if err := qs.Validate(); err == nil {
		t.Error("Validate() expected an error for negative score")
	}
}

func TestQueryFilter_IsEmpty(t *testing.T) {
	assert.True(t, (&QueryFilter{}).IsEmpty())

	onSite := false
	assert.False(t, (&QueryFilter{OnSite: &onSite}).IsEmpty())
	assert.False(t, (&QueryFilter{Search: "jane"}).IsEmpty())
}
