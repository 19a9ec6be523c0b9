package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "+79156732891", "+79156732891"},
		{"leading eight", "89156732891", "+79156732891"},
		{"leading seven", "79156732891", "+79156732891"},
		{"with spaces and dashes", "8 915 673-28-91", "+79156732891"},
		{"bare local", "9156732891", "+9156732891"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestProgramFreeSpots(t *testing.T) {
	p := &Program{MaxParticipants: 12, CurrentParticipants: 10}
	assert.Equal(t, int64(2), p.FreeSpots())

	p.CurrentParticipants = 15
	assert.Equal(t, int64(0), p.FreeSpots())
}

func TestProgramHasSinglePrice(t *testing.T) {
	p := &Program{}
	assert.False(t, p.HasSinglePrice())

	zero := int64(0)
	p.SinglePrice = &zero
	assert.False(t, p.HasSinglePrice())

	price := int64(1200)
	p.SinglePrice = &price
	assert.True(t, p.HasSinglePrice())
}

func TestApplicationKind(t *testing.T) {
	sid := int64(7)
	single := &Application{SessionID: &sid}
	assert.True(t, single.IsSingleVisit())
	assert.False(t, single.IsPass())

	pass := &Application{SessionIDs: []int64{1, 2, 3, 4}}
	assert.True(t, pass.IsPass())
	assert.False(t, pass.IsSingleVisit())
}

func TestUserDisplayName(t *testing.T) {
	u := &User{FirstName: "Анна", LastName: "Карелина"}
	assert.Equal(t, "Анна Карелина", u.DisplayName())

	u = &User{Username: "anv_karelina"}
	assert.Equal(t, "anv_karelina", u.DisplayName())
}
