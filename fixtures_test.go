package exprconv_test

import (
	"time"

	"github.com/google/uuid"

	"github.com/theplant/exprconv/schema"
)

type Status int32

const (
	StatusPending Status = iota
	StatusActive
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusSuspended:
		return "Suspended"
	}
	return "Status(?)"
}

func init() {
	schema.RegisterEnum(StatusPending, StatusActive, StatusSuspended)
}

type Profile struct {
	Name     string
	City     string
	Verified bool
}

type Line struct {
	SKU string
	Qty int
}

type Order struct {
	ID     int
	Total  float64
	Status Status
	Lines  []Line
	Tags   []string
}

type Animal interface {
	Sound() string
}

type Dog struct {
	Breed string
	Age   int
}

func (Dog) Sound() string { return "woof" }

type Cat struct {
	Indoor bool
}

func (Cat) Sound() string { return "meow" }

type Customer struct {
	ID       uuid.UUID
	Age      int
	Score    *float64
	Active   bool
	Nickname *string
	Status   Status
	JoinedAt time.Time
	Tags     []string
	Profile  Profile
	Orders   []*Order
	Pet      Animal
}

var (
	ann = Customer{
		ID:       uuid.MustParse("7b0d4c6e-5a1f-4b55-9a53-1f2e3d4c5b6a"),
		Age:      34,
		Active:   true,
		Status:   StatusActive,
		JoinedAt: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Tags:     []string{"vip", "newsletter"},
		Profile:  Profile{Name: "Ann", City: "Lisbon", Verified: true},
		Orders: []*Order{
			{ID: 1, Total: 40, Status: StatusActive, Lines: []Line{{SKU: "A-1", Qty: 2}}},
			{ID: 2, Total: 250, Status: StatusSuspended, Tags: []string{"gift"}},
		},
		Pet: Dog{Breed: "collie", Age: 3},
	}
	bob = Customer{
		Age:      17,
		Status:   StatusPending,
		JoinedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Profile:  Profile{Name: "Bob", City: "Porto"},
		Pet:      Cat{Indoor: true},
	}
	cleo = Customer{
		Age:     52,
		Active:  true,
		Status:  StatusSuspended,
		Profile: Profile{Name: "Cleo", City: "Lisbon"},
		Orders:  []*Order{{ID: 3, Total: 90}},
	}
	customers = []Customer{ann, bob, cleo}
)

func names(cs []Customer) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Profile.Name
	}
	return out
}
