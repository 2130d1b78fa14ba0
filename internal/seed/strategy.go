package seed

import (
	"fmt"
	"time"

	"github.com/johnwards/treeseed/internal/domain"
)

// Assignment is one scalar value to set on an instance.
type Assignment struct {
	Field string
	Value any
}

// RelationSpec declares an outgoing relation of a class: the relation field,
// the class its targets are picked from, and whether it holds one target or
// an ordered list of up to MaxManyTargets.
type RelationSpec struct {
	Field       string
	Target      string
	Cardinality string
}

// PopulateFunc derives the scalar assignments of instance index. epoch is the
// base date of the run.
type PopulateFunc func(index int, epoch time.Time) []Assignment

// Strategy is how instances of one class are filled: its scalar values and
// its outgoing relations.
type Strategy struct {
	Populate  PopulateFunc
	Relations []RelationSpec
}

// Strategies maps class names to their strategy.
type Strategies map[string]Strategy

// For returns the strategy registered for className, or the generic one that
// only sets a display name.
func (s Strategies) For(className string) Strategy {
	if st, ok := s[className]; ok {
		return st
	}
	return genericStrategy(className)
}

func genericStrategy(className string) Strategy {
	return Strategy{
		Populate: func(index int, _ time.Time) []Assignment {
			return []Assignment{{"name", fmt.Sprintf("%s %d", className, index)}}
		},
	}
}

func one(field, target string) RelationSpec {
	return RelationSpec{Field: field, Target: target, Cardinality: domain.CardinalityOne}
}

func many(field, target string) RelationSpec {
	return RelationSpec{Field: field, Target: target, Cardinality: domain.CardinalityMany}
}

func days(epoch time.Time, n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

// BookingStrategies returns the strategies for the booking catalog.
func BookingStrategies() Strategies {
	return Strategies{
		"Customer": {
			Populate: func(i int, _ time.Time) []Assignment {
				gender := "female"
				if i%2 == 0 {
					gender = "male"
				}
				return []Assignment{
					{"firstname", fmt.Sprintf("Customer%d", i)},
					{"lastname", fmt.Sprintf("User%d", i)},
					{"gender", gender},
					{"email", fmt.Sprintf("customer%d@example.com", i)},
					{"password", "password123"},
				}
			},
		},
		"Company": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{
					{"companyName", fmt.Sprintf("Company %d", i)},
					{"email", fmt.Sprintf("company%d@example.com", i)},
					{"password", "password123"},
					{"phoneNumber", 1000000000 + i},
				}
			},
		},
		"Accommodation": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{{"name", fmt.Sprintf("Accommodation %d", i)}}
			},
			Relations: []RelationSpec{one("reservation", "Reservation")},
		},
		"Unit": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{
					{"number", i},
					{"numberOfRooms", i%5 + 1},
					{"numberOfBeds", i%4 + 1},
					{"numberOfBathrooms", i%3 + 1},
				}
			},
			Relations: []RelationSpec{one("accommodation", "Accommodation")},
		},
		"Reservation": {
			Populate: func(i int, _ time.Time) []Assignment {
				types := []string{"Hotel", "Appartement"}
				return []Assignment{
					{"title", fmt.Sprintf("Reservation %d", i)},
					{"description", fmt.Sprintf("Description for reservation %d", i)},
					{"reservationType", types[i%len(types)]},
					{"availabeReservation", true},
				}
			},
			Relations: []RelationSpec{one("company", "Company")},
		},
		"CustomerBookedReservations": {
			Populate: func(i int, epoch time.Time) []Assignment {
				return []Assignment{
					{"paidPrice", float64(500 + i*50)},
					{"date", epoch},
				}
			},
			Relations: []RelationSpec{
				one("customer", "Customer"),
				one("reservation", "Reservation"),
			},
		},
		"CustomerPayment": {
			Populate: func(i int, epoch time.Time) []Assignment {
				return []Assignment{
					{"totalPrice", float64(500 + i*50)},
					{"date", days(epoch, i)},
					{"isPaid", i%2 == 0},
					{"instalmentsNumber", i%12 + 1},
				}
			},
			// The customer relation of a payment is configured to accept
			// payments, not customers.
			Relations: []RelationSpec{one("customer", "CustomerPayment")},
		},
		"CustomerInstalments": {
			Populate: func(i int, epoch time.Time) []Assignment {
				return []Assignment{
					{"price", float64(100 + i*10)},
					{"instalmentDate", epoch},
				}
			},
			Relations: []RelationSpec{one("customer", "Customer")},
		},
		"ReservationInternalTrip": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{
					{"name", fmt.Sprintf("Trip %d", i)},
					{"price", float64(100 + i*10)},
					{"description", fmt.Sprintf("Trip description %d", i)},
				}
			},
			Relations: []RelationSpec{one("reservation", "Reservation")},
		},
		"ReservationReviews": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{
					{"rating", i%5 + 1},
					{"comment", fmt.Sprintf("Sample review comment %d", i)},
				}
			},
			Relations: []RelationSpec{
				one("reservation", "Reservation"),
				one("customer", "Customer"),
			},
		},
		"UnitUtilities": {
			Populate: func(i int, _ time.Time) []Assignment {
				return []Assignment{
					{"isWifi", i%2 == 0},
					{"isTv", i%3 == 0},
					{"isAirConditioner", i%2 == 1},
				}
			},
			Relations: []RelationSpec{many("unit", "Unit")},
		},
	}
}
