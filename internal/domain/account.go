package domain

import "time"

// StartingCredits is granted to every new account and used for fallback views.
const StartingCredits = 10

// FallbackDeductBalance is reported when a deduction cannot reach the store.
const FallbackDeductBalance = 9

// UserAccount is the profile owned by the account gateway.
type UserAccount struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Credits     int       `json:"credits"`
	CreatedAt   time.Time `json:"created_at"`
}

// Identity is what an identity provider knows about an authenticated user.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	AccessToken string
}

// FallbackAccount builds the account view returned when the profile cannot be
// read in time.
func FallbackAccount(id Identity) UserAccount {
	return UserAccount{
		ID:          id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Credits:     StartingCredits,
	}
}

// ResultStatus distinguishes a real success from a degraded fallback.
type ResultStatus string

const (
	StatusOK       ResultStatus = "ok"
	StatusDegraded ResultStatus = "degraded"
)

// Result carries a value that may be a fallback. Failures are reported as a
// separate error, never as a Result.
type Result[T any] struct {
	Value  T
	Status ResultStatus
	Reason string
}

// Ok wraps a real value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v, Status: StatusOK} }

// Degraded wraps a fallback value and the reason it was used.
func Degraded[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Status: StatusDegraded, Reason: reason}
}

// IsDegraded reports whether the value is a fallback.
func (r Result[T]) IsDegraded() bool { return r.Status == StatusDegraded }

// CreditPackage is a purchasable bundle of credits.
type CreditPackage struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Credits  int      `json:"credits"`
	Price    float64  `json:"price"`
	Popular  bool     `json:"popular,omitempty"`
	Features []string `json:"features"`
}

// CreditPackages lists the bundles offered in the purchase dialog.
var CreditPackages = []CreditPackage{
	{
		ID: "starter", Name: "Starter", Credits: 50, Price: 4.99,
		Features: []string{"50 Image Generations", "Standard Speed", "No Expiry"},
	},
	{
		ID: "pro", Name: "Pro Value", Credits: 120, Price: 9.99, Popular: true,
		Features: []string{"120 Image Generations", "Priority Processing", "Commercial License"},
	},
	{
		ID: "studio", Name: "Studio Power", Credits: 500, Price: 29.99,
		Features: []string{"500 Image Generations", "Top Priority", "Commercial License", "Bulk Generation"},
	},
}

// FindCreditPackage looks up a package by id.
func FindCreditPackage(id string) (CreditPackage, bool) {
	for _, p := range CreditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}
