package economy

import "errors"

var (
	// ErrCreditDenied is returned when a loan's payment would push total
	// obligations above the player's affordability threshold.
	ErrCreditDenied = errors.New("credit denied")

	// ErrInsufficientFunds is returned when a purchase, renovation or
	// construction costs more than the player's cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrInvalidLoan       = errors.New("invalid loan request")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrUnknownLot        = errors.New("unknown lot")
	ErrInvalidBuilding   = errors.New("invalid building type")
	ErrInvalidRenovation = errors.New("invalid renovation level")
	ErrZoning            = errors.New("building not allowed by lot zoning")
)
