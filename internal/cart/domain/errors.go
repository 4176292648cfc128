package domain

import "errors"

var (
	// ErrCartWithoutCustomer is returned when neither customer kind is set
	ErrCartWithoutCustomer = errors.New("cart must have an online or in-person customer")
	// ErrCartTwoCustomers is returned when both customer kinds are set
	ErrCartTwoCustomers = errors.New("cart cannot have both an online and an in-person customer")
	// ErrCartNotFound is returned for unknown cart references
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartNotActive is returned when a mutation targets a processed or
	// abandoned cart
	ErrCartNotActive = errors.New("cart is not active")
)
