package service

import "errors"

var (
	// ErrNotFound is returned when a product, sale, order, or customer
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned when a checkout line asks for more
	// units than the product holds. No stock is touched when it fires.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition is returned when an order is asked to move to
	// a payment or fulfillment state its current state does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrOverReturn is returned when a return would exceed the quantity
	// originally sold on the line, counting prior partial returns.
	ErrOverReturn = errors.New("return exceeds sold quantity")

	// ErrEmptyOperation is returned for requests that carry nothing to
	// act on, such as a checkout with no lines or a zero-quantity return.
	ErrEmptyOperation = errors.New("empty or invalid operation")
)
