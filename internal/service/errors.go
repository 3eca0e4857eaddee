package service

import "errors"

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidBuyer      = errors.New("invalid buyer")
	ErrInvalidPrice      = errors.New("invalid unit price")
	ErrInvalidItem       = errors.New("invalid item")
	ErrDuplicateItem     = errors.New("item already exists")
	ErrOrderNotFound     = errors.New("order not found")

	// ErrJournalWrite is never returned from Purchase. It is reported on
	// PurchaseResult.JournalErr when the order could not be recorded after
	// the stock decrement committed.
	ErrJournalWrite = errors.New("order journal write failed")
)
