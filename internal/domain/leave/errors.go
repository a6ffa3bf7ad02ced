package leave

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidCategory          = errors.New("invalid holiday category")
	ErrNoCreditRecord           = errors.New("no credits assigned")
	ErrInsufficientBalance      = errors.New("insufficient credits")
	ErrAdjustmentExceedsBalance = errors.New("adjustment exceeds remaining credits")
	ErrNotFound                 = errors.New("not found")
	ErrAlreadyProcessed         = errors.New("request already processed")
	ErrInvalidRequest           = errors.New("invalid request")
)

// InsufficientBalanceError carries the balance at the time of the refusal.
type InsufficientBalanceError struct {
	Key       CreditKey
	Available float64
	Requested float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s credits: available %s days, requested %s days",
		CategoryName(e.Key.Category), formatDays(e.Available), formatDays(e.Requested))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

type AdjustmentExceedsBalanceError struct {
	Key       CreditKey
	Remaining float64
	Delta     float64
}

func (e *AdjustmentExceedsBalanceError) Error() string {
	return fmt.Sprintf("cannot reduce more than available: current remaining %s days, adjustment %s",
		formatDays(e.Remaining), formatDays(e.Delta))
}

func (e *AdjustmentExceedsBalanceError) Unwrap() error {
	return ErrAdjustmentExceedsBalance
}

func noCreditRecord(category string) error {
	return fmt.Errorf("%w for %s", ErrNoCreditRecord, CategoryName(category))
}

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

func formatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
