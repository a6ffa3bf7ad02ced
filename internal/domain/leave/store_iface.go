package leave

import "context"

// Tx is one atomic unit of work. Locks taken through it are held until the
// surrounding InTx call returns.
type Tx interface {
	// LockCredit returns ErrNoCreditRecord when the record is absent; the key
	// stays locked either way so a following SaveCredit cannot race a creator.
	LockCredit(ctx context.Context, key CreditKey) (Credit, error)
	SaveCredit(ctx context.Context, credit Credit) error
	LockRequest(ctx context.Context, id string) (Request, error)
	SaveRequest(ctx context.Context, req Request) error
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	GetCredit(ctx context.Context, key CreditKey) (Credit, error)
	ListCredits(ctx context.Context, filter CreditFilter) ([]Credit, error)

	GetRequest(ctx context.Context, id string) (Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	SetRequestCalendarEvent(ctx context.Context, id, eventID string) error

	ListHolidays(ctx context.Context, filter HolidayFilter) ([]Holiday, error)
	GetHoliday(ctx context.Context, id string) (Holiday, error)
	CreateHoliday(ctx context.Context, holiday Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	SetHolidayCalendarEvent(ctx context.Context, id, eventID string) error
}
