package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func days(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// EnsureDefaults creates the registry allotment for every category the
// person has no record for in year. It returns how many records it created.
func (s *Service) EnsureDefaults(ctx context.Context, person Person, year int) (int, error) {
	now := s.now()
	created := 0
	err := s.Store.InTx(ctx, func(tx Tx) error {
		created = 0
		for _, c := range registry {
			key := CreditKey{UserID: person.ID, Year: year, Category: c.ID}
			_, err := tx.LockCredit(ctx, key)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNoCreditRecord) {
				return err
			}
			credit := Credit{
				ID:            newID(),
				UserID:        person.ID,
				UserName:      person.Name,
				UserEmail:     person.Email,
				Year:          year,
				Category:      c.ID,
				TotalDays:     c.DefaultDays,
				RemainingDays: c.DefaultDays,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.SaveCredit(ctx, credit); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	s.observeCredit("ensure_defaults", err)
	if err != nil {
		return 0, fmt.Errorf("ensure default credits: %w", err)
	}
	return created, nil
}

func (s *Service) Balance(ctx context.Context, userID string, year int, category string) (Credit, error) {
	if !ValidCategory(category) {
		return Credit{}, ErrInvalidCategory
	}
	c, err := s.Store.GetCredit(ctx, CreditKey{UserID: userID, Year: year, Category: category})
	if errors.Is(err, ErrNoCreditRecord) {
		return Credit{}, noCreditRecord(category)
	}
	if err != nil {
		return Credit{}, err
	}
	return decorate(c), nil
}

func (s *Service) ListCreditsForUser(ctx context.Context, userID string, year *int) ([]Credit, error) {
	credits, err := s.Store.ListCredits(ctx, CreditFilter{UserID: userID, Year: year})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(credits, func(i, j int) bool {
		if credits[i].Year != credits[j].Year {
			return credits[i].Year > credits[j].Year
		}
		return credits[i].Category < credits[j].Category
	})
	return decorateAll(credits), nil
}

func (s *Service) ListAllCredits(ctx context.Context) ([]Credit, error) {
	credits, err := s.Store.ListCredits(ctx, CreditFilter{})
	if err != nil {
		return nil, err
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(credits, func(i, j int) bool {
		a, b := credits[i], credits[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if c := col.CompareString(a.UserName, b.UserName); c != 0 {
			return c < 0
		}
		return a.Category < b.Category
	})
	return decorateAll(credits), nil
}

// Upsert sets the total allotment for a key, creating the record when
// absent. A total below the used amount leaves remaining negative.
func (s *Service) Upsert(ctx context.Context, userID string, year int, category string, totalDays float64) (Credit, error) {
	if !ValidCategory(category) {
		return Credit{}, ErrInvalidCategory
	}
	if totalDays < 0 {
		return Credit{}, invalidRequest("total days must not be negative")
	}
	person, err := s.Directory.Person(ctx, userID)
	if err != nil {
		return Credit{}, err
	}
	now := s.now()
	key := CreditKey{UserID: userID, Year: year, Category: category}

	var saved Credit
	err = s.Store.InTx(ctx, func(tx Tx) error {
		c, err := tx.LockCredit(ctx, key)
		switch {
		case errors.Is(err, ErrNoCreditRecord):
			c = Credit{ID: newID(), UserID: userID, Year: year, Category: category, CreatedAt: now}
		case err != nil:
			return err
		}
		c.UserName = person.Name
		c.UserEmail = person.Email
		c.TotalDays = totalDays
		c.RemainingDays = days(dec(totalDays).Sub(dec(c.UsedDays)))
		c.UpdatedAt = now
		if err := tx.SaveCredit(ctx, c); err != nil {
			return err
		}
		saved = c
		return nil
	})
	s.observeCredit("upsert", err)
	if err != nil {
		return Credit{}, err
	}
	if saved.RemainingDays < 0 {
		slog.Warn("credit total set below used days", "key", key.String(), "total", saved.TotalDays, "used", saved.UsedDays)
	}
	saved = decorate(saved)
	subject, body := updatedMessage(saved)
	s.notify(person, subject, body)
	return saved, nil
}

// ApplyUsage moves days from remaining to used.
func (s *Service) ApplyUsage(ctx context.Context, key CreditKey, amount float64) (Credit, error) {
	var updated Credit
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := applyUsage(ctx, tx, key, amount, s.now())
		updated = c
		return err
	})
	s.observeCredit("apply_usage", err)
	if err != nil {
		return Credit{}, err
	}
	return decorate(updated), nil
}

func applyUsage(ctx context.Context, tx Tx, key CreditKey, amount float64, now time.Time) (Credit, error) {
	c, err := tx.LockCredit(ctx, key)
	if errors.Is(err, ErrNoCreditRecord) {
		return Credit{}, noCreditRecord(key.Category)
	}
	if err != nil {
		return Credit{}, err
	}
	remaining := dec(c.RemainingDays)
	want := dec(amount)
	if want.GreaterThan(remaining) {
		return Credit{}, &InsufficientBalanceError{Key: key, Available: c.RemainingDays, Requested: amount}
	}
	c.UsedDays = days(dec(c.UsedDays).Add(want))
	c.RemainingDays = days(remaining.Sub(want))
	c.UpdatedAt = now
	if err := tx.SaveCredit(ctx, c); err != nil {
		return Credit{}, err
	}
	return c, nil
}

// Adjust shifts remaining by delta. Positive deltas return used days first
// and raise the total when remaining would exceed it.
func (s *Service) Adjust(ctx context.Context, key CreditKey, delta float64, reason string) (AdjustResult, error) {
	if !ValidCategory(key.Category) {
		return AdjustResult{}, ErrInvalidCategory
	}
	var updated Credit
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := tx.LockCredit(ctx, key)
		if errors.Is(err, ErrNoCreditRecord) {
			return noCreditRecord(key.Category)
		}
		if err != nil {
			return err
		}
		remaining := dec(c.RemainingDays).Add(dec(delta))
		if remaining.IsNegative() {
			return &AdjustmentExceedsBalanceError{Key: key, Remaining: c.RemainingDays, Delta: delta}
		}
		used := dec(c.UsedDays).Sub(dec(delta))
		if used.IsNegative() {
			used = decimal.Zero
		}
		total := dec(c.TotalDays)
		if remaining.GreaterThan(total) {
			total = remaining
		}
		c.TotalDays = days(total)
		c.UsedDays = days(used)
		c.RemainingDays = days(remaining)
		c.UpdatedAt = s.now()
		if err := tx.SaveCredit(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	s.observeCredit("adjust", err)
	if err != nil {
		return AdjustResult{}, err
	}
	updated = decorate(updated)
	subject, body := adjustedMessage(updated, delta, reason)
	s.notify(Person{ID: updated.UserID, Name: updated.UserName, Email: updated.UserEmail}, subject, body)
	return AdjustResult{TotalDays: updated.TotalDays, UsedDays: updated.UsedDays, RemainingDays: updated.RemainingDays}, nil
}

func decorate(c Credit) Credit {
	c.CategoryName = CategoryName(c.Category)
	return c
}

func decorateAll(credits []Credit) []Credit {
	for i := range credits {
		credits[i] = decorate(credits[i])
	}
	return credits
}
