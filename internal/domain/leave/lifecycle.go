package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

func (s *Service) Submit(ctx context.Context, requester Person, in SubmitInput) (Request, error) {
	if !ValidCategory(in.Category) {
		return Request{}, ErrInvalidCategory
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Request{}, invalidRequest("start and end dates are required")
	}
	start, end := DateOnly(in.StartDate), DateOnly(in.EndDate)
	if start.After(end) {
		return Request{}, invalidRequest("start date must not be after end date")
	}
	if in.Days <= 0 {
		return Request{}, invalidRequest("days must be positive")
	}

	now := s.now()
	req := Request{
		ID:        newID(),
		UserID:    requester.ID,
		UserName:  requester.Name,
		UserEmail: requester.Email,
		Category:  in.Category,
		StartDate: start,
		EndDate:   end,
		Days:      in.Days,
		Reason:    strings.TrimSpace(in.Reason),
		Status:    StatusPending,
		CreatedAt: now,
	}
	key := CreditKey{UserID: requester.ID, Year: now.Year(), Category: in.Category}
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := tx.LockCredit(ctx, key)
		if errors.Is(err, ErrNoCreditRecord) {
			return noCreditRecord(in.Category)
		}
		if err != nil {
			return err
		}
		if dec(in.Days).GreaterThan(dec(c.RemainingDays)) {
			return &InsufficientBalanceError{Key: key, Available: c.RemainingDays, Requested: in.Days}
		}
		return tx.SaveRequest(ctx, req)
	})
	if err != nil {
		return Request{}, err
	}
	s.observeTransition(StatusPending)

	req.CategoryName = CategoryName(req.Category)
	if s.Notifier != nil && s.Directory != nil {
		subject, body := submittedMessage(req)
		s.background("notify_hr", func(ctx context.Context) error {
			contacts, err := s.Directory.HRContacts(ctx)
			if err != nil {
				return fmt.Errorf("list hr contacts: %w", err)
			}
			var errs []error
			for _, hr := range contacts {
				if hr.Email == "" {
					continue
				}
				if err := s.Notifier.Notify(ctx, hr.Email, subject, body); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	}
	return req, nil
}

// Approve decides a pending request and consumes the credit in the same
// unit of work. The ledger key uses the processing year.
func (s *Service) Approve(ctx context.Context, reviewer Person, id, comment string) (Request, error) {
	now := s.now()
	var decided Request
	err := s.Store.InTx(ctx, func(tx Tx) error {
		req, err := tx.LockRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		key := CreditKey{UserID: req.UserID, Year: now.Year(), Category: req.Category}
		if _, err := applyUsage(ctx, tx, key, req.Days, now); err != nil {
			return err
		}
		req.Status = StatusApproved
		req.ProcessedBy = reviewer.ID
		req.Comment = strings.TrimSpace(comment)
		req.ProcessedAt = &now
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		decided = req
		return nil
	})
	s.observeCredit("approve", err)
	if err != nil {
		return Request{}, err
	}
	s.observeTransition(StatusApproved)
	decided.CategoryName = CategoryName(decided.Category)

	if s.Calendar != nil {
		event := Event{
			Title:       fmt.Sprintf("%s - %s", decided.UserName, decided.CategoryName),
			Description: decided.Reason,
			Start:       decided.StartDate,
			End:         decided.EndDate,
		}
		requestID := decided.ID
		s.background("calendar_request", func(ctx context.Context) error {
			eventID, err := s.Calendar.CreateEvent(ctx, event)
			if err != nil {
				return err
			}
			if eventID == "" {
				return nil
			}
			return s.Store.SetRequestCalendarEvent(ctx, requestID, eventID)
		})
	}
	subject, body := decisionMessage(decided)
	s.notify(Person{ID: decided.UserID, Name: decided.UserName, Email: decided.UserEmail}, subject, body)
	return decided, nil
}

func (s *Service) Reject(ctx context.Context, reviewer Person, id, comment string) (Request, error) {
	now := s.now()
	var decided Request
	err := s.Store.InTx(ctx, func(tx Tx) error {
		req, err := tx.LockRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		req.Status = StatusRejected
		req.ProcessedBy = reviewer.ID
		req.Comment = strings.TrimSpace(comment)
		req.ProcessedAt = &now
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		decided = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	s.observeTransition(StatusRejected)
	decided.CategoryName = CategoryName(decided.Category)
	subject, body := decisionMessage(decided)
	s.notify(Person{ID: decided.UserID, Name: decided.UserName, Email: decided.UserEmail}, subject, body)
	return decided, nil
}

func (s *Service) GetRequest(ctx context.Context, id string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.CategoryName = CategoryName(req.Category)
	return req, nil
}

func (s *Service) ListRequestsForUser(ctx context.Context, userID string) ([]Request, error) {
	return s.listRequests(ctx, RequestFilter{UserID: userID})
}

func (s *Service) ListAllRequests(ctx context.Context) ([]Request, error) {
	return s.listRequests(ctx, RequestFilter{})
}

func (s *Service) ListPendingRequests(ctx context.Context) ([]Request, error) {
	return s.listRequests(ctx, RequestFilter{Status: StatusPending})
}

func (s *Service) listRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	reqs, err := s.Store.ListRequests(ctx, filter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(reqs)
	for i := range reqs {
		reqs[i].CategoryName = CategoryName(reqs[i].Category)
	}
	return reqs, nil
}

func sortNewestFirst(reqs []Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID > reqs[j].ID
	})
}
