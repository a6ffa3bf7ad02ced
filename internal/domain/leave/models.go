package leave

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreditKey struct {
	UserID   string
	Year     int
	Category string
}

func (k CreditKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.UserID, k.Year, k.Category)
}

type Credit struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	Year          int       `json:"year"`
	Category      string    `json:"category"`
	CategoryName  string    `json:"categoryName"`
	TotalDays     float64   `json:"totalDays"`
	UsedDays      float64   `json:"usedDays"`
	RemainingDays float64   `json:"remainingDays"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (c Credit) Key() CreditKey {
	return CreditKey{UserID: c.UserID, Year: c.Year, Category: c.Category}
}

type Request struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	UserEmail       string     `json:"userEmail"`
	Category        string     `json:"category"`
	CategoryName    string     `json:"categoryName"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Days            float64    `json:"days"`
	Reason          string     `json:"reason"`
	Status          Status     `json:"status"`
	ProcessedBy     string     `json:"processedBy,omitempty"`
	Comment         string     `json:"hrComment,omitempty"`
	CalendarEventID string     `json:"calendarEventId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
}

type Holiday struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	Year            int       `json:"year"`
	CalendarEventID string    `json:"calendarEventId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type SubmitInput struct {
	Category  string
	StartDate time.Time
	EndDate   time.Time
	Days      float64
	Reason    string
}

type AdjustResult struct {
	TotalDays     float64 `json:"totalDays"`
	UsedDays      float64 `json:"usedDays"`
	RemainingDays float64 `json:"remainingDays"`
}

// Event is an all-day entry on the shared calendar. End is inclusive.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

type CreditFilter struct {
	UserID string
	Year   *int
}

type RequestFilter struct {
	UserID string
	Status Status
	// StartFrom and StartBefore bound StartDate when set.
	StartFrom   time.Time
	StartBefore time.Time
}

type HolidayFilter struct {
	Year   *int
	From   time.Time
	Before time.Time
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
