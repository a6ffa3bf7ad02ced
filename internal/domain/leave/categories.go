package leave

type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DefaultDays float64 `json:"defaultDays"`
	Description string  `json:"description"`
}

const (
	CategoryPaidHoliday    = "paid_holiday"
	CategoryUnpaidLeave    = "unpaid_leave"
	CategorySickLeave      = "sick_leave"
	CategoryParentalLeave  = "parental_leave"
	CategoryMaternityLeave = "maternity_leave"
)

// registry order is the display order and the order keys are locked in.
var registry = []Category{
	{ID: CategoryPaidHoliday, Name: "Paid Holidays", DefaultDays: 35, Description: "Annual paid time off"},
	{ID: CategoryUnpaidLeave, Name: "Unpaid Leave", DefaultDays: 0, Description: "Time off without pay"},
	{ID: CategorySickLeave, Name: "Sick Leave (No Justification)", DefaultDays: 5, Description: "Sick days that do not require a medical certificate"},
	{ID: CategoryParentalLeave, Name: "Parental Leave", DefaultDays: 10, Description: "Leave for parents after a birth or adoption"},
	{ID: CategoryMaternityLeave, Name: "Maternity Leave", DefaultDays: 90, Description: "Leave before and after childbirth"},
}

func Categories() []Category {
	out := make([]Category, len(registry))
	copy(out, registry)
	return out
}

func lookupCategory(id string) (Category, bool) {
	for _, c := range registry {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

func ValidCategory(id string) bool {
	_, ok := lookupCategory(id)
	return ok
}

// CategoryName returns the display name, or the id itself for unknown ids.
func CategoryName(id string) string {
	if c, ok := lookupCategory(id); ok {
		return c.Name
	}
	return id
}

func DefaultAllotment(id string) float64 {
	c, _ := lookupCategory(id)
	return c.DefaultDays
}
