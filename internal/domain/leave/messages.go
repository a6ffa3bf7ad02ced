package leave

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"math"
)

var messages = template.Must(template.New("messages").Funcs(template.FuncMap{
	"date": func(r Request) string {
		return r.StartDate.Format(DateLayout) + " to " + r.EndDate.Format(DateLayout)
	},
	"days": formatDays,
}).Parse(`
{{define "submitted"}}<h2>New Holiday Request</h2>
<p><strong>Employee:</strong> {{.UserName}}</p>
<p><strong>Category:</strong> {{.CategoryName}}</p>
<p><strong>Dates:</strong> {{date .}}</p>
<p><strong>Days:</strong> {{days .Days}}</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>Please review this request in the holiday management system.</p>{{end}}

{{define "approved"}}<h2>{{.CategoryName}} Request Approved</h2>
<p>Your request has been approved.</p>
<p><strong>Category:</strong> {{.CategoryName}}</p>
<p><strong>Dates:</strong> {{date .}}</p>
<p><strong>Days:</strong> {{days .Days}}</p>
{{if .Comment}}<p><strong>HR Comment:</strong> {{.Comment}}</p>{{end}}{{end}}

{{define "rejected"}}<h2>Holiday Request Rejected</h2>
<p>Unfortunately, your holiday request has been rejected.</p>
<p><strong>Dates:</strong> {{date .}}</p>
<p><strong>Days:</strong> {{days .Days}}</p>
{{if .Comment}}<p><strong>HR Comment:</strong> {{.Comment}}</p>{{end}}
<p>Please contact HR for more information.</p>{{end}}

{{define "updated"}}<h2>{{.CategoryName}} Credits Updated</h2>
<p>Your {{.CategoryName}} credits for {{.Year}} have been updated.</p>
<p><strong>Total Days:</strong> {{days .TotalDays}}</p>
<p><strong>Remaining Days:</strong> {{days .RemainingDays}}</p>{{end}}

{{define "adjusted"}}<h2>{{.Credit.CategoryName}} Credits Adjusted</h2>
<p>Your {{.Credit.CategoryName}} credits for {{.Credit.Year}} have been {{.Action}} by {{days .Amount}} day(s).</p>
<p><strong>New Balance:</strong> {{days .Credit.RemainingDays}} days remaining</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}{{end}}
`))

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := messages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Warn("render message", "template", name, "err", err)
		return ""
	}
	return buf.String()
}

func submittedMessage(req Request) (string, string) {
	return fmt.Sprintf("New %s Request from %s", req.CategoryName, req.UserName), render("submitted", req)
}

func decisionMessage(req Request) (string, string) {
	if req.Status == StatusApproved {
		return fmt.Sprintf("Your %s Request has been Approved", req.CategoryName), render("approved", req)
	}
	return "Your Holiday Request has been Rejected", render("rejected", req)
}

func updatedMessage(c Credit) (string, string) {
	return fmt.Sprintf("%s Credits Updated for %d", c.CategoryName, c.Year), render("updated", c)
}

func adjustedMessage(c Credit, delta float64, reason string) (string, string) {
	action := "reduced"
	if delta > 0 {
		action = "increased"
	}
	body := render("adjusted", struct {
		Credit Credit
		Action string
		Amount float64
		Reason string
	}{c, action, math.Abs(delta), reason})
	return fmt.Sprintf("%s Credits Adjusted for %d", c.CategoryName, c.Year), body
}
