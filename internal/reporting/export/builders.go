package export

import (
	"strconv"
	"time"

	reportapp "fuel-dashboard/internal/reporting/application"
	reporting "fuel-dashboard/internal/reporting/domain"
)

const timeLayout = "2006-01-02 15:04"

var (
	transactionHeaders = []string{"Date It Was Used", "Recording Dated", "User", "Amount (L)", "Comment", "Generator", "Plaza"}
	userHeaders        = []string{"Name", "Email", "Role", "Plaza"}
	detailHeaders      = []string{"Refuel Date", "Record Date", "Type", "Generator", "Fuel Added (L)", "Fuel Used (L)", "Odometer(hrs)", "Diff since prev (hours)", "HoursPerLiter"}
	combinedHeaders    = []string{"Refuel Date", "Record Date", "Type", "Generator", "User", "Fuel Added (L)", "Fuel Used (L)", "Odometer(hrs)", "Diff since prev (hours)", "HoursPerLiter"}
)

// TransactionsTable builds the transaction listing export.
func TransactionsTable(txs []reportapp.TransactionView) Table {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			formatTime(tx.OccurredAt),
			formatTime(tx.RecordedAt),
			tx.User,
			formatLiters(tx.Amount),
			tx.Notes,
			tx.Generator,
			tx.Plaza,
		})
	}
	return Table{Title: "Fuel Transactions", Sheet: "Transactions", Headers: transactionHeaders, Rows: rows}
}

// UsersTable builds the user listing export.
func UsersTable(users []reportapp.UserView) Table {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		plaza := u.Plaza
		if plaza == "" {
			plaza = "-"
		}
		rows = append(rows, []string{u.Name, u.Email, u.Role, plaza})
	}
	return Table{Title: "Users", Sheet: "Users", Headers: userHeaders, Rows: rows}
}

// UserDetailTable builds one user's detail export.
func UserDetailTable(detail *reportapp.UserDetail) Table {
	t := Table{Title: "User Detail", Sheet: "Detail", Headers: detailHeaders}
	if detail == nil {
		return t
	}
	t.Title = "User Detail: " + detail.User.Name
	t.Rows = make([][]string, 0, len(detail.Rows))
	for _, r := range detail.Rows {
		t.Rows = append(t.Rows, detailCells(r, "", false))
	}
	return t
}

// DetailRowsTable builds a detail export from raw rows.
func DetailRowsTable(title string, rows []reporting.DetailRow) Table {
	t := Table{Title: title, Sheet: "Detail", Headers: detailHeaders, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, detailCells(r, "", false))
	}
	return t
}

// CombinedTable builds the multi-user export with a User column.
func CombinedTable(report *reportapp.MultiUserReport) Table {
	t := Table{Title: "Multi-User Detail", Sheet: "Combined", Headers: combinedHeaders}
	if report == nil {
		return t
	}
	t.Rows = make([][]string, 0, len(report.Combined))
	for _, r := range report.Combined {
		t.Rows = append(t.Rows, detailCells(r.DetailRow, r.User, true))
	}
	return t
}

func detailCells(r reporting.DetailRow, user string, withUser bool) []string {
	added, used := "", ""
	if r.LitersAdded > 0 {
		added = formatLiters(r.LitersAdded)
	}
	if r.LitersUsed > 0 {
		used = formatLiters(r.LitersUsed)
	}
	cells := []string{
		formatTime(r.OccurredAt),
		formatTime(r.RecordedAt),
		r.Kind.Label(),
		r.GeneratorLabel,
	}
	if withUser {
		cells = append(cells, user)
	}
	return append(cells,
		added,
		used,
		formatOptional(r.OdometerReading),
		formatOptional(r.OdometerDelta),
		formatOptional(r.ConsumptionRate),
	)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatLiters(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
