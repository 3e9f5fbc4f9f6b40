package storage

import (
	"database/sql"
)

type WorkLog struct {
	ID          int64
	Day         string
	DayType     string
	StartMinute sql.NullInt64
	EndMinute   sql.NullInt64
	Note        string
	CreatedAt   Timestamp
	UpdatedAt   Timestamp
}

type MonthlyInput struct {
	Year           int64
	Month          int64
	WorkingDays    int64
	Meals          int64
	OvertimeHours  string
	MealRate       string
	OvertimeRate   string
	AutoCalculated bool
	UpdatedAt      Timestamp
}

type Habit struct {
	ID               int64
	Name             string
	Description      string
	CurrentStreak    int64
	LongestStreak    int64
	TotalCompletions int64
	LastCompleted    sql.NullString
	Archived         bool
	CreatedAt        Timestamp
}

type Achievement struct {
	ID         int64
	HabitID    int64
	Code       string
	Title      string
	Metric     string
	Threshold  int64
	UnlockedAt Timestamp
}

type FocusSession struct {
	ID             int64
	Label          string
	HabitID        sql.NullInt64
	StartedAt      Timestamp
	EndedAt        Timestamp
	PlannedMinutes int64
}

type Account struct {
	ID           int64
	Name         string
	Kind         string
	OpeningCents int64
	Archived     bool
	CreatedAt    Timestamp
}

type Loan struct {
	ID             int64
	Name           string
	Counterparty   string
	Direction      string
	PrincipalCents int64
	AnnualRate     string
	TenureMonths   int64
	StartDate      string
	CreatedAt      Timestamp
}

type RecurringTransaction struct {
	ID                int64
	Kind              string
	Every             string
	StartDate         string
	EndDate           sql.NullString
	AmountCents       int64
	AccountID         int64
	Category          string
	Description       string
	LoanID            sql.NullInt64
	LastExecutionDate Timestamp
	CreatedAt         Timestamp
}

type Transaction struct {
	ID           int64
	Kind         string
	Day          string
	AmountCents  int64
	Category     string
	Description  string
	FromAccount  sql.NullInt64
	ToAccount    sql.NullInt64
	LoanID       sql.NullInt64
	RecurringID  sql.NullInt64
	CreatedAt    Timestamp
	DeletedAt    Timestamp
	ExportStatus string
	ExportRef    sql.NullString

	ExportAttempts int64
}
