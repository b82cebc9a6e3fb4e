package harvest

type Credentials struct {
	AccountID string
	Token     string
	UserAgent string
}

type ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type project struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Code     *string `json:"code"`
	IsActive bool    `json:"is_active"`
	Client   ref     `json:"client"`
}

type taskAssignment struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
	Project  ref   `json:"project"`
	Task     ref   `json:"task"`
}

type links struct {
	Next *string `json:"next"`
}

type TimeEntryRequest struct {
	ProjectID int64   `json:"project_id"`
	TaskID    int64   `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

type TimeEntry struct {
	ID        int64   `json:"id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
	Project   ref     `json:"project"`
	Task      ref     `json:"task"`
}
