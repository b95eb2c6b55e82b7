package models

// Criterion - название одной проверки присланной партии.
type Criterion string

const (
	CriterionNotFulfilled      Criterion = "not_fulfilled"
	CriterionValidMembers      Criterion = "valid_members"
	CriterionNewGame           Criterion = "new_game"
	CriterionWithinDeadline    Criterion = "within_deadline"
	CriterionCorrectTimeFormat Criterion = "correct_time_format"
)

// ValidationReport содержит результат каждой проверки. Возвращается клиенту
// и при отклонении партии, чтобы было видно, какие проверки не прошли.
type ValidationReport struct {
	NotFulfilled      bool `json:"not_fulfilled"`
	ValidMembers      bool `json:"valid_members"`
	NewGame           bool `json:"new_game"`
	WithinDeadline    bool `json:"within_deadline"`
	CorrectTimeFormat bool `json:"correct_time_format"`
	Accepted          bool `json:"accepted"`
}

func NewValidationReport(notFulfilled, validMembers, newGame, withinDeadline, correctTimeFormat bool) ValidationReport {
	return ValidationReport{
		NotFulfilled:      notFulfilled,
		ValidMembers:      validMembers,
		NewGame:           newGame,
		WithinDeadline:    withinDeadline,
		CorrectTimeFormat: correctTimeFormat,
		Accepted:          notFulfilled && validMembers && newGame && withinDeadline && correctTimeFormat,
	}
}

// Failed перечисляет непройденные проверки в порядке их вычисления.
func (r ValidationReport) Failed() []Criterion {
	checks := []struct {
		name Criterion
		ok   bool
	}{
		{CriterionNotFulfilled, r.NotFulfilled},
		{CriterionValidMembers, r.ValidMembers},
		{CriterionNewGame, r.NewGame},
		{CriterionWithinDeadline, r.WithinDeadline},
		{CriterionCorrectTimeFormat, r.CorrectTimeFormat},
	}
	failed := make([]Criterion, 0)
	for _, c := range checks {
		if !c.ok {
			failed = append(failed, c.name)
		}
	}
	return failed
}
