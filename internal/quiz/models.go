package quiz

const DefaultPassingScore = 70.0

type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text" validate:"required"`
	Options     []Option `json:"options" validate:"min=1,dive"`
	Explanation string   `json:"explanation,omitempty"`
}

type Quiz struct {
	ID               string     `json:"id"`
	CourseID         string     `json:"courseId"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Questions        []Question `json:"questions"`
	PassingScore     float64    `json:"passingScore"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
	IsActive         bool       `json:"isActive"`
	CreatedBy        string     `json:"createdBy,omitempty"`
	CreatedAt        int64      `json:"createdAt,omitempty"`
	UpdatedAt        int64      `json:"updatedAt,omitempty"`
}

// ForStudent returns a copy with answer keys and explanations removed.
func (q Quiz) ForStudent() Quiz {
	out := q
	out.CreatedBy = ""
	out.Questions = make([]Question, len(q.Questions))
	for i, qu := range q.Questions {
		qu.Explanation = ""
		opts := make([]Option, len(qu.Options))
		for j, o := range qu.Options {
			opts[j] = Option{ID: o.ID, Text: o.Text}
		}
		qu.Options = opts
		out.Questions[i] = qu
	}
	return out
}
