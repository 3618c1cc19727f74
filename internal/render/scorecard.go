package render

import (
	"fmt"
	"time"
)

type Attempt struct {
	CompletedAt time.Time
	Score       float64
	Passed      bool
}

type ScorecardData struct {
	SubmissionID     string
	StudentName      string
	CourseTitle      string
	QuizTitle        string
	Score            float64
	PassingScore     float64
	Passed           bool
	CorrectCount     int
	TotalQuestions   int
	AttemptedCount   int
	TimeSpentSeconds int
	CompletedAt      time.Time
	History          []Attempt // newest first
}

const gaugeWidth = 150.0

// Scorecard renders a portrait A4 summary of one attempt with a score gauge,
// a pass badge and the recent attempt history.
func (r *Renderer) Scorecard(s ScorecardData) ([]byte, error) {
	if err := required(map[string]string{
		"submission id": s.SubmissionID,
		"student name":  s.StudentName,
		"quiz title":    s.QuizTitle,
	}); err != nil {
		return nil, err
	}

	d := r.newDoc("P", "Quiz Scorecard - "+s.QuizTitle)
	d.AliasNbPages("")
	d.SetAutoPageBreak(true, 25)
	d.SetFooterFunc(func() {
		d.SetY(-18)
		d.SetFont("Helvetica", "I", 8)
		d.color(muted)
		d.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", d.PageNo()), "", 0, "C", false, 0, "")
	})
	d.SetHeaderFunc(d.frame)
	d.AddPage()

	w, _ := d.GetPageSize()
	d.centered(26, "B", 26, navy, "QUIZ SCORECARD")
	d.centered(40, "B", 18, ink, s.StudentName)
	if s.CourseTitle != "" {
		d.centered(50, "", 12, muted, s.CourseTitle)
	}
	d.centered(58, "I", 12, ink, s.QuizTitle)

	d.centered(70, "B", 36, ink, fmt.Sprintf("%.1f%%", s.Score))
	gauge(d, (w-gaugeWidth)/2, 92, s)
	badge(d, w/2, 106, s.Passed)

	stats := [][2]string{
		{"Correct answers", fmt.Sprintf("%d of %d", s.CorrectCount, s.TotalQuestions)},
		{"Questions attempted", fmt.Sprintf("%d", s.AttemptedCount)},
		{"Passing score", fmt.Sprintf("%.1f%%", s.PassingScore)},
		{"Time spent", duration(s.TimeSpentSeconds)},
		{"Completed", date(s.CompletedAt)},
	}
	d.SetY(124)
	for _, row := range stats {
		d.SetX(45)
		d.SetFont("Helvetica", "", 11)
		d.color(muted)
		d.CellFormat(60, 7, d.tr(row[0]), "", 0, "L", false, 0, "")
		d.SetFont("Helvetica", "B", 11)
		d.color(ink)
		d.CellFormat(60, 7, d.tr(row[1]), "", 1, "R", false, 0, "")
	}

	d.Ln(6)
	history(d, s.History)

	// Keep the verification block on one page.
	if d.GetY() > 240 {
		d.AddPage()
	}
	d.verification(d.GetY()+8, "Scorecard ID", s.SubmissionID,
		r.PublicURL+"/quiz/scorecard/"+s.SubmissionID+"/verify", r.now())
	return finish(d)
}

// gauge draws a track, fills it to the score and marks the pass threshold.
func gauge(d *doc, x, y float64, s ScorecardData) {
	const h = 6.0
	d.SetLineWidth(0.2)
	d.fill(track)
	d.draw(track)
	d.Rect(x, y, gaugeWidth, h, "F")

	score := clamp(s.Score)
	if score > 0 {
		bar := failBar
		if s.Passed {
			bar = passBar
		}
		d.fill(bar)
		d.Rect(x, y, gaugeWidth*score/100, h, "F")
	}

	mark := x + gaugeWidth*clamp(s.PassingScore)/100
	d.draw(navy)
	d.SetLineWidth(0.6)
	d.Line(mark, y-2, mark, y+h+2)
}

func badge(d *doc, cx, y float64, passed bool) {
	label, text, bg := "NOT PASSED", failInk, failFill
	if passed {
		label, text, bg = "PASSED", passInk, passFill
	}
	const w, h = 44.0, 9.0
	d.fill(bg)
	d.draw(text)
	d.SetLineWidth(0.4)
	d.SetXY(cx-w/2, y)
	d.SetFont("Helvetica", "B", 12)
	d.color(text)
	d.CellFormat(w, h, label, "1", 1, "C", true, 0, "")
}

func history(d *doc, attempts []Attempt) {
	if len(attempts) == 0 {
		return
	}
	cols := []float64{60, 40, 40}
	header := func() {
		d.SetX(35)
		d.SetFont("Helvetica", "B", 10)
		d.color(navy)
		d.fill(tableHead)
		d.draw(track)
		d.SetLineWidth(0.2)
		for i, title := range []string{"Date", "Score", "Status"} {
			d.CellFormat(cols[i], 7, title, "1", 0, "C", true, 0, "")
		}
		d.Ln(-1)
	}

	d.SetX(35)
	d.SetFont("Helvetica", "B", 12)
	d.color(ink)
	d.CellFormat(0, 8, "Recent attempts", "", 1, "L", false, 0, "")
	header()
	_, ph := d.GetPageSize()
	for _, a := range attempts {
		if d.GetY()+7 > ph-25 {
			d.AddPage()
			d.SetY(25)
			header()
		}
		status, c := "Not passed", failInk
		if a.Passed {
			status, c = "Passed", passInk
		}
		d.SetX(35)
		d.SetFont("Helvetica", "", 10)
		d.color(ink)
		d.CellFormat(cols[0], 7, date(a.CompletedAt), "1", 0, "C", false, 0, "")
		d.CellFormat(cols[1], 7, fmt.Sprintf("%.1f%%", a.Score), "1", 0, "C", false, 0, "")
		d.color(c)
		d.CellFormat(cols[2], 7, status, "1", 1, "C", false, 0, "")
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func duration(sec int) string {
	if sec <= 0 {
		return "-"
	}
	return (time.Duration(sec) * time.Second).String()
}
