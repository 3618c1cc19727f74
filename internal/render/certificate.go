package render

import (
	"fmt"
	"time"
)

type CertificateData struct {
	CertificateID  string
	StudentName    string
	CourseTitle    string
	InstructorName string
	CompletedAt    time.Time
	IssuedAt       time.Time
}

// Certificate renders a landscape A4 completion certificate.
func (r *Renderer) Certificate(c CertificateData) ([]byte, error) {
	if err := required(map[string]string{
		"certificate id": c.CertificateID,
		"student name":   c.StudentName,
		"course title":   c.CourseTitle,
	}); err != nil {
		return nil, err
	}

	d := r.newDoc("L", "Certificate of Completion - "+c.CourseTitle)
	d.SetAutoPageBreak(false, 0)
	d.AddPage()
	d.frame()

	w, _ := d.GetPageSize()
	d.centered(32, "B", 34, navy, "CERTIFICATE")
	d.centered(50, "", 14, gold, "OF COMPLETION")

	d.centered(68, "", 13, muted, "This is to certify that")
	d.centered(80, "B", 28, ink, c.StudentName)
	d.draw(gold)
	d.SetLineWidth(0.5)
	d.Line(w/2-70, 97, w/2+70, 97)

	d.centered(103, "", 13, muted, "has successfully completed the course")
	d.SetFont("Helvetica", "B", 20)
	d.color(navy)
	d.SetXY(40, 113)
	d.MultiCell(w-80, 9, d.tr(c.CourseTitle), "", "C", false)

	y := d.GetY() + 4
	if c.InstructorName != "" {
		d.centered(y, "I", 11, muted, "Instructor: "+c.InstructorName)
		y += 7
	}
	d.centered(y, "", 11, ink, fmt.Sprintf("Completed on %s    Issued on %s", date(c.CompletedAt), date(c.IssuedAt)))

	d.verification(163, "Certificate ID", c.CertificateID,
		r.PublicURL+"/certificates/"+c.CertificateID+"/verify", r.now())
	return finish(d)
}
