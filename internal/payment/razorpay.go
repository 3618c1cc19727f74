// Package payment confirms Razorpay checkouts and enrolls the buyer.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
)

// Confirmation is the checkout callback payload.
type Confirmation struct {
	CourseID  string `json:"courseId" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal"`
}

type Service struct {
	secret  []byte
	catalog catalog.Store
	valid   *validator.Validate
	now     func() time.Time
}

func NewService(keySecret string, cat catalog.Store) *Service {
	return &Service{secret: []byte(keySecret), catalog: cat, valid: validator.New(), now: time.Now}
}

// Sign computes the checkout signature: hex HMAC-SHA256 of "order|payment".
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Confirm checks the signature and records the enrollment. Repeating a
// confirmed checkout is harmless.
func (s *Service) Confirm(ctx context.Context, userID string, c Confirmation) (catalog.Enrollment, error) {
	if err := s.valid.Struct(c); err != nil {
		return catalog.Enrollment{}, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	if len(s.secret) == 0 {
		return catalog.Enrollment{}, fmt.Errorf("%w: payments are not configured", apperr.ErrPreconditionFailed)
	}
	if _, err := s.catalog.GetCourse(ctx, c.CourseID); err != nil {
		return catalog.Enrollment{}, err
	}

	want, _ := hex.DecodeString(Sign(string(s.secret), c.OrderID, c.PaymentID))
	got, err := hex.DecodeString(c.Signature)
	if err != nil || !hmac.Equal(want, got) {
		return catalog.Enrollment{}, fmt.Errorf("%w: payment signature mismatch", apperr.ErrForbidden)
	}

	e := catalog.Enrollment{
		UserID:    userID,
		CourseID:  c.CourseID,
		PaymentID: c.PaymentID,
		OrderID:   c.OrderID,
		CreatedAt: s.now().Unix(),
	}
	if err := s.catalog.Enroll(ctx, e); err != nil {
		return catalog.Enrollment{}, err
	}
	return e, nil
}
