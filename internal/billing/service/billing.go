package service

import (
	"context"
	"time"

	"github.com/hostelhq/hostelhq-backend/internal/billing/repository"
	"github.com/hostelhq/hostelhq-backend/pkg/access"
	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/errors"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
	"github.com/hostelhq/hostelhq-backend/pkg/messaging"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// BillingService manages fees and payments
type BillingService struct {
	fees      *repository.FeeRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(fees *repository.FeeRepository, publisher EventPublisher, log *logger.Logger) *BillingService {
	return &BillingService{
		fees:      fees,
		publisher: publisher,
		logger:    log,
	}
}

// CreateFeeInput holds the fields for issuing a fee
type CreateFeeInput struct {
	StudentID string    `json:"student_id" validate:"required,uuid"`
	FeeType   string    `json:"fee_type,omitempty"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// CreateFee issues a fee to a student (Admin only)
func (s *BillingService) CreateFee(ctx context.Context, input CreateFeeInput) (*repository.Fee, error) {
	if !access.Allowed(actor.FromContext(ctx), "fees.create") {
		return nil, errors.Forbidden("insufficient permissions")
	}

	fee := &repository.Fee{
		StudentID: input.StudentID,
		FeeType:   input.FeeType,
		Amount:    input.Amount,
		DueDate:   input.DueDate,
	}

	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("fee_id", fee.ID).
		Str("student_id", fee.StudentID).
		Float64("amount", fee.Amount).
		Msg("fee created")

	if err := s.publisher.Publish(ctx, messaging.EventFeeCreated, messaging.FeeCreatedEvent{
		FeeID:     fee.ID,
		StudentID: fee.StudentID,
		FeeType:   fee.FeeType,
		Amount:    fee.Amount,
		DueDate:   fee.DueDate,
	}); err != nil {
		s.logger.Error().Err(err).Str("fee_id", fee.ID).Msg("failed to publish fee created event")
	}

	return fee, nil
}

// GetFee returns a fee. Students may only read their own.
func (s *BillingService) GetFee(ctx context.Context, id string) (*repository.Fee, error) {
	fee, err := s.fees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a := actor.FromContext(ctx)
	if !access.Allowed(a, "fees.read") {
		if !access.Allowed(a, "fees.read.own") || a.ID != fee.StudentID {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return fee, nil
}

// ListFees lists fees. Students see only their own.
func (s *BillingService) ListFees(ctx context.Context, params repository.FeeListParams) ([]*repository.Fee, int64, error) {
	a := actor.FromContext(ctx)
	if !access.Allowed(a, "fees.read") {
		if !access.Allowed(a, "fees.read.own") {
			return nil, 0, errors.Forbidden("insufficient permissions")
		}
		params.StudentID = &a.ID
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 50
	}

	return s.fees.List(ctx, params)
}

// PayFeeInput holds the payment request fields
type PayFeeInput struct {
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,oneof=Cash Card UPI 'Bank Transfer'"`
}

// ProcessPayment settles a fee. Paying an already-Paid fee rejects with
// ALREADY_PAID and the payment count stays at one.
func (s *BillingService) ProcessPayment(ctx context.Context, feeID string, input PayFeeInput) (*repository.Fee, *repository.Payment, error) {
	if !access.Allowed(actor.FromContext(ctx), "fees.pay") {
		return nil, nil, errors.Forbidden("insufficient permissions")
	}

	method := input.PaymentMethod
	if method == "" {
		method = "Cash"
	}

	fee, payment, err := s.fees.ProcessPayment(ctx, feeID, method)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("fee_id", fee.ID).
		Str("payment_id", payment.ID).
		Float64("amount", payment.Amount).
		Msg("fee payment processed")

	if err := s.publisher.Publish(ctx, messaging.EventFeePaid, messaging.FeePaidEvent{
		FeeID:         fee.ID,
		PaymentID:     payment.ID,
		StudentID:     fee.StudentID,
		Amount:        payment.Amount,
		PaymentMethod: payment.PaymentMethod,
		PaidAt:        payment.PaidOn,
	}); err != nil {
		s.logger.Error().Err(err).Str("fee_id", fee.ID).Msg("failed to publish fee paid event")
	}

	return fee, payment, nil
}

// GetPayment returns the payment for a fee. Students may only read their own.
func (s *BillingService) GetPayment(ctx context.Context, feeID string) (*repository.Payment, error) {
	payment, err := s.fees.GetPaymentByFee(ctx, feeID)
	if err != nil {
		return nil, err
	}

	a := actor.FromContext(ctx)
	if !access.Allowed(a, "fees.read") {
		if !access.Allowed(a, "fees.read.own") || a.ID != payment.StudentID {
			return nil, errors.Forbidden("insufficient permissions")
		}
	}

	return payment, nil
}

// MarkOverdueFees flips Due fees past their due date to Overdue and publishes
// an event per fee. Called by the overdue scanner.
func (s *BillingService) MarkOverdueFees(ctx context.Context) (int, error) {
	fees, err := s.fees.MarkOverdue(ctx)
	if err != nil {
		return 0, err
	}

	for _, fee := range fees {
		if err := s.publisher.Publish(ctx, messaging.EventFeeOverdue, messaging.FeeOverdueEvent{
			FeeID:     fee.ID,
			StudentID: fee.StudentID,
			Amount:    fee.Amount,
			DueDate:   fee.DueDate,
		}); err != nil {
			s.logger.Error().Err(err).Str("fee_id", fee.ID).Msg("failed to publish fee overdue event")
		}
	}

	return len(fees), nil
}
