package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/notify"
	"shop-api/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrSellerApplicationMissing = errors.New("user has no pending seller application")
)

// SellerApplication is the tax and payout information a user submits to become a seller
type SellerApplication struct {
	GSTNumber   string
	BankDetails domain.BankDetails
}

// SellerService runs the seller onboarding workflow: users apply, admins approve or reject
type SellerService interface {
	Apply(ctx context.Context, userID string, application SellerApplication) (*domain.User, error)
	// Approve grants the admin role and notifies the applicant
	Approve(ctx context.Context, userID string) (*domain.User, error)
	// Reject discards the application and notifies the applicant
	Reject(ctx context.Context, userID string) (*domain.User, error)
}

type sellerService struct {
	userRepo repository.UserRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewSellerService(userRepo repository.UserRepository, notifier notify.Notifier, logger *zap.Logger) SellerService {
	return &sellerService{
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *sellerService) Apply(ctx context.Context, userID string, application SellerApplication) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	bank := application.BankDetails
	user.GSTNumber = application.GSTNumber
	user.BankDetails = &bank
	user.PendingAdmin = true
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save seller application: %w", err)
	}

	return user, nil
}

func (s *sellerService) Approve(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.pendingApplicant(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = domain.RoleAdmin
	user.PendingAdmin = false
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to approve seller: %w", err)
	}

	s.notify(ctx, user, notify.Email{
		To:      user.Email,
		Subject: "Your Seller Application is Approved!",
		Body: fmt.Sprintf("Congratulations, %s! Your seller application has been approved. "+
			"You can now manage products as an admin on Shoppy.", user.Name),
	})

	return user, nil
}

func (s *sellerService) Reject(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.pendingApplicant(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.PendingAdmin = false
	user.GSTNumber = ""
	user.BankDetails = nil
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to reject seller: %w", err)
	}

	s.notify(ctx, user, notify.Email{
		To:      user.Email,
		Subject: "Your Seller Application was Rejected",
		Body: fmt.Sprintf("Hello, %s. Unfortunately, your seller application was rejected. "+
			"Please contact support for more information.", user.Name),
	})

	return user, nil
}

func (s *sellerService) pendingApplicant(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.PendingAdmin {
		return nil, ErrSellerApplicationMissing
	}
	return user, nil
}

// notify sends the decision email. Delivery failures are logged and never
// undo the decision, which is already persisted.
func (s *sellerService) notify(ctx context.Context, user *domain.User, email notify.Email) {
	if user.Email == "" {
		return
	}
	if err := s.notifier.Notify(ctx, email); err != nil {
		s.logger.Error("Failed to send seller decision email",
			zap.String("user_id", user.ID),
			zap.String("subject", email.Subject),
			zap.Error(err),
		)
	}
}
