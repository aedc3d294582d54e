// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"fmt"
	"strings"

	"assistance-gateway/internal/domain/catalog"
	"assistance-gateway/internal/domain/subscription"

	"go.uber.org/zap"
)

// Lister fetches the caller's subscriptions.
type Lister interface {
	GetMySubscriptions(ctx context.Context) ([]subscription.Subscription, error)
}

type SubscriptionService struct {
	lister Lister
	logger *zap.Logger
}

func NewSubscriptionService(lister Lister, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		lister: lister,
		logger: logger,
	}
}

// Matches reports whether sub is an ACTIVE subscription whose plan name or
// category contains one of the plan type's keywords.
func Matches(sub subscription.Subscription, plan catalog.PlanType) bool {
	if !sub.IsActive() {
		return false
	}
	text := sub.SearchText()
	for _, kw := range subscription.PlanKeywords[plan] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ActivePlans returns the plan types the caller holds an active subscription for.
func (s *SubscriptionService) ActivePlans(ctx context.Context) (map[catalog.PlanType]bool, error) {
	subs, err := s.lister.GetMySubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	held := make(map[catalog.PlanType]bool)
	for plan := range subscription.PlanKeywords {
		for _, sub := range subs {
			if Matches(sub, plan) {
				held[plan] = true
				break
			}
		}
	}

	s.logger.Debug("resolved active plans",
		zap.Int("subscriptions", len(subs)),
		zap.Int("plans", len(held)),
	)
	return held, nil
}
