package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/email"
	"github.com/nextplay-sports/platform-api/internal/entitlements"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/store"
)

// MembershipStore is the slice of the store the membership service uses.
type MembershipStore interface {
	GetCurrentMembership(ctx context.Context, userID string) (*models.Membership, error)
	UpsertActiveMembership(ctx context.Context, m *models.Membership) error
	UpdateMembershipFields(ctx context.Context, id uint, fields map[string]interface{}) error
	ListMembershipsExpiringWithin(ctx context.Context, window time.Duration) ([]*models.Membership, error)
	ExpireLapsedMemberships(ctx context.Context) (int64, error)
	RecordReminder(ctx context.Context, membershipID uint, bucket models.ReminderBucket) (bool, error)
}

// UserGetter resolves user rows for notification addressing.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier is satisfied by notify.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, userID string, typ models.NotificationType, title, message, link string) error
	NotifyEmail(to, toName string, tmpl email.Template, vars map[string]string)
}

// PaymentEvent is the normalized form of a provider subscription-lifecycle
// webhook. Provider payload shapes are decoded at the HTTP edge.
type PaymentEvent struct {
	Type      string     `json:"type"` // activated | renewed | cancelled | expired
	UserID    string     `json:"user_id"`
	Tier      models.Tier `json:"tier"`
	PeriodEnd *time.Time `json:"period_end"`
}

type MembershipService struct {
	store    MembershipStore
	users    UserGetter
	resolver *entitlements.Resolver
	notifier Notifier
	frontend string
}

func NewMembershipService(store MembershipStore, users UserGetter, resolver *entitlements.Resolver, notifier Notifier, frontendBaseURL string) *MembershipService {
	return &MembershipService{
		store:    store,
		users:    users,
		resolver: resolver,
		notifier: notifier,
		frontend: frontendBaseURL,
	}
}

// Status returns the renewal banner payload for a user. A free user (no live
// membership) gets the zero status: the banner never fires for them.
func (s *MembershipService) Status(ctx context.Context, userID string, now time.Time) (*models.Membership, entitlements.RenewalStatus, error) {
	m, err := s.store.GetCurrentMembership(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, entitlements.RenewalStatus{}, nil
		}
		return nil, entitlements.RenewalStatus{}, err
	}
	return m, entitlements.EvaluateStatus(m, now), nil
}

// ApplyPaymentEvent mutates the membership row for a subscription-lifecycle
// event. Membership history is preserved; rows are never hard-deleted.
func (s *MembershipService) ApplyPaymentEvent(ctx context.Context, ev PaymentEvent) error {
	defer s.resolver.InvalidateUser(ev.UserID)

	switch ev.Type {
	case "activated":
		if ev.Tier == "" {
			return fmt.Errorf("activated event missing tier")
		}
		return s.store.UpsertActiveMembership(ctx, &models.Membership{
			UserID:    ev.UserID,
			Tier:      ev.Tier,
			Status:    models.MembershipActive,
			StartDate: time.Now(),
			EndDate:   ev.PeriodEnd,
		})
	case "renewed":
		m, err := s.store.GetCurrentMembership(ctx, ev.UserID)
		if err != nil {
			if store.IsNotFound(err) {
				return apperr.NotFound("no live membership to renew")
			}
			return err
		}
		return s.store.UpdateMembershipFields(ctx, m.ID, map[string]interface{}{
			"status":   models.MembershipActive,
			"end_date": ev.PeriodEnd,
		})
	case "cancelled", "expired":
		m, err := s.store.GetCurrentMembership(ctx, ev.UserID)
		if err != nil {
			if store.IsNotFound(err) {
				// nothing live; webhook replays are fine
				return nil
			}
			return err
		}
		status := models.MembershipCancelled
		if ev.Type == "expired" {
			status = models.MembershipExpired
		}
		return s.store.UpdateMembershipFields(ctx, m.ID, map[string]interface{}{"status": status})
	default:
		return fmt.Errorf("unknown payment event type %q", ev.Type)
	}
}

// SendRenewalReminders is the scheduled reminder entry point. Safe to run
// repeatedly and overlapping: the (membership, bucket) marker row decides
// whether a reminder goes out, not the caller's schedule.
func (s *MembershipService) SendRenewalReminders(ctx context.Context, now time.Time) (int, error) {
	memberships, err := s.store.ListMembershipsExpiringWithin(ctx, 30*24*time.Hour)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range memberships {
		st := entitlements.EvaluateStatus(m, now)
		if m.EndDate == nil {
			continue
		}
		bucket := entitlements.ReminderBucketFor(st.DaysUntilRenewal)
		if bucket == "" {
			continue
		}
		created, err := s.store.RecordReminder(ctx, m.ID, bucket)
		if err != nil {
			log.Printf("membership: recording reminder for membership %d: %v", m.ID, err)
			continue
		}
		if !created {
			// already reminded at this bucket by an earlier run
			continue
		}

		link := s.frontend + "/membership"
		msg := fmt.Sprintf("Your %s membership renews in %d day(s).", m.Tier, st.DaysUntilRenewal)
		if err := s.notifier.Notify(ctx, m.UserID, models.NotificationRenewal, "Membership renewal", msg, link); err != nil {
			log.Printf("membership: in-app reminder for user %s: %v", m.UserID, err)
		}
		if u, err := s.users.GetUserByID(ctx, m.UserID); err == nil {
			s.notifier.NotifyEmail(u.Email, u.FirstName, email.TemplateMembershipRenewal, map[string]string{
				"tier": string(m.Tier),
				"days": fmt.Sprintf("%d", st.DaysUntilRenewal),
				"link": link,
			})
		} else {
			log.Printf("membership: looking up user %s for reminder email: %v", m.UserID, err)
		}
		sent++
	}
	return sent, nil
}

// ExpireLapsed is the batch job that transitions past-due memberships to
// expired. The lifecycle evaluator itself never does this.
func (s *MembershipService) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.store.ExpireLapsedMemberships(ctx)
}
