package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/pkg/logger"
)

const lineNotifyURL = "https://notify-api.line.me/api/notify"

// NotificationService sends officer notifications through LINE Notify.
// A nil service or an empty token disables every notification.
type NotificationService struct {
	lineNotifyToken string
	endpoint        string
	enabled         bool
	client          *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(token string) *NotificationService {
	return &NotificationService{
		lineNotifyToken: token,
		endpoint:        lineNotifyURL,
		enabled:         token != "",
		client:          &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s != nil && s.enabled
}

// sendLineNotify sends a message via LINE Notify
func (s *NotificationService) sendLineNotify(ctx context.Context, message string) error {
	data := url.Values{}
	data.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.lineNotifyToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("line notify returned %s", resp.Status)
	}
	return nil
}

// dispatch sends in the background; delivery never affects the caller's outcome
func (s *NotificationService) dispatch(message string) {
	if !s.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.sendLineNotify(ctx, message); err != nil {
			logger.Warn(ctx, "line notify failed", "error", err)
		}
	}()
}

// NotifyNewRegistration tells officers a new applicant registered
func (s *NotificationService) NotifyNewRegistration(record *models.OnboardingRecord) {
	s.dispatch(fmt.Sprintf(`
🆕 New onboarding registration

📋 Record: #%d
👤 Name: %s
📧 Email: %s
📱 Phone: %s`,
		record.AutoNID,
		record.FullName,
		record.Email,
		record.MobilePhone,
	))
}

// NotifyApplicationFinished tells officers an application is ready for review
func (s *NotificationService) NotifyApplicationFinished(record *models.OnboardingRecord) {
	s.dispatch(fmt.Sprintf(`
✅ Onboarding application submitted

📋 Record: #%d
👤 Name: %s
📧 Email: %s

Please review the application`,
		record.AutoNID,
		record.FullName,
		record.Email,
	))
}

// NotifyApplicationRejected records a rejection in the officer channel
func (s *NotificationService) NotifyApplicationRejected(record *models.OnboardingRecord) {
	s.dispatch(fmt.Sprintf(`
❌ Onboarding application rejected

📋 Record: #%d
👤 Name: %s`,
		record.AutoNID,
		record.FullName,
	))
}

// NotifyRevisionRequested records a revision request in the officer channel
func (s *NotificationService) NotifyRevisionRequested(record *models.OnboardingRecord, stage string) {
	s.dispatch(fmt.Sprintf(`
✏️ Revision requested

📋 Record: #%d
👤 Name: %s
↩️ Back to: %s`,
		record.AutoNID,
		record.FullName,
		stage,
	))
}
