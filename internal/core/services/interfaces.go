package services

import (
	"cif-onboarding/internal/adapters/persistence/models"
)

// Note: NotificationService is the LINE Notify implementation of Notifier

// Notifier receives application events after their transaction committed.
// Implementations must not block the caller.
type Notifier interface {
	NotifyNewRegistration(record *models.OnboardingRecord)
	NotifyApplicationFinished(record *models.OnboardingRecord)
	NotifyApplicationRejected(record *models.OnboardingRecord)
	NotifyRevisionRequested(record *models.OnboardingRecord, stage string)
}

var _ Notifier = (*NotificationService)(nil)

type noopNotifier struct{}

func (noopNotifier) NotifyNewRegistration(*models.OnboardingRecord) {}
func (noopNotifier) NotifyApplicationFinished(*models.OnboardingRecord) {}
func (noopNotifier) NotifyApplicationRejected(*models.OnboardingRecord) {}
func (noopNotifier) NotifyRevisionRequested(*models.OnboardingRecord, string) {}

// notifierOrNoop lets callers pass nil to disable notifications
func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
