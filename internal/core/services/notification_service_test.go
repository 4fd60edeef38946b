package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/core/domain"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(event string, _ *models.OnboardingRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) NotifyNewRegistration(r *models.OnboardingRecord) {
	n.add("registered", r)
}
func (n *recordingNotifier) NotifyApplicationFinished(r *models.OnboardingRecord) {
	n.add("finished", r)
}
func (n *recordingNotifier) NotifyApplicationRejected(r *models.OnboardingRecord) {
	n.add("rejected", r)
}
func (n *recordingNotifier) NotifyRevisionRequested(r *models.OnboardingRecord, _ string) {
	n.add("revised", r)
}

func (n *recordingNotifier) snapshot() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func TestNotificationsFollowCommittedWrites(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	notifier := &recordingNotifier{}
	env.onboarding.notifier = notifier
	admin := NewAdminService(env.pool, env.repo, notifier, 5*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "notify@example.com")

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))
	mustSucceed(t, env.onboarding.SaveEmploymentData(ctx, id, employmentInput()))
	mustSucceed(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()))
	mustReject(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()), domain.ErrStageAlreadyPassed)

	mustSucceed(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 4}))
	mustSucceed(t, admin.Reject(ctx, id))
	mustReject(t, admin.Reject(ctx, id), domain.ErrApplicationRejected)

	got := strings.Join(notifier.snapshot(), ",")
	if got != "finished,revised,rejected" {
		t.Fatalf("events = %s", got)
	}
}

func TestLineNotifySendsBearerForm(t *testing.T) {
	var (
		gotAuth    string
		gotMessage string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotMessage = r.PostForm.Get("message")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewNotificationService("line-token")
	svc.endpoint = server.URL

	if err := svc.sendLineNotify(context.Background(), "hello officers"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAuth != "Bearer line-token" || gotMessage != "hello officers" {
		t.Fatalf("auth=%q message=%q", gotAuth, gotMessage)
	}
}

func TestLineNotifyReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewNotificationService("bad-token")
	svc.endpoint = server.URL

	if err := svc.sendLineNotify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestNotificationServiceDisabled(t *testing.T) {
	var nilService *NotificationService
	if nilService.IsEnabled() || NewNotificationService("").IsEnabled() {
		t.Fatal("service without token must be disabled")
	}
	// no token: nothing is sent and nothing panics
	nilService.NotifyApplicationFinished(&models.OnboardingRecord{AutoNID: 1})
}
