package services

import (
	"context"
	"testing"
	"time"

	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/pagination"
)

func TestAdminRevisionMovesStageBackOnly(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	admin := NewAdminService(env.pool, env.repo, nil, 5*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "revise@example.com")

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiaryOther))))
	mustSucceed(t, env.onboarding.SaveBeneficiaryOwner(ctx, id, beneficiaryInput()))
	mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))

	mustReject(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 3}), domain.ErrInvalidRevisionStage)
	mustReject(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 4}), domain.ErrInvalidRevisionStage)

	action := mustSucceed(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 2}))
	if action.Stage != domain.StageBankData || !action.IsRevised {
		t.Fatalf("action = %+v", action)
	}

	mustReject(t, env.onboarding.SaveEmploymentData(ctx, id, employmentInput()), domain.ErrStageTooEarly)
	mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))

	action = mustSucceed(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 1}))
	if action.Stage != domain.StagePersonalData {
		t.Fatalf("action = %+v", action)
	}
	if request := env.request(t, id); request.BeneficiaryOwner != nil {
		t.Fatalf("revision to stage 1 kept beneficiary answer %d", *request.BeneficiaryOwner)
	}

	out := mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	if out.Stage != domain.StageBankData {
		t.Fatalf("after redo: stage=%v", out.Stage)
	}
	record := env.record(t, id)
	if !record.IsRevised || record.RevisedAt == nil {
		t.Fatalf("revision not recorded: %+v", record)
	}
	env.assertNoLeakedConnections(t)
}

func TestAdminRevisionReopensFinishedApplication(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	admin := NewAdminService(env.pool, env.repo, nil, 5*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "finished@example.com")

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))
	mustSucceed(t, env.onboarding.SaveEmploymentData(ctx, id, employmentInput()))
	mustSucceed(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()))

	action := mustSucceed(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 4}))
	if action.IsFinished || action.Stage != domain.StageSupportingData {
		t.Fatalf("action = %+v", action)
	}
	record := env.record(t, id)
	if record.IsFinished || record.FinishedAt != nil {
		t.Fatalf("finished flags not cleared: %v %v", record.IsFinished, record.FinishedAt)
	}

	out := mustSucceed(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()))
	if !out.Finished {
		t.Fatalf("resubmission did not finish: %+v", out)
	}
}

func TestAdminReject(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	admin := NewAdminService(env.pool, env.repo, nil, 5*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "reject@example.com")

	action := mustSucceed(t, admin.Reject(ctx, id))
	if !action.IsRejected {
		t.Fatalf("action = %+v", action)
	}

	mustReject(t, admin.Reject(ctx, id), domain.ErrApplicationRejected)
	mustReject(t, admin.RequestRevision(ctx, id, &RevisionInput{Stage: 1}), domain.ErrApplicationRejected)
	mustReject(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))), domain.ErrApplicationRejected)

	if res := admin.Reject(ctx, 4242); !res.IsNotFound() {
		t.Fatalf("reject unknown record: %+v", res)
	}

	detail := mustSucceed(t, admin.Get(ctx, id))
	if !detail.Progress.IsRejected || detail.Record.RejectedAt == nil {
		t.Fatalf("detail = %+v", detail.Progress)
	}
	env.assertNoLeakedConnections(t)
}

func TestAdminListAndDashboard(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	admin := NewAdminService(env.pool, env.repo, nil, 5*time.Second)
	dashboard := NewDashboardService(env.repo)
	ctx := context.Background()

	first := env.seedRecord(t, "first@example.com")
	second := env.seedRecord(t, "second@example.com")
	third := env.seedRecord(t, "third@example.com")

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, second, personalInput(int(domain.BeneficiarySelf))))
	mustSucceed(t, admin.Reject(ctx, third))

	records, total, err := admin.List(ctx, repositories.OnboardingFilter{}, pagination.New(1, 2))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(records) != 2 || records[0].AutoNID != third {
		t.Fatalf("list = total %d, %d rows, first %d", total, len(records), records[0].AutoNID)
	}
	if records[0].IDCardFile != "" {
		t.Fatal("listing should not load image columns")
	}

	records, total, err = admin.List(ctx, repositories.OnboardingFilter{Stage: int(domain.StageBankData)}, pagination.New(1, 20))
	if err != nil {
		t.Fatalf("list by stage: %v", err)
	}
	if total != 1 || records[0].AutoNID != second {
		t.Fatalf("stage filter = total %d", total)
	}

	rejected := true
	_, total, err = admin.List(ctx, repositories.OnboardingFilter{Rejected: &rejected}, pagination.New(1, 20))
	if err != nil || total != 1 {
		t.Fatalf("rejected filter = %d, %v", total, err)
	}

	records, _, err = admin.List(ctx, repositories.OnboardingFilter{Search: "first@"}, pagination.New(1, 20))
	if err != nil || len(records) != 1 || records[0].AutoNID != first {
		t.Fatalf("search = %d rows, %v", len(records), err)
	}

	data, err := dashboard.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if data.TotalApplications != 3 || data.Rejected != 1 || data.Finished != 0 || data.RegisteredToday != 3 {
		t.Fatalf("dashboard = %+v", data)
	}
	if len(data.ByStage) != 5 || data.ByStage[0].Total != 2 || data.ByStage[1].Total != 1 {
		t.Fatalf("by stage = %+v", data.ByStage)
	}
}
