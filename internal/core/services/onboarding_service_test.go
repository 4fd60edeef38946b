package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/metrics"
	"cif-onboarding/internal/pkg/txguard"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db         *gorm.DB
	pool       *txguard.Pool
	metrics    *metrics.Metrics
	repo       repositories.OnboardingRepository
	onboarding *OnboardingService
}

func newTestEnv(t *testing.T, maxOpen int, acquire time.Duration) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "onboarding.db")
	db, err := gorm.Open(sqlite.Open(config.BuildSQLiteDSN(path)), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	pool, err := txguard.NewPool(db, txguard.Options{AcquireTimeout: acquire, Metrics: m})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	repo := repositories.NewOnboardingRepository(db)
	svc := NewOnboardingService(pool, repo, OnboardingOptions{TxTimeout: 10 * time.Second, Metrics: m})
	svc.now = func() time.Time { return fixedNow }

	return &testEnv{db: db, pool: pool, metrics: m, repo: repo, onboarding: svc}
}

func (e *testEnv) seedRecord(t *testing.T, email string) uint {
	t.Helper()
	record := &models.OnboardingRecord{
		Stage:       int(domain.StagePersonalData),
		Email:       email,
		MobilePhone: "081234567890",
		FullName:    "Budi",
	}
	if err := e.repo.Create(context.Background(), record, &models.OnboardingRequest{}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record.AutoNID
}

func (e *testEnv) record(t *testing.T, id uint) *models.OnboardingRecord {
	t.Helper()
	record, err := e.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get record %d: %v", id, err)
	}
	return record
}

func (e *testEnv) request(t *testing.T, id uint) *models.OnboardingRequest {
	t.Helper()
	request, err := e.repo.GetRequest(context.Background(), id)
	if err != nil {
		t.Fatalf("get request %d: %v", id, err)
	}
	return request
}

func (e *testEnv) assertNoLeakedConnections(t *testing.T) {
	t.Helper()
	if inUse := e.pool.Stats().InUse; inUse != 0 {
		t.Fatalf("connections in use = %d, want 0", inUse)
	}
}

func mustSucceed[T any](t *testing.T, res Result[T]) *T {
	t.Helper()
	if !res.Succeeded {
		t.Fatalf("expected success, got message=%q reason=%v err=%v", res.Message, res.Reason, res.Err)
	}
	return res.Data
}

func mustReject[T any](t *testing.T, res Result[T], reason error) {
	t.Helper()
	if res.Succeeded || res.Err != nil {
		t.Fatalf("expected rejection %v, got succeeded=%v err=%v", reason, res.Succeeded, res.Err)
	}
	if !errors.Is(res.Reason, reason) {
		t.Fatalf("reason = %v, want %v", res.Reason, reason)
	}
}

func personalInput(answer int) *PersonalDataInput {
	return &PersonalDataInput{
		MobilePhone:       "081234567890",
		FullName:          "Budi Santoso",
		MotherName:        "Siti Aminah",
		IDCardNumber:      "3174012345678901",
		Nationality:       1,
		Sex:               1,
		ResidenceStatus:   1,
		BeneficiaryOwner:  answer,
		BirthPlace:        "Jakarta",
		BirthDate:         "1990-05-17",
		BirthCountry:      "Indonesia",
		Religion:          1,
		MaritalStatus:     1,
		Education:         3,
		CopyID:            true,
		IDCardExpireDate:  "lifetime",
		IDCardCountry:     "Indonesia",
		IDCardFile:        "data:image/png;base64,iVBORw0KGgo=",
		SelfieFile:        "data:image/png;base64,iVBORw0KGgo=",
		SignatureFile:     "data:image/png;base64,iVBORw0KGgo=",
		IDCardCity:        3171,
		IDCardDistrict:    "Menteng",
		IDCardSubdistrict: "Gondangdia",
		IDCardRT:          "001",
		IDCardRW:          "002",
		IDCardAddress:     "Jl. Merdeka 1",
		IDCardZipcode:     "10350",
	}
}

func beneficiaryInput() *BeneficiaryOwnerInput {
	return &BeneficiaryOwnerInput{
		Name:         "Andi Wijaya",
		IDCardNumber: "3174019876543210",
		Relationship: "Parent",
		Phone:        "081355554444",
		Address:      "Jl. Sudirman 5",
		Occupation:   2,
		IncomeSource: 1,
	}
}

func bankInput() *BankDataInput {
	return &BankDataInput{
		QuestionRDN:       1,
		BankName:          "BCA",
		BankBranch:        "Thamrin",
		BankAccountHolder: "BUDI SANTOSO",
		BankAccountNumber: "1234567890",
	}
}

func employmentInput() *EmploymentDataInput {
	return &EmploymentDataInput{
		Occupation:          4,
		CompanyName:         "PT Maju",
		JobTitle:            "Engineer",
		IncomeSource:        1,
		MonthlyIncome:       decimal.NewFromInt(15000000),
		InvestmentObjective: 2,
	}
}

func supportingInput() *SupportingDataInput {
	return &SupportingDataInput{
		Question1:             true,
		Question1Text:         "Stocks",
		EmergencyName:         "Rina Santoso",
		EmergencyRelationship: "Sibling",
		EmergencyPhone:        "081298765432",
		EmergencyAddress:      "Jl. Thamrin 9",
		AgreeTerms:            true,
	}
}

func TestOnboardingCompletesAllStepsInOrder(t *testing.T) {
	env := newTestEnv(t, 4, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "budi@example.com")

	out := mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	if out.Stage != domain.StageBankData || out.NextStep != domain.StepBankData {
		t.Fatalf("after personal data: stage=%v next=%q", out.Stage, out.NextStep)
	}

	out = mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))
	if out.Stage != domain.StageEmploymentData {
		t.Fatalf("after bank data: stage=%v", out.Stage)
	}

	out = mustSucceed(t, env.onboarding.SaveEmploymentData(ctx, id, employmentInput()))
	if out.Stage != domain.StageSupportingData {
		t.Fatalf("after employment data: stage=%v", out.Stage)
	}

	out = mustSucceed(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()))
	if out.Stage != domain.StageFinished || !out.Finished || out.NextStep != "" {
		t.Fatalf("after supporting data: %+v", out)
	}

	record := env.record(t, id)
	if record.Stage != int(domain.StageFinished) || !record.IsFinished || record.FinishedAt == nil {
		t.Fatalf("record not finished: stage=%d finished=%v at=%v", record.Stage, record.IsFinished, record.FinishedAt)
	}
	if record.FullName != "Budi Santoso" {
		t.Fatalf("full name = %q", record.FullName)
	}
	if record.DomicileAddress != "Jl. Merdeka 1" || record.DomicileZipcode != "10350" {
		t.Fatalf("domicile not copied from id card: %q %q", record.DomicileAddress, record.DomicileZipcode)
	}
	if record.BankAccountNumber != "1234567890" {
		t.Fatalf("bank account = %q", record.BankAccountNumber)
	}
	if !record.MonthlyIncome.Equal(decimal.NewFromInt(15000000)) {
		t.Fatalf("monthly income = %s", record.MonthlyIncome)
	}
	if !record.Question1 || record.Question1Text != "Stocks" || !record.AgreeTerms {
		t.Fatalf("questionnaire not stored: %+v", record)
	}

	request := env.request(t, id)
	if request.BeneficiaryOwner == nil || *request.BeneficiaryOwner != int(domain.BeneficiarySelf) {
		t.Fatalf("beneficiary answer = %v", request.BeneficiaryOwner)
	}
	if request.EmergencyPhone != "081298765432" {
		t.Fatalf("emergency phone = %q", request.EmergencyPhone)
	}

	view := mustSucceed(t, env.onboarding.GetProgress(ctx, id))
	if !view.IsFinished || view.NextStep != "" || view.StageName != "finished" {
		t.Fatalf("progress view = %+v", view)
	}

	if got := testutil.ToFloat64(env.metrics.TxCommitted); got != 4 {
		t.Fatalf("committed = %v, want 4", got)
	}
	if got := testutil.ToFloat64(env.metrics.StepOutcomes.WithLabelValues(string(domain.StepSupportingData), "succeeded")); got != 1 {
		t.Fatalf("supporting outcome = %v, want 1", got)
	}
	env.assertNoLeakedConnections(t)
}

func TestOnboardingBeneficiaryBranch(t *testing.T) {
	env := newTestEnv(t, 4, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "andi@example.com")

	out := mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiaryOther))))
	if out.Stage != domain.StagePersonalData || out.NextStep != domain.StepBeneficiaryOwner {
		t.Fatalf("after personal data: stage=%v next=%q", out.Stage, out.NextStep)
	}

	mustReject(t, env.onboarding.SaveBankData(ctx, id, bankInput()), domain.ErrStageTooEarly)
	mustReject(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))), domain.ErrStageAlreadyPassed)

	self := beneficiaryInput()
	self.IDCardNumber = "3174012345678901"
	mustReject(t, env.onboarding.SaveBeneficiaryOwner(ctx, id, self), domain.ErrBeneficiaryIsApplicant)

	out = mustSucceed(t, env.onboarding.SaveBeneficiaryOwner(ctx, id, beneficiaryInput()))
	if out.Stage != domain.StageBankData {
		t.Fatalf("after beneficiary: stage=%v", out.Stage)
	}

	request := env.request(t, id)
	if request.BeneficiaryName != "Andi Wijaya" || *request.BeneficiaryOwner != int(domain.BeneficiaryOther) {
		t.Fatalf("beneficiary not stored: %+v", request)
	}
	if env.record(t, id).BankName != "" {
		t.Fatal("refused bank data step wrote columns")
	}

	mustSucceed(t, env.onboarding.SaveBankData(ctx, id, bankInput()))
	mustReject(t, env.onboarding.SaveBeneficiaryOwner(ctx, id, beneficiaryInput()), domain.ErrStageAlreadyPassed)
	env.assertNoLeakedConnections(t)
}

func TestOnboardingRefusesOutOfOrderSteps(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "early@example.com")

	res := env.onboarding.SaveEmploymentData(ctx, id, employmentInput())
	mustReject(t, res, domain.ErrStageTooEarly)
	if res.Data == nil || res.Data.NextStep != domain.StepPersonalData {
		t.Fatalf("refusal should report the current next step, got %+v", res.Data)
	}

	mustReject(t, env.onboarding.SaveSupportingData(ctx, id, supportingInput()), domain.ErrStageTooEarly)
	mustReject(t, env.onboarding.SaveBeneficiaryOwner(ctx, id, beneficiaryInput()), domain.ErrStageTooEarly)

	record := env.record(t, id)
	if record.Stage != int(domain.StagePersonalData) || record.Occupation != 0 || record.AgreeTerms {
		t.Fatalf("refused steps wrote columns: %+v", record)
	}
	if got := testutil.ToFloat64(env.metrics.TxRolledBack); got != 3 {
		t.Fatalf("rolled back = %v, want 3", got)
	}
	if got := testutil.ToFloat64(env.metrics.TxCommitted); got != 0 {
		t.Fatalf("committed = %v, want 0", got)
	}
	env.assertNoLeakedConnections(t)
}

func TestOnboardingConcurrentSubmissionsApplyOnce(t *testing.T) {
	env := newTestEnv(t, 4, 5*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "race@example.com")

	const workers = 8
	results := make([]Result[StepOutcome], workers)
	names := make([]string, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		names[i] = fmt.Sprintf("Budi Santoso %c", 'A'+i)
		in := personalInput(int(domain.BeneficiarySelf))
		in.FullName = names[i]

		wg.Add(1)
		go func(i int, in *PersonalDataInput) {
			defer wg.Done()
			<-start
			results[i] = env.onboarding.SavePersonalData(ctx, id, in)
		}(i, in)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, res := range results {
		switch {
		case res.Succeeded:
			if winner != -1 {
				t.Fatalf("workers %d and %d both applied the step", winner, i)
			}
			winner = i
		case res.Err != nil:
			t.Fatalf("worker %d failed: %v", i, res.Err)
		case !errors.Is(res.Reason, domain.ErrStageAlreadyPassed):
			t.Fatalf("worker %d reason = %v, want already passed", i, res.Reason)
		}
	}
	if winner == -1 {
		t.Fatal("no worker applied the step")
	}

	record := env.record(t, id)
	if record.Stage != int(domain.StageBankData) {
		t.Fatalf("stage = %d, want %d", record.Stage, domain.StageBankData)
	}
	if record.FullName != names[winner] {
		t.Fatalf("full name = %q, want winner's %q", record.FullName, names[winner])
	}
	if got := testutil.ToFloat64(env.metrics.StepOutcomes.WithLabelValues(string(domain.StepPersonalData), "noop")); got != workers-1 {
		t.Fatalf("noop outcomes = %v, want %d", got, workers-1)
	}
	env.assertNoLeakedConnections(t)
}

func TestOnboardingFailedStatementLeavesNoPartialUpdate(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "partial@example.com")

	err := env.db.Exec(`CREATE TRIGGER deny_request_update BEFORE UPDATE ON onboarding_requests
		BEGIN SELECT RAISE(ABORT, 'request row is read-only'); END`).Error
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	res := env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf)))
	if res.Succeeded || res.Err == nil {
		t.Fatalf("expected infrastructure failure, got %+v", res)
	}
	if res.Message != internalErrorMessage {
		t.Fatalf("message = %q, want generic", res.Message)
	}
	if !errors.Is(res.Err, domain.ErrPersistence) {
		t.Fatalf("err = %v, want persistence error", res.Err)
	}

	record := env.record(t, id)
	if record.Stage != int(domain.StagePersonalData) || record.FullName != "Budi" || record.IDCardNumber != "" {
		t.Fatalf("record partially updated: stage=%d name=%q", record.Stage, record.FullName)
	}

	if err := env.db.Exec(`DROP TRIGGER deny_request_update`).Error; err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	env.assertNoLeakedConnections(t)
}

func TestOnboardingBusinessRuleRollsBack(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "rules@example.com")

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))

	other := bankInput()
	other.BankAccountHolder = "Someone Else"
	mustReject(t, env.onboarding.SaveBankData(ctx, id, other), domain.ErrAccountHolderMismatch)

	record := env.record(t, id)
	if record.Stage != int(domain.StageBankData) || record.BankName != "" {
		t.Fatalf("rejected step wrote columns: stage=%d bank=%q", record.Stage, record.BankName)
	}
	env.assertNoLeakedConnections(t)
}

func TestOnboardingRejectedApplicationAcceptsNoSteps(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	ctx := context.Background()
	id := env.seedRecord(t, "rejected@example.com")

	err := env.db.Model(&models.OnboardingRecord{}).Where("auto_nid = ?", id).Update("is_rejected", true).Error
	if err != nil {
		t.Fatalf("reject record: %v", err)
	}

	mustReject(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))), domain.ErrApplicationRejected)

	view := mustSucceed(t, env.onboarding.GetProgress(ctx, id))
	if !view.IsRejected || view.NextStep != "" {
		t.Fatalf("progress view = %+v", view)
	}
}

func TestOnboardingUnknownRecord(t *testing.T) {
	env := newTestEnv(t, 2, 2*time.Second)
	ctx := context.Background()

	res := env.onboarding.SaveBankData(ctx, 9999, bankInput())
	if !res.IsNotFound() || res.Err != nil {
		t.Fatalf("expected not found rejection, got %+v", res)
	}
	if !env.onboarding.GetProgress(ctx, 9999).IsNotFound() {
		t.Fatal("progress of unknown record should be not found")
	}
	env.assertNoLeakedConnections(t)
}

func TestOnboardingPoolExhaustionIsInfrastructureFailure(t *testing.T) {
	env := newTestEnv(t, 1, 100*time.Millisecond)
	ctx := context.Background()
	id := env.seedRecord(t, "busy@example.com")

	held, err := txguard.Begin(ctx, env.pool)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	res := env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf)))
	held.Release()

	if res.Err == nil || !errors.Is(res.Err, txguard.ErrPoolExhausted) {
		t.Fatalf("err = %v, want pool exhausted", res.Err)
	}
	if got := testutil.ToFloat64(env.metrics.StepOutcomes.WithLabelValues(string(domain.StepPersonalData), "failed")); got != 1 {
		t.Fatalf("failed outcomes = %v, want 1", got)
	}

	mustSucceed(t, env.onboarding.SavePersonalData(ctx, id, personalInput(int(domain.BeneficiarySelf))))
	env.assertNoLeakedConnections(t)
}
