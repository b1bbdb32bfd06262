package services

import (
	"context"
	"errors"
	"testing"

	"affiliatehub/internal/adapters/events"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/config"
	"affiliatehub/internal/core/domain"
)

type activationFixture struct {
	codes     *fakeCodeRepo
	sales     *fakeSaleRepo
	accounts  *fakeAccountRepo
	provider  *fakeProvider
	publisher *events.MemoryPublisher
	service   *ActivationService
}

func newActivationFixture(sales ...*models.SaleRecord) *activationFixture {
	f := &activationFixture{
		codes:     newFakeCodeRepo(),
		sales:     newFakeSaleRepo(sales...),
		accounts:  newFakeAccountRepo(),
		provider:  newFakeProvider(),
		publisher: events.NewMemoryPublisher(),
	}
	f.service = NewActivationService(
		NewCodeRegistry(f.codes, f.sales),
		NewOwnershipVerifier(f.sales, config.OwnershipGenerated),
		NewIdentityProvisioner(f.provider, f.accounts, 50),
		NewAccountLinker(f.accounts),
		f.codes,
		f.publisher,
	)
	return f
}

func confirmedSale(code, idNumber, email string) *models.SaleRecord {
	return &models.SaleRecord{
		GeneratedCode: strPtr(code),
		IDNumber:      idNumber,
		Email:         email,
		FullName:      strPtr("Ana Souza"),
		Confirmed:     true,
	}
}

func TestActivateEndToEnd(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))
	ctx := context.Background()

	result, err := f.service.Activate(ctx, &ActivateInput{Code: "123456", IDNumber: "123.456.789-01", Password: "secret1"})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !result.Success || result.Email != "ana@example.com" || result.UserID == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.codes.status("123456") != domain.CodeStatusActive {
		t.Fatalf("code should be active, got %s", f.codes.status("123456"))
	}
	account, err := f.accounts.GetByID(ctx, result.UserID)
	if err != nil || account.AffiliateCodeValue() != "123456" || account.IDNumber != "12345678901" {
		t.Fatalf("account not linked: %+v %v", account, err)
	}
	if got := f.publisher.Events(); len(got) != 1 || got[0].Code != "123456" {
		t.Fatalf("expected one activation event, got %+v", got)
	}
	for _, step := range []domain.ActivationStep{domain.StepResolve, domain.StepVerify, domain.StepProvision, domain.StepLink, domain.StepCommit, domain.StepPublish} {
		if result.Trace.Outcome(step) != domain.OutcomeOK {
			t.Fatalf("step %s outcome %q", step, result.Trace.Outcome(step))
		}
	}

	// Second attempt with the same code
	_, err = f.service.Activate(ctx, &ActivateInput{Code: "123456", IDNumber: "12345678901", Password: "secret1"})
	if !errors.Is(err, domain.ErrCodeAlreadyActive) {
		t.Fatalf("second activation: got %v, want ErrCodeAlreadyActive", err)
	}
	if f.provider.creates != 1 {
		t.Fatalf("re-activation must not provision again, creates=%d", f.provider.creates)
	}
}

func TestActivateRejectsMalformedInputWithoutStoreAccess(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))

	inputs := []ActivateInput{
		{Code: "12345", IDNumber: "12345678901", Password: "secret1"},
		{Code: "12345a", IDNumber: "12345678901", Password: "secret1"},
		{Code: "1234567", IDNumber: "12345678901", Password: "secret1"},
		{Code: "123456", IDNumber: "1234567890", Password: "secret1"},
		{Code: "123456", IDNumber: "12345678901", Password: "12345"},
	}
	for _, in := range inputs {
		in := in
		if _, err := f.service.Activate(context.Background(), &in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("Activate(%+v) = %v, want ErrInvalidInput", in, err)
		}
	}
	if len(f.sales.calls) != 0 || f.codes.creates != 0 {
		t.Fatalf("invalid input touched the store: %v", f.sales.calls)
	}
}

func TestActivateOwnershipMismatchNeverProvisions(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))

	_, err := f.service.Activate(context.Background(), &ActivateInput{Code: "123456", IDNumber: "10987654321", Password: "secret1"})
	if !errors.Is(err, domain.ErrOwnershipMismatch) {
		t.Fatalf("got %v, want ErrOwnershipMismatch", err)
	}
	if f.provider.creates != 0 || f.codes.status("123456") != domain.CodeStatusInactive {
		t.Fatal("mismatch must not provision identity or activate code")
	}
}

func TestActivateEmailOverrideAndMissingEmail(t *testing.T) {
	f := newActivationFixture(
		confirmedSale("111111", "12345678901", "old@example.com"),
		confirmedSale("222222", "10987654321", ""),
	)

	result, err := f.service.Activate(context.Background(), &ActivateInput{Code: "111111", IDNumber: "12345678901", Password: "secret1", Email: " New@Example.com "})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if result.Email != "new@example.com" {
		t.Fatalf("expected override email, got %s", result.Email)
	}

	_, err = f.service.Activate(context.Background(), &ActivateInput{Code: "222222", IDNumber: "10987654321", Password: "secret1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing email: got %v", err)
	}
	if f.codes.status("222222") != domain.CodeStatusInactive {
		t.Fatal("code must stay inactive when email is missing")
	}
}

func TestActivateLinkageAndPublishFailuresAreNotFatal(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))
	f.accounts.upsertErr = errStoreDown
	f.publisher.Err = errStoreDown

	result, err := f.service.Activate(context.Background(), &ActivateInput{Code: "123456", IDNumber: "12345678901", Password: "secret1"})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if result.Trace.Outcome(domain.StepLink) != domain.OutcomeFailed || result.Trace.Outcome(domain.StepPublish) != domain.OutcomeFailed {
		t.Fatalf("expected failed link and publish steps: %+v", result.Trace.Steps)
	}
	if f.codes.status("123456") != domain.CodeStatusActive {
		t.Fatal("code should be active")
	}
}

func TestActivateCommitFailureKeepsIdentity(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))
	f.codes.swapErr = errStoreDown

	_, err := f.service.Activate(context.Background(), &ActivateInput{Code: "123456", IDNumber: "12345678901", Password: "secret1"})
	if !errors.Is(err, domain.ErrActivationCommitFailed) {
		t.Fatalf("got %v, want ErrActivationCommitFailed", err)
	}
	if f.provider.creates != 1 || f.accounts.count() != 1 {
		t.Fatal("identity and account are not compensated")
	}
	if len(f.publisher.Events()) != 0 {
		t.Fatal("no event on failed commit")
	}
}

// racingCodeRepo lets another request commit right before this one does
type racingCodeRepo struct {
	*fakeCodeRepo
}

func (r *racingCodeRepo) ActivateIfInactive(ctx context.Context, id string) (bool, error) {
	if _, err := r.fakeCodeRepo.ActivateIfInactive(ctx, id); err != nil {
		return false, err
	}
	return r.fakeCodeRepo.ActivateIfInactive(ctx, id)
}

func TestActivateLosesCompareAndSwap(t *testing.T) {
	f := newActivationFixture(confirmedSale("123456", "12345678901", "ana@example.com"))
	racing := &racingCodeRepo{fakeCodeRepo: f.codes}
	f.service.codeRepo = racing

	_, err := f.service.Activate(context.Background(), &ActivateInput{Code: "123456", IDNumber: "12345678901", Password: "secret1"})
	if !errors.Is(err, domain.ErrCodeAlreadyActive) {
		t.Fatalf("got %v, want ErrCodeAlreadyActive", err)
	}
	if len(f.publisher.Events()) != 0 {
		t.Fatal("losing request must not publish")
	}
}
