package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"affiliatehub/internal/adapters/events"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"
	"affiliatehub/internal/pkg/password"
)

// ActivateInput represents activation input
type ActivateInput struct {
	Code     string `json:"code"`
	IDNumber string `json:"idNumber"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// ActivateResult represents activation output
type ActivateResult struct {
	Success bool                    `json:"success"`
	Email   string                  `json:"email"`
	UserID  string                  `json:"userId"`
	Trace   *domain.ActivationTrace `json:"-"`
}

// ActivationService runs the activation sequence:
// resolve -> verify -> provision -> link -> commit -> publish.
// Only the commit changes the code status; nothing before it is rolled back.
type ActivationService struct {
	registry    *CodeRegistry
	verifier    *OwnershipVerifier
	provisioner *IdentityProvisioner
	linker      *AccountLinker
	codeRepo    repositories.AffiliateCodeRepository
	publisher   events.Publisher
}

// NewActivationService creates a new activation service
func NewActivationService(
	registry *CodeRegistry,
	verifier *OwnershipVerifier,
	provisioner *IdentityProvisioner,
	linker *AccountLinker,
	codeRepo repositories.AffiliateCodeRepository,
	publisher events.Publisher,
) *ActivationService {
	return &ActivationService{
		registry:    registry,
		verifier:    verifier,
		provisioner: provisioner,
		linker:      linker,
		codeRepo:    codeRepo,
		publisher:   publisher,
	}
}

// ValidateActivateInput checks the request shape before anything touches the store
func ValidateActivateInput(input *ActivateInput) error {
	input.Code = strings.TrimSpace(input.Code)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if !identifier.IsValidActivationCode(input.Code) {
		return fmt.Errorf("%w: code must have 6 digits", domain.ErrInvalidInput)
	}
	if !identifier.IsValidIDNumber(input.IDNumber) {
		return fmt.Errorf("%w: CPF must have 11 digits", domain.ErrInvalidInput)
	}
	if !password.ValidatePassword(input.Password) {
		return fmt.Errorf("%w: password must have at least %d characters", domain.ErrInvalidInput, password.MinLength)
	}
	return nil
}

// Activate activates an affiliate code for the buyer who generated it
func (s *ActivationService) Activate(ctx context.Context, input *ActivateInput) (*ActivateResult, error) {
	if err := ValidateActivateInput(input); err != nil {
		return nil, err
	}

	trace := &domain.ActivationTrace{Code: input.Code}
	result, err := s.run(ctx, input, trace)
	logTrace(trace, input.IDNumber, err)
	if err != nil {
		return nil, err
	}
	result.Trace = trace
	return result, nil
}

func (s *ActivationService) run(ctx context.Context, input *ActivateInput, trace *domain.ActivationTrace) (*ActivateResult, error) {
	// 1. Resolve code
	affiliate, err := s.registry.Resolve(ctx, input.Code)
	if err != nil {
		trace.Record(domain.StepResolve, domain.OutcomeFailed, true, err.Error())
		return nil, err
	}
	trace.Record(domain.StepResolve, domain.OutcomeOK, true, affiliate.ID)

	// 2. Verify ownership
	proof, err := s.verifier.Verify(ctx, input.Code, input.IDNumber)
	if err != nil {
		trace.Record(domain.StepVerify, domain.OutcomeFailed, true, err.Error())
		return nil, err
	}
	trace.Record(domain.StepVerify, domain.OutcomeOK, true, "matched "+proof.MatchedOn)

	email := input.Email
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(proof.Email))
	}
	if email == "" {
		err := fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
		trace.Record(domain.StepProvision, domain.OutcomeFailed, true, "no email")
		return nil, err
	}

	// 3. Provision identity
	identityResult, err := s.provisioner.Provision(ctx, ProvisionInput{
		Email:         email,
		Password:      input.Password,
		IDNumber:      identifier.NormalizeIDNumber(input.IDNumber),
		AffiliateCode: input.Code,
		FullName:      proof.FullName,
	})
	if err != nil {
		trace.Record(domain.StepProvision, domain.OutcomeFailed, true, err.Error())
		return nil, err
	}
	trace.Record(domain.StepProvision, domain.OutcomeOK, true, identityResult.Source)

	// 4. Link account (best effort)
	if identityResult.UserID == "" {
		trace.Record(domain.StepLink, domain.OutcomeSkipped, false, "no identity id")
	} else if err := s.linker.Link(ctx, LinkInput{
		UserID:        identityResult.UserID,
		Email:         email,
		IDNumber:      input.IDNumber,
		AffiliateCode: input.Code,
	}); err != nil {
		trace.Record(domain.StepLink, domain.OutcomeFailed, false, err.Error())
	} else {
		trace.Record(domain.StepLink, domain.OutcomeOK, false, identityResult.UserID)
	}

	// 5. Commit status flip
	swapped, err := s.codeRepo.ActivateIfInactive(ctx, affiliate.ID)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrActivationCommitFailed, err)
		trace.Record(domain.StepCommit, domain.OutcomeFailed, true, err.Error())
		return nil, err
	}
	if !swapped {
		err = fmt.Errorf("%w: activated concurrently", domain.ErrCodeAlreadyActive)
		trace.Record(domain.StepCommit, domain.OutcomeFailed, true, err.Error())
		return nil, err
	}
	trace.Record(domain.StepCommit, domain.OutcomeOK, true, "")

	// 6. Publish event (best effort)
	s.publish(ctx, trace, domain.ActivationEvent{
		Code:        input.Code,
		UserID:      identityResult.UserID,
		Email:       email,
		ActivatedAt: time.Now().UTC(),
	})

	return &ActivateResult{
		Success: true,
		Email:   email,
		UserID:  identityResult.UserID,
	}, nil
}

func (s *ActivationService) publish(ctx context.Context, trace *domain.ActivationTrace, event domain.ActivationEvent) {
	if s.publisher == nil {
		trace.Record(domain.StepPublish, domain.OutcomeSkipped, false, "no publisher")
		return
	}
	if err := s.publisher.PublishActivation(ctx, event); err != nil {
		trace.Record(domain.StepPublish, domain.OutcomeFailed, false, err.Error())
		return
	}
	trace.Record(domain.StepPublish, domain.OutcomeOK, false, "")
}

// logTrace writes one line per step plus the overall failure kind
func logTrace(trace *domain.ActivationTrace, idNumber string, err error) {
	masked := identifier.MaskIDNumber(idNumber)
	for _, step := range trace.Steps {
		icon := "✅"
		switch {
		case step.Outcome == domain.OutcomeSkipped:
			icon = "⏭️"
		case step.Outcome == domain.OutcomeFailed && step.Fatal:
			icon = "❌"
		case step.Outcome == domain.OutcomeFailed:
			icon = "⚠️"
		}
		log.Printf("%s activation %s [%s] %s %s (compensation: %s)", icon, trace.Code, masked, step.Step, step.Detail, step.Compensation)
	}
	if err != nil {
		log.Printf("❌ activation %s [%s] failed: %s", trace.Code, masked, domain.FailureKind(err))
		return
	}
	log.Printf("🎉 activation %s [%s] completed", trace.Code, masked)
}
