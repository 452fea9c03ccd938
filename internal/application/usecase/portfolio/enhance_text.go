package portfolio

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/sanitize"
)

type Section string

const (
	SectionProfessionalSummary   Section = "professional_summary"
	SectionExperienceDescription Section = "experience_description"
	SectionProjectDescription    Section = "project_description"

	// SectionSummary is the short name some clients send for the summary.
	SectionSummary Section = "summary"
)

const MsgInvalidPayload = "Invalid request payload"

const formatRule = "Answer with an HTML fragment that uses only <p>, <strong>, <em> and <u> tags."

var sectionPrompts = map[Section]string{
	SectionProfessionalSummary: "Rewrite this professional summary to be concise, achievement-oriented, and use active language. " +
		formatRule + " Return only the rewritten text:\n\n%q",
	SectionExperienceDescription: "Turn this experience description into 2-4 short points emphasizing action verbs and metrics, one <p> per point. " +
		formatRule + " Return only the points:\n\n%q",
	SectionProjectDescription: "Polish this project description into a few clear sentences focusing on the problem, solution, and impact. " +
		formatRule + " Return only the polished text:\n\n%q",
}

type EnhanceTextUseCase struct {
	llm     service.LLMService
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewEnhanceTextUseCase caps model calls at ratePerSecond with the given
// burst. A non-positive rate disables the cap.
func NewEnhanceTextUseCase(llm service.LLMService, ratePerSecond float64, burst int, log logger.Logger) *EnhanceTextUseCase {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &EnhanceTextUseCase{llm: llm, limiter: rate.NewLimiter(limit, burst), logger: log}
}

type EnhanceTextInput struct {
	Section Section
	Text    string
}

// Execute returns a sanitized suggestion. It never touches stored records,
// so a failure leaves the caller's text as it was.
func (uc *EnhanceTextUseCase) Execute(ctx context.Context, input EnhanceTextInput) (string, error) {
	ctx, span := tracer.Start(ctx, "EnhanceText")
	defer span.End()
	span.SetAttributes(attribute.String("section", string(input.Section)))

	if input.Section == SectionSummary {
		input.Section = SectionProfessionalSummary
	}
	prompt, ok := sectionPrompts[input.Section]
	if !ok {
		return "", fail(span, apperror.NewAppError(apperror.ErrInvalidInput, MsgInvalidPayload, "unknown section "+string(input.Section), nil))
	}
	if strings.TrimSpace(input.Text) == "" {
		return "", nil
	}

	if err := uc.limiter.Wait(ctx); err != nil {
		return "", fail(span, apperror.NewUpstream("", err))
	}

	out, err := uc.llm.GenerateChatResponse(ctx, fmt.Sprintf(prompt, input.Text))
	if err != nil {
		return "", fail(span, err)
	}
	return sanitize.HTML(strings.TrimSpace(out)), nil
}
