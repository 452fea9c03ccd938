package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

func TestEnhanceText_SanitizesSuggestion(t *testing.T) {
	llm := &stubLLM{reply: "  <p>Led a <strong>team</strong></p><script>alert(1)</script><div>x</div> "}
	uc := NewEnhanceTextUseCase(llm, 0, 1, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), EnhanceTextInput{Section: SectionProfessionalSummary, Text: "led team"})
	require.NoError(t, err)
	assert.Equal(t, "<p>Led a <strong>team</strong></p>x", out)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "professional summary")
	assert.Contains(t, llm.prompts[0], `"led team"`)
}

func TestEnhanceText_PromptPerSection(t *testing.T) {
	for section, want := range map[Section]string{
		SectionExperienceDescription: "experience description",
		SectionProjectDescription:    "project description",
		SectionSummary:               "professional summary",
	} {
		llm := &stubLLM{reply: "<p>ok</p>"}
		uc := NewEnhanceTextUseCase(llm, 0, 1, logger.NewNopLogger())

		_, err := uc.Execute(context.Background(), EnhanceTextInput{Section: section, Text: "text"})
		require.NoError(t, err)
		assert.Contains(t, llm.prompts[0], want)
	}
}

func TestEnhanceText_EmptyTextSkipsModel(t *testing.T) {
	llm := &stubLLM{reply: "never"}
	uc := NewEnhanceTextUseCase(llm, 0, 1, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), EnhanceTextInput{Section: SectionProjectDescription, Text: "  \n"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Empty(t, llm.prompts)
}

func TestEnhanceText_UnknownSection(t *testing.T) {
	uc := NewEnhanceTextUseCase(&stubLLM{}, 0, 1, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), EnhanceTextInput{Section: "hobbies", Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, MsgInvalidPayload, appMessage(t, err))
}

func TestEnhanceText_UpstreamFailure(t *testing.T) {
	uc := NewEnhanceTextUseCase(&stubLLM{err: apperror.NewUpstream("AI response was empty.", nil)}, 0, 1, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), EnhanceTextInput{Section: SectionProjectDescription, Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Equal(t, "AI response was empty.", appMessage(t, err))
}

func TestEnhanceText_RateLimitHonorsContext(t *testing.T) {
	uc := NewEnhanceTextUseCase(&stubLLM{reply: "<p>ok</p>"}, 0.001, 1, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), EnhanceTextInput{Section: SectionProjectDescription, Text: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = uc.Execute(ctx, EnhanceTextInput{Section: SectionProjectDescription, Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}
