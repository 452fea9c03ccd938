package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

type AIHandler struct {
	enhanceTextUseCase *portfolioUC.EnhanceTextUseCase
}

func NewAIHandler(enhanceUC *portfolioUC.EnhanceTextUseCase) *AIHandler {
	return &AIHandler{enhanceTextUseCase: enhanceUC}
}

func (h *AIHandler) EnhanceText(c *gin.Context) {
	var req EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewAppError(apperror.ErrInvalidInput, portfolioUC.MsgInvalidPayload, err.Error(), err))
		return
	}

	text, err := h.enhanceTextUseCase.Execute(c.Request.Context(), portfolioUC.EnhanceTextInput{
		Section: portfolioUC.Section(req.Section),
		Text:    *req.Text,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EnhanceResponse{Text: text})
}
