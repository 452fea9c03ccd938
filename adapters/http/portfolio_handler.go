package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

const MsgMissingIdentity = "User not authenticated or username is missing"

type PortfolioHandler struct {
	createPortfolioUseCase    *portfolioUC.CreatePortfolioUseCase
	updatePortfolioUseCase    *portfolioUC.UpdatePortfolioUseCase
	getOwnPortfolioUseCase    *portfolioUC.GetOwnPortfolioUseCase
	getPublicPortfolioUseCase *portfolioUC.GetPublicPortfolioUseCase
	portfolioExistsUseCase    *portfolioUC.PortfolioExistsUseCase
	setPrivacyUseCase         *portfolioUC.SetPrivacyUseCase
	deletePortfolioUseCase    *portfolioUC.DeletePortfolioUseCase
}

func NewPortfolioHandler(
	createUC *portfolioUC.CreatePortfolioUseCase,
	updateUC *portfolioUC.UpdatePortfolioUseCase,
	getOwnUC *portfolioUC.GetOwnPortfolioUseCase,
	getPublicUC *portfolioUC.GetPublicPortfolioUseCase,
	existsUC *portfolioUC.PortfolioExistsUseCase,
	privacyUC *portfolioUC.SetPrivacyUseCase,
	deleteUC *portfolioUC.DeletePortfolioUseCase,
) *PortfolioHandler {
	return &PortfolioHandler{
		createPortfolioUseCase:    createUC,
		updatePortfolioUseCase:    updateUC,
		getOwnPortfolioUseCase:    getOwnUC,
		getPublicPortfolioUseCase: getPublicUC,
		portfolioExistsUseCase:    existsUC,
		setPrivacyUseCase:         privacyUC,
		deletePortfolioUseCase:    deleteUC,
	}
}

func missingIdentity() error {
	return apperror.NewAppError(apperror.ErrUnauthorized, MsgMissingIdentity, "token carries no owner or username", nil)
}

// callerIdentity returns the caller's owner id and username, both required for writes.
func callerIdentity(c *gin.Context) (string, string, bool) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		return "", "", false
	}
	username, ok := GetUsernameFromGinContext(c)
	if !ok {
		return "", "", false
	}
	return ownerID, username, true
}

func readDocument(c *gin.Context) (any, error) {
	body, err := readBody(c)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, apperror.NewAppError(apperror.ErrInvalidInput, portfolio.MsgDocumentRequired, "empty body", nil)
	}
	doc, err := portfolio.DecodeDocument(body)
	if err != nil {
		return nil, apperror.NewInvalidInput("request body is not valid JSON", err)
	}
	return doc, nil
}

func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	ownerID, username, ok := callerIdentity(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	doc, err := readDocument(c)
	if err != nil {
		c.Error(err)
		return
	}

	rec, err := h.createPortfolioUseCase.Execute(c.Request.Context(), portfolioUC.CreatePortfolioInput{
		OwnerID:  ownerID,
		Username: username,
		Document: doc,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	ownerID, username, ok := callerIdentity(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	doc, err := readDocument(c)
	if err != nil {
		c.Error(err)
		return
	}

	rec, err := h.updatePortfolioUseCase.Execute(c.Request.Context(), portfolioUC.UpdatePortfolioInput{
		OwnerID:  ownerID,
		Username: username,
		Document: doc,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *PortfolioHandler) GetOwnPortfolio(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	rec, err := h.getOwnPortfolioUseCase.Execute(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *PortfolioHandler) PortfolioExists(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	exists, err := h.portfolioExistsUseCase.Execute(c.Request.Context(), ownerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

func (h *PortfolioHandler) UpdatePrivacy(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	var req UpdatePrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewAppError(apperror.ErrInvalidInput, "is_private must be a boolean", err.Error(), err))
		return
	}

	rec, err := h.setPrivacyUseCase.Execute(c.Request.Context(), portfolioUC.SetPrivacyInput{
		OwnerID:   ownerID,
		IsPrivate: *req.IsPrivate,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, PrivacyResponse{IsPrivate: rec.IsPrivate})
}

func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	ownerID, ok := GetOwnerIDFromGinContext(c)
	if !ok {
		c.Error(missingIdentity())
		return
	}
	if err := h.deletePortfolioUseCase.Execute(c.Request.Context(), ownerID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPublicPortfolio serves /portfolios/:username. Private portfolios are
// visible to their owner only.
func (h *PortfolioHandler) GetPublicPortfolio(c *gin.Context) {
	viewerID, _ := GetOwnerIDFromGinContext(c)
	rec, err := h.getPublicPortfolioUseCase.Execute(c.Request.Context(), portfolioUC.GetPublicPortfolioInput{
		Username: c.Param("username"),
		ViewerID: viewerID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
