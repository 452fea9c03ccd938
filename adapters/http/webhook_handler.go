package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/domain/identity"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const MsgWebhookProcessed = "Webhook processed successfully"

type WebhookHandler struct {
	syncIdentityUseCase *portfolioUC.SyncIdentityUseCase
	logger              logger.Logger
}

func NewWebhookHandler(syncUC *portfolioUC.SyncIdentityUseCase, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{syncIdentityUseCase: syncUC, logger: log}
}

// IdentityWebhook applies user.updated and user.deleted events pushed by the
// identity provider. Other event types are acknowledged and ignored.
func (h *WebhookHandler) IdentityWebhook(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.Error(err)
		return
	}
	event, err := identity.ParseEvent(body)
	if err != nil {
		c.Error(apperror.NewInvalidInput("malformed identity event", err))
		return
	}

	if err := h.syncIdentityUseCase.Execute(c.Request.Context(), event); err != nil {
		c.Error(err)
		return
	}
	h.logger.Info("Identity webhook applied", zap.String("type", string(event.Type)), zap.String("owner_id", event.Data.ID))
	c.JSON(http.StatusOK, MessageResponse{Message: MsgWebhookProcessed})
}
