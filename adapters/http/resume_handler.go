package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

type ResumeHandler struct {
	parseResumeUseCase *portfolioUC.ParseResumeUseCase
	maxUploadBytes     int64
}

func NewResumeHandler(parseUC *portfolioUC.ParseResumeUseCase, maxUploadBytes int64) *ResumeHandler {
	return &ResumeHandler{parseResumeUseCase: parseUC, maxUploadBytes: maxUploadBytes}
}

func noFile(details string, err error) error {
	return apperror.NewAppError(apperror.ErrInvalidInput, portfolioUC.MsgNoFile, details, err)
}

// ParseResume forwards the multipart "file" field to the parsing service and
// returns a normalized draft. Nothing is stored.
func (h *ResumeHandler) ParseResume(c *gin.Context) {
	ownerID, _ := GetOwnerIDFromGinContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(noFile("'file' is required", err))
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		msg := fmt.Sprintf("File is too large. The maximum size is %d MB", h.maxUploadBytes>>20)
		c.Error(apperror.NewAppError(apperror.ErrInvalidInput, msg, "upload exceeds limit", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(noFile("file cannot open", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(noFile("file cannot be read", err))
		return
	}

	out, err := h.parseResumeUseCase.Execute(c.Request.Context(), portfolioUC.ParseResumeInput{
		OwnerID:  ownerID,
		Filename: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ParseResumeResponse{Portfolio: out.Draft, ArchiveURL: out.ArchiveURL})
}
