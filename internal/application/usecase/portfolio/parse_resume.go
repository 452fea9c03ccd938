package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	MsgNoFile      = "No file uploaded or invalid file format"
	MsgInvalidType = "Invalid file type. Please upload a PDF or DOCX file"
)

type ParseResumeUseCase struct {
	parser         service.ResumeParser
	archive        resumeArchive
	maxUploadBytes int64
	logger         logger.Logger
}

// NewParseResumeUseCase builds the use case. uploader may be nil, which
// disables archiving of uploaded resumes.
func NewParseResumeUseCase(parser service.ResumeParser, uploader service.Uploader, archiveFolder string, maxUploadBytes int64, log logger.Logger) *ParseResumeUseCase {
	return &ParseResumeUseCase{
		parser:         parser,
		archive:        resumeArchive{uploader: uploader, folder: archiveFolder, logger: log},
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

type ParseResumeInput struct {
	OwnerID  string
	Filename string
	Data     []byte
}

type ParseResumeOutput struct {
	// Draft is the normalized resume. It is not validated or stored.
	Draft      portfolio.Portfolio
	ArchiveURL string
}

func (uc *ParseResumeUseCase) Execute(ctx context.Context, input ParseResumeInput) (*ParseResumeOutput, error) {
	ctx, span := tracer.Start(ctx, "ParseResume")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", input.OwnerID), attribute.Int("file.size", len(input.Data)))

	if len(input.Data) == 0 {
		return nil, fail(span, apperror.NewAppError(apperror.ErrInvalidInput, MsgNoFile, "empty upload", nil))
	}
	if uc.maxUploadBytes > 0 && int64(len(input.Data)) > uc.maxUploadBytes {
		msg := fmt.Sprintf("File is too large. The maximum size is %d MB", uc.maxUploadBytes>>20)
		return nil, fail(span, apperror.NewAppError(apperror.ErrInvalidInput, msg, "upload exceeds limit", nil))
	}

	mtype := mimetype.Detect(input.Data)
	if !mtype.Is(MimePDF) && !mtype.Is(MimeDOCX) {
		uc.logger.Warn("Rejected resume upload", zap.String("detected", mtype.String()), zap.String("filename", input.Filename))
		return nil, fail(span, apperror.NewAppError(apperror.ErrInvalidInput, MsgInvalidType, "detected "+mtype.String(), nil))
	}
	span.SetAttributes(attribute.String("file.mime", mtype.String()))

	parsed, err := uc.parser.Parse(ctx, service.ResumeFile{
		Filename:    input.Filename,
		ContentType: baseMIME(mtype.String()),
		Data:        input.Data,
	})
	if err != nil {
		return nil, fail(span, err)
	}

	out := &ParseResumeOutput{Draft: portfolio.NormalizeParsedResume(parsed)}
	out.ArchiveURL = uc.archive.store(ctx, input.OwnerID, input.Data)
	return out, nil
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
