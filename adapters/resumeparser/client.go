package resumeparser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// MsgUnavailable is shown when the parsing service gives no usable error.
const MsgUnavailable = "Error communicating with the parsing service."

const maxResponseBytes = 4 << 20

type httpClient struct {
	endpoint string
	client   *http.Client
	log      logger.Logger
}

func NewClient(cfg config.Config, log logger.Logger) (service.ResumeParser, error) {
	if cfg.Parser.URL == "" {
		return nil, fmt.Errorf("parser url is not configured")
	}
	return &httpClient{
		endpoint: strings.TrimRight(cfg.Parser.URL, "/") + "/parse-resume",
		client:   &http.Client{Timeout: cfg.Parser.Timeout},
		log:      log,
	}, nil
}

func (c *httpClient) Parse(ctx context.Context, file service.ResumeFile) (*portfolio.ParsedResume, error) {
	body, contentType, err := encodeFile(file)
	if err != nil {
		return nil, apperror.NewInternal("failed to encode resume upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, apperror.NewInternal("failed to build parser request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("Resume parser request failed", err, zap.String("endpoint", c.endpoint))
		return nil, apperror.NewUpstream(MsgUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperror.NewUpstream(MsgUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamError(data)
		c.log.Warn("Resume parser rejected upload",
			zap.Int("status", resp.StatusCode),
			zap.String("filename", file.Filename),
			zap.String("error", msg),
		)
		return nil, apperror.NewUpstream(msg, fmt.Errorf("parser responded %d", resp.StatusCode))
	}

	var parsed portfolio.ParsedResume
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.log.Error("Resume parser returned an unreadable body", err)
		return nil, apperror.NewUpstream(MsgUnavailable, err)
	}
	return &parsed, nil
}

func encodeFile(file service.ResumeFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Filename))
	header.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// upstreamError returns the service's own "error" message when it sent one.
func upstreamError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || strings.TrimSpace(payload.Error) == "" {
		return MsgUnavailable
	}
	return payload.Error
}
