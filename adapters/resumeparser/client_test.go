package resumeparser

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var pdf = service.ResumeFile{
	Filename:    "cv.pdf",
	ContentType: "application/pdf",
	Data:        []byte("%PDF-1.4 test"),
}

func newTestClient(t *testing.T, handler http.HandlerFunc) service.ResumeParser {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.Parser.URL = srv.URL + "/"
	cfg.Parser.Timeout = 5 * time.Second
	c, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return c
}

func upstreamMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	return appErr.Message
}

func TestParse_ForwardsFileAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse-resume", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, pdf.Data, data)
			assert.Equal(t, "cv.pdf", hdr.Filename)
			assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"personal":{"name":"Jane","email":null},"education":null,"skills":{"technical":["Go"],"soft":null}}`))
	})

	parsed, err := c.Parse(context.Background(), pdf)
	require.NoError(t, err)
	require.NotNil(t, parsed.Personal)
	assert.Equal(t, "Jane", *parsed.Personal.Name)
	assert.Nil(t, parsed.Personal.Email)
	assert.Nil(t, parsed.Education)
	assert.Equal(t, []string{"Go"}, parsed.Skills.Technical)
}

func TestParse_UpstreamErrorPassesThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Could not extract text from the document"}`))
	})

	_, err := c.Parse(context.Background(), pdf)
	assert.Equal(t, "Could not extract text from the document", upstreamMessage(t, err))
}

func TestParse_UpstreamErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := c.Parse(context.Background(), pdf)
	assert.Equal(t, MsgUnavailable, upstreamMessage(t, err))
}

func TestParse_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var cfg config.Config
	cfg.Parser.URL = url
	cfg.Parser.Timeout = time.Second
	c, err := NewClient(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = c.Parse(context.Background(), pdf)
	assert.Equal(t, MsgUnavailable, upstreamMessage(t, err))
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(config.Config{}, logger.NewNopLogger())
	assert.Error(t, err)
}
