package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	portfolioUC "github.com/khoahotran/folio/internal/application/usecase/portfolio"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	webhookSecret = "whsec_test"
	maxBodyBytes  = 4 << 10
)

type stubParser struct {
	parsed *portfolio.ParsedResume
	err    error
}

func (p *stubParser) Parse(context.Context, service.ResumeFile) (*portfolio.ParsedResume, error) {
	return p.parsed, p.err
}

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (l *stubLLM) GenerateChatResponse(context.Context, string) (string, error) {
	l.calls++
	return l.reply, l.err
}

type RouterTestSuite struct {
	suite.Suite
	router *gin.Engine
	jwtSvc *auth.JWTService
	parser *stubParser
	llm    *stubLLM
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	db, err := persistence.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared", log)
	s.Require().NoError(err)
	s.T().Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := persistence.NewSQLitePortfolioRepo(db, log)
	publisher := event.NopPublisher{}

	s.jwtSvc = auth.NewJWTService("router-test-secret", time.Hour)
	s.parser = &stubParser{}
	s.llm = &stubLLM{reply: "<p>Sharper <strong>text</strong></p>"}

	handlers := Handlers{
		Portfolio: NewPortfolioHandler(
			portfolioUC.NewCreatePortfolioUseCase(repo, publisher, log),
			portfolioUC.NewUpdatePortfolioUseCase(repo, publisher, log),
			portfolioUC.NewGetOwnPortfolioUseCase(repo),
			portfolioUC.NewGetPublicPortfolioUseCase(repo),
			portfolioUC.NewPortfolioExistsUseCase(repo),
			portfolioUC.NewSetPrivacyUseCase(repo, publisher, log),
			portfolioUC.NewDeletePortfolioUseCase(repo, publisher, nil, "resumes", log),
		),
		Resume:  NewResumeHandler(portfolioUC.NewParseResumeUseCase(s.parser, nil, "resumes", 1<<20, log), 1<<20),
		AI:      NewAIHandler(portfolioUC.NewEnhanceTextUseCase(s.llm, 0, 0, log)),
		Webhook: NewWebhookHandler(portfolioUC.NewSyncIdentityUseCase(repo, publisher, nil, "resumes", log), log),
	}
	s.router = NewRouter(RouterConfig{WebhookSecret: webhookSecret, MaxUploadBytes: 1 << 20, MaxBodyBytes: maxBodyBytes}, handlers, s.jwtSvc, log)
}

func (s *RouterTestSuite) token(ownerID, username string) string {
	tok, err := s.jwtSvc.GenerateToken(ownerID, username)
	s.Require().NoError(err)
	return tok
}

func (s *RouterTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		s.Require().NoError(json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](s *RouterTestSuite, w *httptest.ResponseRecorder) T {
	var out T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func document(name string) map[string]any {
	return map[string]any{
		"template": 2,
		"personal": map[string]any{"name": name, "job_title": "Engineer", "github": "github.com/jane"},
		"projects": []any{
			map[string]any{"name": "folio", "description": "<p>Hi<script>alert(1)</script></p>"},
		},
	}
}

func (s *RouterTestSuite) Test_Health() {
	w := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"UP"}`, w.Body.String())
}

func (s *RouterTestSuite) Test_PrivateRoutesRequireToken() {
	w := s.do(http.MethodGet, "/api/portfolio", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/portfolio", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "Invalid or expired token")
}

func (s *RouterTestSuite) Test_PortfolioLifecycle() {
	tok := s.token("user_1", "jane")

	w := s.do(http.MethodGet, "/api/portfolio/exists", tok, nil)
	s.Equal(http.StatusOK, w.Code)
	s.False(decode[ExistsResponse](s, w).Exists)

	w = s.do(http.MethodPost, "/api/portfolio", tok, document("Jane"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decode[portfolio.Record](s, w)
	s.Equal("jane", created.Username)
	s.Equal("user_1", created.OwnerID)
	s.Require().Len(created.Projects, 1)
	s.NotContains(created.Projects[0].Description, "script")

	w = s.do(http.MethodPost, "/api/portfolio", tok, document("Jane"))
	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), portfolio.MsgConflict)

	w = s.do(http.MethodPut, "/api/portfolio", tok, document("Jane Doe"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Jane Doe", decode[portfolio.Record](s, w).Personal.Name)

	w = s.do(http.MethodGet, "/api/portfolios/jane", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Jane Doe", decode[portfolio.Record](s, w).Personal.Name)

	w = s.do(http.MethodPatch, "/api/portfolio/privacy", tok, map[string]any{"is_private": true})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.True(decode[PrivacyResponse](s, w).IsPrivate)

	w = s.do(http.MethodGet, "/api/portfolios/jane", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/portfolios/jane", s.token("user_2", "bob"), nil)
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodGet, "/api/portfolios/jane", tok, nil)
	s.Equal(http.StatusOK, w.Code, "owner still sees a private portfolio")

	w = s.do(http.MethodGet, "/api/portfolio", tok, nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(decode[portfolio.Record](s, w).IsPrivate)

	w = s.do(http.MethodDelete, "/api/portfolio", tok, nil)
	s.Equal(http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/portfolio", tok, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) Test_CreateRejectsInvalidDocuments() {
	tok := s.token("user_1", "jane")

	w := s.do(http.MethodPost, "/api/portfolio", tok, "{not json")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/portfolio", tok, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), portfolio.MsgDocumentRequired)

	doc := document("Jane")
	delete(doc, "template")
	w = s.do(http.MethodPost, "/api/portfolio", tok, doc)
	s.Equal(http.StatusBadRequest, w.Code)
	body := decode[map[string]any](s, w)
	s.Equal(portfolio.MsgTemplateRequired, body["message"])
	s.Contains(body, "issues")
}

func (s *RouterTestSuite) Test_OversizedBodiesRejected() {
	tok := s.token("user_1", "jane")
	doc := document("Jane")
	doc["professional_summary"] = "<p>" + strings.Repeat("a", 2*maxBodyBytes) + "</p>"

	w := s.do(http.MethodPost, "/api/portfolio", tok, doc)
	s.Equal(http.StatusRequestEntityTooLarge, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/portfolio/exists", tok, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.False(decode[ExistsResponse](s, w).Exists)

	w = s.webhook(webhookSecret, map[string]any{
		"type": "user.updated",
		"data": map[string]any{"id": "user_1", "username": strings.Repeat("j", 2*maxBodyBytes)},
	})
	s.Equal(http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
}

func (s *RouterTestSuite) Test_CreateNeedsUsernameClaim() {
	w := s.do(http.MethodPost, "/api/portfolio", s.token("user_1", ""), document("Jane"))
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), MsgMissingIdentity)
}

func (s *RouterTestSuite) Test_UpdatePrivacyValidatesBody() {
	tok := s.token("user_1", "jane")
	w := s.do(http.MethodPatch, "/api/portfolio/privacy", tok, map[string]any{"is_private": "yes"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/portfolio/privacy", tok, map[string]any{"is_private": true})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) Test_EnhanceText() {
	tok := s.token("user_1", "jane")

	w := s.do(http.MethodPost, "/api/ai/enhance", tok, map[string]any{"section": "professional_summary", "text": "I code"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("<p>Sharper <strong>text</strong></p>", decode[EnhanceResponse](s, w).Text)

	w = s.do(http.MethodPost, "/api/ai/enhance", tok, map[string]any{"section": "hobbies", "text": "x"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/ai/enhance", tok, map[string]any{"text": "x"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), portfolioUC.MsgInvalidPayload)
}

func (s *RouterTestSuite) upload(token, field, filename string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) Test_ParseResume() {
	tok := s.token("user_1", "jane")
	name := "Jane"
	s.parser.parsed = &portfolio.ParsedResume{Personal: &portfolio.ParsedPersonal{Name: &name}}

	w := s.upload(tok, "file", "cv.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	resp := decode[ParseResumeResponse](s, w)
	s.Equal("Jane", resp.Portfolio.Personal.Name)
	s.Empty(resp.ArchiveURL)

	w = s.upload(tok, "file", "cv.txt", []byte("plain text resume"))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), portfolioUC.MsgInvalidType)

	w = s.upload(tok, "document", "cv.pdf", []byte("%PDF-1.4\n"))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), portfolioUC.MsgNoFile)
}

func (s *RouterTestSuite) webhook(secret string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) Test_IdentityWebhook() {
	tok := s.token("user_1", "jane")
	w := s.do(http.MethodPost, "/api/portfolio", tok, document("Jane"))
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.webhook("wrong", map[string]any{"type": "user.deleted", "data": map[string]any{"id": "user_1"}})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.webhook(webhookSecret, map[string]any{"type": "user.updated", "data": map[string]any{"id": "user_1", "username": "jane-doe"}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(MsgWebhookProcessed, decode[MessageResponse](s, w).Message)

	w = s.do(http.MethodGet, "/api/portfolios/jane-doe", "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.webhook(webhookSecret, map[string]any{"type": "user.updated", "data": map[string]any{"id": "user_1"}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), portfolioUC.MsgMissingUsername)

	w = s.webhook(webhookSecret, map[string]any{"type": "session.created", "data": map[string]any{"id": "user_1"}})
	s.Equal(http.StatusOK, w.Code)

	w = s.webhook(webhookSecret, map[string]any{"type": "user.deleted", "data": map[string]any{"id": "user_1"}})
	s.Equal(http.StatusOK, w.Code)
	w = s.webhook(webhookSecret, map[string]any{"type": "user.deleted", "data": map[string]any{"id": "user_1"}})
	s.Equal(http.StatusOK, w.Code, "deleting an absent portfolio is a no-op")

	w = s.do(http.MethodGet, "/api/portfolios/jane-doe", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
