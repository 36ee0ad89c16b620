package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/middleware"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/quota"
	"github.com/autodoc/autodoc/internal/render"
	"github.com/autodoc/autodoc/internal/service"
	"github.com/autodoc/autodoc/internal/service/servicetest"
)

const testSecret = "handler-test-secret-handler-test-secret"

const residenceBody = `{
	"type": "declaracao_residencia",
	"form_data": {
		"nome_completo": "Maria Silva",
		"cpf": "12345678901",
		"endereco_completo": "Rua das Flores, 100 - São Paulo/SP",
		"tempo_residencia": "2 anos"
	}
}`

type apiEnv struct {
	router   http.Handler
	store    *servicetest.Store
	cache    *servicetest.Cache
	issuer   *auth.Issuer
	recorder *metrics.InMemoryRecorder
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	issuer, err := auth.NewIssuer(testSecret)
	require.NoError(t, err)

	env := &apiEnv{
		store:    servicetest.NewStore(),
		cache:    servicetest.NewCache(),
		issuer:   issuer,
		recorder: metrics.NewInMemory(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := service.NewAuthService(env.store, env.cache, env.cache, issuer, nil, service.AuthConfig{}, env.recorder, logger)
	docSvc := service.NewDocumentService(env.store, env.store, env.cache, render.NewTemplateRenderer(), service.DocumentConfig{
		Gate: quota.NewGate(quota.DefaultFreeLimit),
	}, env.recorder, logger)
	subSvc := service.NewSubscriptionService(env.store, env.cache, docSvc, 1, env.recorder, logger)

	env.router = NewRouter(Handlers{
		Root:         New(),
		Health:       NewHealthHandler(nil, nil, "template", logger),
		Auth:         NewAuthHandler(authSvc, docSvc, logger),
		Document:     NewDocumentHandler(docSvc, logger),
		Subscription: NewSubscriptionHandler(subSvc, logger),
		Admin:        NewAdminHandler(service.NewAdminService(env.store), logger),
		Metrics:      NewMetricsHandler(env.recorder),
	}, RouterConfig{
		Logger:        logger,
		Authenticator: authSvc,
		CORS:          middleware.DefaultCORSConfig(),
		Security:      middleware.SecurityConfig{IsDevelopment: true},
		MaxBodySize:   1 << 20,
	})
	return env
}

// signIn stores a user and returns a bearer token for it.
func (e *apiEnv) signIn(t *testing.T, id string, role model.Role) string {
	t.Helper()
	user := &model.User{
		ID:        id,
		FullName:  "Usuária " + id,
		Email:     strings.ToLower(id) + "@example.com",
		Role:      role,
		Plan:      model.PlanFree,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	e.store.PutUser(user)

	issued, err := e.issuer.Issue(user, time.Hour)
	require.NoError(t, err)
	return issued.Token
}

func (e *apiEnv) do(t *testing.T, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestAPI_RegisterLoginMe(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "",
		`{"fullName":"Ana Souza","email":"Ana@Example.com","password":"segredo1","confirmPassword":"segredo1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[dto.AuthResponse](t, rec)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "ana@example.com", registered.User.Email)
	assert.Equal(t, model.PlanFree, registered.User.Plan)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"segredo1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[dto.AuthResponse](t, rec)

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decodeBody[dto.MeResponse](t, rec)
	assert.Equal(t, "Ana Souza", me.User.FullName)
	require.NotNil(t, me.Usage)
	require.NotNil(t, me.Usage.Remaining)
	assert.Equal(t, quota.DefaultFreeLimit, *me.Usage.Remaining)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/logout", login.Token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_RegisterErrors(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "short password",
			body:       `{"full_name":"Ana","email":"ana@example.com","password":"123"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
			wantField:  "password",
		},
		{
			name:       "mismatched confirmation",
			body:       `{"full_name":"Ana","email":"ana@example.com","password":"segredo1","confirm_password":"outro123"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
			wantField:  "confirm_password",
		},
		{
			name:       "oversized password",
			body:       fmt.Sprintf(`{"full_name":"Ana","email":"ana@example.com","password":%q}`, strings.Repeat("a", 200)),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_ERROR",
			wantField:  "password",
		},
		{
			name:       "malformed json",
			body:       `{"full_name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody[dto.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
			if tt.wantField != "" {
				assert.Contains(t, body.Fields, tt.wantField)
			}
		})
	}
}

func TestAPI_LoginWrongPassword(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", `{"full_name":"Ana","email":"ana@example.com","password":"segredo1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"errada99"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeBody[dto.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ninguem@example.com","password":"errada99"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, uint64(2), env.recorder.Snapshot().LoginsFailed)
}

func TestAPI_ForgotPasswordIsGeneric(t *testing.T) {
	env := newAPIEnv(t)
	env.signIn(t, "01KNOWN", model.RoleUser)

	known := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"01known@example.com"}`)
	unknown := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", `{"email":"other@example.com"}`)

	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, env.cache.ResetTokenCount())
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	env := newAPIEnv(t)

	for _, path := range []string{"/documento/listar", "/documento/tipos", "/api/profile", "/api/subscription", "/api/admin/stats"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(t, http.MethodGet, "/documento/listar", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_RejectsNonJSONBodies(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	req := httptest.NewRequest(http.MethodPost, "/documento/gerar", strings.NewReader("type=recibo"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAPI_DocumentTypes(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	rec := env.do(t, http.MethodGet, "/documento/tipos", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[dto.DocumentTypeListResponse](t, rec)
	require.Len(t, list.Data, 6)
	assert.Equal(t, model.TypeDeclaracaoResidencia, list.Data[0].Key)

	rec = env.do(t, http.MethodGet, "/documento/tipos/recibo_pagamento", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Recibo de Pagamento", decodeBody[model.DocumentTypeConfig](t, rec).Title)

	rec = env.do(t, http.MethodGet, "/documento/tipos/testamento", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Format(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"cpf", `{"type":"declaracao_residencia","field":"cpf","value":"12345678901"}`, "123.456.789-01"},
		{"cnpj", `{"type":"contrato_prestacao","field":"contratante_cpf","value":"12345678000190"}`, "12.345.678/0001-90"},
		{"currency", `{"type":"recibo_pagamento","field":"valor","value":"15050"}`, "150,50"},
		{"cleared currency", `{"type":"recibo_pagamento","field":"valor","previous":"1,50","value":""}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/documento/formatar", token, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decodeBody[dto.FormatResponse](t, rec).Value)
		})
	}

	rec := env.do(t, http.MethodPost, "/documento/formatar", token, `{"type":"declaracao_residencia","field":"nope","value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_FIELD", decodeBody[dto.ErrorResponse](t, rec).Code)
}

func TestAPI_GenerateAndList(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	rec := env.do(t, http.MethodPost, "/documento/gerar", token, residenceBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	path := rec.Body.String()
	assert.True(t, strings.HasSuffix(path, ".html"), path)
	assert.Equal(t, "/documento/download/"+path, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/documento/listar", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[dto.DocumentListResponse](t, rec)
	require.Equal(t, 1, list.Total)
	doc := list.Data[0]
	assert.Equal(t, "generated", doc.Status)
	assert.Equal(t, "Declaração de Residência - Maria Silva", doc.Title)
	assert.Equal(t, "123.456.789-01", doc.FormData["cpf"])
	assert.Equal(t, path, doc.ArtifactPath)

	rec = env.do(t, http.MethodGet, "/documento/download/"+path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Maria Silva")

	assert.Equal(t, uint64(1), env.recorder.Snapshot().DocumentsGenerated[model.TypeDeclaracaoResidencia])
}

func TestAPI_GenerateJSON(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	body := `{"documentType":"recibo_pagamento","title":"Recibo de março","creatorName":"Escritório X","formData":{
		"pagador_nome":"João","recebedor_nome":"Maria","valor":"1.500,00","descricao":"Aluguel","data_pagamento":"2026-03-10"}}`
	rec := env.do(t, http.MethodPost, "/documento/gerar", token, body, "Accept", "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	doc := decodeBody[dto.DocumentResponse](t, rec)
	assert.Equal(t, "Recibo de março", doc.Title)
	assert.Equal(t, "Escritório X", doc.CreatorName)
	assert.Equal(t, "1.500,00", doc.FormData["valor"])
	assert.Equal(t, "01USER", doc.CreatedBy)
}

func TestAPI_GenerateErrors(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	rec := env.do(t, http.MethodPost, "/documento/gerar", token, `{"type":"declaracao_residencia","form_data":{"nome_completo":"  "}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[dto.ErrorResponse](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Fields, "nome_completo")
	assert.Contains(t, body.Fields, "cpf")

	rec = env.do(t, http.MethodPost, "/documento/gerar", token, `{"type":"testamento","form_data":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_DOCUMENT_TYPE", decodeBody[dto.ErrorResponse](t, rec).Code)

	assert.Zero(t, env.store.DocumentCount())
}

func TestAPI_QuotaAndUpgrade(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	now := time.Now().UTC()
	for i := 0; i < quota.DefaultFreeLimit; i++ {
		env.store.PutDocument(&model.Document{
			ID:        fmt.Sprintf("01DOC%d", i),
			Type:      model.TypeReciboPagamento,
			Title:     fmt.Sprintf("Recibo %d", i),
			Status:    model.StatusGenerated,
			CreatedBy: "01USER",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	rec := env.do(t, http.MethodPost, "/documento/gerar", token, residenceBody)
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	assert.Equal(t, "QUOTA_EXCEEDED", decodeBody[dto.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/subscription/upgrade", token, `{"method":"bitcoin"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PAYMENT_METHOD", decodeBody[dto.ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/subscription/upgrade", token, `{"paymentMethod":"pix"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := decodeBody[dto.SubscriptionResponse](t, rec)
	assert.Equal(t, model.PlanPro, sub.Plan)
	assert.True(t, sub.Active)
	require.NotNil(t, sub.SubscriptionExpires)
	assert.True(t, sub.SubscriptionExpires.After(now))
	assert.True(t, sub.Usage.Unlimited)

	rec = env.do(t, http.MethodPost, "/documento/gerar", token, residenceBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/subscription/cancel", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PlanFree, decodeBody[dto.SubscriptionResponse](t, rec).Plan)

	rec = env.do(t, http.MethodPost, "/documento/gerar", token, residenceBody)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestAPI_StatusTransitions(t *testing.T) {
	env := newAPIEnv(t)
	owner := env.signIn(t, "01OWNER", model.RoleUser)
	other := env.signIn(t, "01OTHER", model.RoleUser)
	admin := env.signIn(t, "01ADMIN", model.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/documento/gerar", owner, residenceBody, "Accept", "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[dto.DocumentResponse](t, rec).ID
	statusPath := "/documento/" + id + "/status"

	tests := []struct {
		name       string
		method     string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"owner signs", http.MethodPatch, owner, `{"status":"signed"}`, http.StatusOK, ""},
		{"same status again", http.MethodPatch, owner, `{"status":"signed"}`, http.StatusConflict, "STATUS_UNCHANGED"},
		{"back to generated", http.MethodPut, owner, `{"status":"generated"}`, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"unknown status", http.MethodPut, owner, `{"status":"deleted"}`, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"other user", http.MethodPatch, other, `{"status":"archived"}`, http.StatusForbidden, "FORBIDDEN"},
		{"admin archives", http.MethodPut, admin, `{"status":"archived"}`, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, statusPath, tt.token, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeBody[dto.ErrorResponse](t, rec).Code)
			}
		})
	}

	rec = env.do(t, http.MethodPatch, "/documento/01MISSING/status", owner, `{"status":"signed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/documento/"+id, owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "archived", decodeBody[dto.DocumentResponse](t, rec).Status)
	assert.Equal(t, 2, env.store.StatusWrites)

	rec = env.do(t, http.MethodGet, "/documento/historico?status=archived", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[dto.DocumentListResponse](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/documento/historico?status=signed", owner, "")
	assert.Equal(t, 0, decodeBody[dto.DocumentListResponse](t, rec).Total)
}

func TestAPI_Dashboard(t *testing.T) {
	env := newAPIEnv(t)
	user := env.signIn(t, "01USER", model.RoleUser)
	admin := env.signIn(t, "01ADMIN", model.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/documento/gerar", user, residenceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/documento/dashboard/01user@example.com", user, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decodeBody[dto.DashboardResponse](t, rec)
	assert.Equal(t, 1, dash.TotalDocuments)
	assert.Equal(t, 1, dash.StatusCounts["generated"])
	assert.Equal(t, 1, dash.Usage.MonthlyCount)
	require.NotNil(t, dash.Usage.Remaining)
	assert.Equal(t, quota.DefaultFreeLimit-1, *dash.Usage.Remaining)
	assert.Len(t, dash.Recent, 1)

	rec = env.do(t, http.MethodGet, "/documento/dashboard/01admin@example.com", user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/documento/dashboard/not-an-email", user, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/documento/dashboard/01user@example.com", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Admin(t *testing.T) {
	env := newAPIEnv(t)
	user := env.signIn(t, "01USER", model.RoleUser)
	admin := env.signIn(t, "01ADMIN", model.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/documento/gerar", user, residenceBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, path := range []string{"/api/admin/stats", "/api/admin/users", "/api/admin/documents", "/metrics"} {
		rec := env.do(t, http.MethodGet, path, user, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec = env.do(t, http.MethodGet, "/api/admin/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[dto.StatsResponse](t, rec)
	assert.Equal(t, dto.StatsResponse{TotalUsers: 2, TotalDocs: 1, ProUsers: 0, FreeUsers: 2}, stats)

	rec = env.do(t, http.MethodGet, "/api/admin/users", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody[dto.AdminUserListResponse](t, rec)
	assert.Equal(t, 2, users.Total)

	rec = env.do(t, http.MethodGet, "/api/admin/documents?type=declaracao_residencia", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[dto.DocumentListResponse](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/metrics", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `autodoc_documents_generated_total{type="declaracao_residencia"} 1`)
}

func TestAPI_Profile(t *testing.T) {
	env := newAPIEnv(t)
	token := env.signIn(t, "01USER", model.RoleUser)

	rec := env.do(t, http.MethodPatch, "/api/profile", token, `{"fullName":"Maria Souza"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Maria Souza", decodeBody[dto.UserResponse](t, rec).FullName)

	rec = env.do(t, http.MethodGet, "/api/profile", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maria Souza", decodeBody[dto.UserResponse](t, rec).FullName)

	rec = env.do(t, http.MethodPatch, "/api/profile", token, `{"full_name":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
