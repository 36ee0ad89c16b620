package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/quota"
	"github.com/autodoc/autodoc/internal/render"
	"github.com/autodoc/autodoc/internal/service/servicetest"
)

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (r *stubRenderer) Render(ctx context.Context, req render.Request) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.html, nil
}

type docFixture struct {
	svc      *DocumentService
	store    *servicetest.Store
	cache    *servicetest.Cache
	recorder *metrics.InMemoryRecorder
	now      time.Time
	owner    *model.Session
}

func newDocFixture(t *testing.T, renderer render.Renderer) *docFixture {
	t.Helper()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	f := &docFixture{
		store:    servicetest.NewStore(),
		cache:    servicetest.NewCache(),
		recorder: metrics.NewInMemory(),
		now:      time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC),
	}
	if renderer == nil {
		renderer = render.NewTemplateRenderer()
	}
	f.svc = NewDocumentService(f.store, f.store, f.cache, renderer, DocumentConfig{
		Gate:     quota.NewGate(quota.DefaultFreeLimit),
		Location: loc,
	}, f.recorder, nil)
	f.svc.now = func() time.Time { return f.now }

	owner := &model.User{ID: "01OWNER", FullName: "Maria Silva", Email: "maria@example.com", Role: model.RoleUser, Plan: model.PlanFree}
	f.store.PutUser(owner)
	f.owner = &model.Session{UserID: owner.ID, Email: owner.Email, FullName: owner.FullName, Role: owner.Role, Plan: model.PlanFree}
	return f
}

func residenceInput() GenerateInput {
	return GenerateInput{
		Type: model.TypeDeclaracaoResidencia,
		FormData: map[string]string{
			"nome_completo":     "Maria Silva",
			"cpf":               "12345678901",
			"endereco_completo": "Rua das Flores, 100 - São Paulo/SP",
			"tempo_residencia":  "2 anos",
		},
	}
}

func (f *docFixture) putDocument(t *testing.T, id, owner string, status model.DocumentStatus, created time.Time) {
	t.Helper()
	f.store.PutDocument(&model.Document{
		ID:          id,
		Type:        model.TypeReciboPagamento,
		Title:       "Recibo " + id,
		FormData:    map[string]string{},
		HTMLContent: "<p>" + id + "</p>",
		Status:      status,
		CreatorName: "Maria Silva",
		CreatedBy:   owner,
		CreatedAt:   created,
		UpdatedAt:   created,
	})
}

func TestGenerate_DeclaracaoResidencia(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, nil)

	doc, err := f.svc.Generate(context.Background(), f.owner, residenceInput())
	require.NoError(t, err)

	assert.Equal(t, model.StatusGenerated, doc.Status)
	assert.Equal(t, "Declaração de Residência - Maria Silva", doc.Title)
	assert.Equal(t, "Maria Silva", doc.CreatorName)
	assert.Equal(t, f.owner.UserID, doc.CreatedBy)
	assert.Equal(t, doc.ID+".html", doc.ArtifactPath)
	assert.Equal(t, "123.456.789-01", doc.FormData["cpf"], "form data is stored normalized")
	assert.Contains(t, doc.HTMLContent, "Maria Silva")
	assert.Contains(t, doc.HTMLContent, "15/03/2026")
	assert.True(t, doc.CreatedAt.Equal(f.now))

	stored, err := f.store.GetDocumentByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.HTMLContent, stored.HTMLContent)

	snap := f.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.DocumentsGenerated[model.TypeDeclaracaoResidencia])
	assert.Equal(t, uint64(1), snap.RenderDurationCount)
}

func TestGenerate_TitleAndCreator(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, &stubRenderer{html: "<html></html>"})

	input := residenceInput()
	input.Title = "  Minha declaração "
	input.CreatorName = "Escritório Central"

	doc, err := f.svc.Generate(context.Background(), f.owner, input)
	require.NoError(t, err)
	assert.Equal(t, "Minha declaração", doc.Title)
	assert.Equal(t, "Escritório Central", doc.CreatorName)
}

func TestDefaultTitle(t *testing.T) {
	t.Parallel()

	cfg, ok := model.LookupDocumentType(model.TypePedidoDemissao)
	require.True(t, ok)

	tests := []struct {
		name    string
		values  map[string]string
		creator string
		want    string
	}{
		{"form name", map[string]string{"funcionario_nome": "Rita"}, "Maria", cfg.Title + " - Rita"},
		{"creator fallback", map[string]string{"cargo": "Analista"}, "Maria", cfg.Title + " - Maria"},
		{"generic fallback", map[string]string{}, "  ", cfg.Title + " - Usuário"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultTitle(cfg, tt.values, tt.creator))
		})
	}
}

func TestGenerate_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("unknown type", func(t *testing.T) {
		f := newDocFixture(t, nil)
		_, err := f.svc.Generate(context.Background(), f.owner, GenerateInput{Type: "contrato_aluguel"})
		assert.ErrorIs(t, err, ErrUnknownDocumentType)
	})

	t.Run("validation", func(t *testing.T) {
		renderer := &stubRenderer{html: "x"}
		f := newDocFixture(t, renderer)

		input := residenceInput()
		input.FormData["nome_completo"] = "   "
		input.FormData["cpf"] = "123"

		_, err := f.svc.Generate(context.Background(), f.owner, input)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, map[string]string{
			"nome_completo": "Este campo é obrigatório.",
			"cpf":           "CPF inválido.",
		}, verr.Fields)
		assert.Zero(t, renderer.calls, "invalid forms are never rendered")
		assert.Zero(t, f.store.DocumentCount())
		assert.Equal(t, uint64(1), f.recorder.Snapshot().GenerationsRejected["validation"])
	})

	t.Run("render failure stores nothing", func(t *testing.T) {
		f := newDocFixture(t, &stubRenderer{err: errors.New("upstream 500")})
		_, err := f.svc.Generate(context.Background(), f.owner, residenceInput())
		assert.ErrorIs(t, err, ErrRenderFailed)
		assert.Zero(t, f.store.DocumentCount())
	})
}

func TestGenerate_FreeQuota(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{html: "<html></html>"}
	f := newDocFixture(t, renderer)
	ctx := context.Background()

	// Created on the last evening of February in São Paulo, which is already March in UTC.
	f.putDocument(t, "01PREV", f.owner.UserID, model.StatusSigned, time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC))

	for i := 0; i < quota.DefaultFreeLimit; i++ {
		_, err := f.svc.Generate(ctx, f.owner, residenceInput())
		require.NoError(t, err, "document %d", i+1)
		f.now = f.now.Add(time.Minute)
	}

	calls := renderer.calls
	_, err := f.svc.Generate(ctx, f.owner, residenceInput())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, calls, renderer.calls, "quota is checked before rendering")
	assert.Equal(t, quota.DefaultFreeLimit+1, f.store.DocumentCount())
	assert.Equal(t, uint64(1), f.recorder.Snapshot().GenerationsRejected["quota"])

	f.now = time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC) // 00:00 in São Paulo
	_, err = f.svc.Generate(ctx, f.owner, residenceInput())
	assert.NoError(t, err, "quota resets with the calendar month")
}

func TestGenerate_QuotaRecheckedOnInsert(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, &stubRenderer{html: "<html></html>"})
	ctx := context.Background()

	// A stale cached count lets the request through the fast path.
	require.NoError(t, f.cache.SetMonthlyCount(ctx, f.owner.UserID, "2026-03", 0))
	for i := 0; i < quota.DefaultFreeLimit; i++ {
		f.putDocument(t, fmt.Sprintf("01DOC%d", i), f.owner.UserID, model.StatusGenerated, f.now.Add(-time.Hour))
	}

	_, err := f.svc.Generate(ctx, f.owner, residenceInput())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, quota.DefaultFreeLimit, f.store.DocumentCount())
}

func TestGenerate_ProIsUnlimited(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, &stubRenderer{html: "<html></html>"})
	f.owner.Plan = model.PlanPro

	for i := 0; i < quota.DefaultFreeLimit+3; i++ {
		_, err := f.svc.Generate(context.Background(), f.owner, residenceInput())
		require.NoError(t, err)
	}
	assert.Equal(t, quota.DefaultFreeLimit+3, f.store.DocumentCount())
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	other := &model.Session{UserID: "01OTHER", Email: "outro@example.com", Role: model.RoleUser}
	admin := &model.Session{UserID: "01ADMIN", Email: "admin@example.com", Role: model.RoleAdmin}

	tests := []struct {
		name    string
		session func(f *docFixture) *model.Session
		from    model.DocumentStatus
		to      string
		wantErr error
		want    model.DocumentStatus
	}{
		{"owner signs", func(f *docFixture) *model.Session { return f.owner }, model.StatusGenerated, "signed", nil, model.StatusSigned},
		{"any order", func(f *docFixture) *model.Session { return f.owner }, model.StatusArchived, "SIGNED", nil, model.StatusSigned},
		{"admin cancels", func(*docFixture) *model.Session { return admin }, model.StatusSigned, "canceled", nil, model.StatusCanceled},
		{"same status", func(f *docFixture) *model.Session { return f.owner }, model.StatusSigned, "signed", ErrStatusUnchanged, model.StatusSigned},
		{"back to generated", func(f *docFixture) *model.Session { return f.owner }, model.StatusSigned, "generated", ErrInvalidTransition, model.StatusSigned},
		{"unknown status", func(f *docFixture) *model.Session { return f.owner }, model.StatusGenerated, "deleted", ErrInvalidTransition, model.StatusGenerated},
		{"other user", func(*docFixture) *model.Session { return other }, model.StatusGenerated, "signed", ErrForbidden, model.StatusGenerated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newDocFixture(t, nil)
			f.putDocument(t, "01DOC", f.owner.UserID, tt.from, f.now)

			doc, err := f.svc.UpdateStatus(ctx, tt.session(f), "01DOC", tt.to)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, f.store.StatusWrites, "rejected changes must not write")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, doc.Status)
				assert.Equal(t, uint64(1), f.recorder.Snapshot().StatusChanges[string(tt.want)])
			}

			stored, err := f.store.GetDocumentByID(ctx, "01DOC")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Status)
		})
	}

	t.Run("missing document", func(t *testing.T) {
		f := newDocFixture(t, nil)
		_, err := f.svc.UpdateStatus(ctx, f.owner, "01NOPE", "signed")
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestGetAndDownload(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, nil)
	ctx := context.Background()
	f.putDocument(t, "01DOC", f.owner.UserID, model.StatusGenerated, f.now)

	doc, err := f.svc.Download(ctx, f.owner, "01DOC.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>01DOC</p>", doc.HTMLContent)

	_, err = f.svc.Download(ctx, f.owner, "../01DOC.html")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = f.svc.Get(ctx, &model.Session{UserID: "01OTHER", Role: model.RoleUser}, "01DOC")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, &model.Session{UserID: "01ADMIN", Role: model.RoleAdmin}, "01DOC")
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, nil)
	ctx := context.Background()

	f.putDocument(t, "01A", f.owner.UserID, model.StatusGenerated, f.now.Add(-2*time.Hour))
	f.putDocument(t, "01B", f.owner.UserID, model.StatusSigned, f.now.Add(-time.Hour))
	f.putDocument(t, "01C", f.owner.UserID, model.StatusSigned, f.now)
	f.putDocument(t, "01X", "01OTHER", model.StatusSigned, f.now)

	docs, err := f.svc.List(ctx, f.owner, listing.Criteria{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"01C", "01B", "01A"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	assert.Empty(t, docs[0].HTMLContent)

	docs, err = f.svc.List(ctx, f.owner, listing.ParseCriteria(url.Values{"status": {"signed"}, "q": {"recibo 01b"}}))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "01B", docs[0].ID)
}

func TestDashboard(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		status := model.StatusGenerated
		if i%2 == 0 {
			status = model.StatusSigned
		}
		f.putDocument(t, fmt.Sprintf("01D%02d", i), f.owner.UserID, status, f.now.Add(-time.Duration(i)*time.Hour))
	}

	dash, err := f.svc.Dashboard(ctx, f.owner, "MARIA@example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, dash.TotalDocuments)
	assert.Equal(t, 4, dash.StatusCounts[model.StatusSigned])
	assert.Equal(t, 3, dash.StatusCounts[model.StatusGenerated])
	assert.Len(t, dash.Recent, RecentDocuments)
	assert.Equal(t, "01D00", dash.Recent[0].ID)
	assert.Equal(t, model.PlanFree, dash.Usage.Plan)
	assert.Equal(t, 7, dash.Usage.MonthlyCount)
	assert.Equal(t, quota.Remaining{Count: 0}, dash.Usage.Remaining)

	_, err = f.svc.Dashboard(ctx, &model.Session{UserID: "01OTHER", Email: "outro@example.com", Role: model.RoleUser}, "maria@example.com")
	assert.ErrorIs(t, err, ErrForbidden)

	admin := &model.Session{UserID: "01ADMIN", Email: "admin@example.com", Role: model.RoleAdmin}
	_, err = f.svc.Dashboard(ctx, admin, "maria@example.com")
	assert.NoError(t, err)
	_, err = f.svc.Dashboard(ctx, admin, "ninguem@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFormat(t *testing.T) {
	t.Parallel()
	f := newDocFixture(t, nil)

	got, err := f.svc.Format(FormatInput{Type: model.TypeContratoPrestacao, Field: "valor", Previous: "1,23", Value: "1,234"})
	require.NoError(t, err)
	assert.Equal(t, "12,34", got)

	got, err = f.svc.Format(FormatInput{Type: model.TypeDeclaracaoResidencia, Field: "cpf", Value: "1234567"})
	require.NoError(t, err)
	assert.Equal(t, "123.456.7", got)

	_, err = f.svc.Format(FormatInput{Type: model.TypeDeclaracaoResidencia, Field: "valor"})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = f.svc.Format(FormatInput{Type: "nope", Field: "cpf"})
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}
