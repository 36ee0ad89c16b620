package dto

import (
	"encoding/json"
	"time"

	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
	"github.com/autodoc/autodoc/internal/service"
)

// GenerateRequest represents the request body for POST /documento/gerar.
type GenerateRequest struct {
	Type        string   `json:"type"`
	Title       string   `json:"title,omitempty"`
	FormData    FormData `json:"form_data"`
	CreatorName string   `json:"creator_name,omitempty"`
}

var generateAliases = map[string]string{
	"formData":     "form_data",
	"creatorName":  "creator_name",
	"documentType": "type",
	"tipo":         "type",
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *GenerateRequest) UnmarshalJSON(data []byte) error {
	type plain GenerateRequest
	data, err := normalizeKeys(data, generateAliases)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// FormatRequest represents one keystroke sent to POST /documento/formatar.
type FormatRequest struct {
	Type     string `json:"type"`
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Value    string `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *FormatRequest) UnmarshalJSON(data []byte) error {
	type plain FormatRequest
	data, err := normalizeKeys(data, map[string]string{"documentType": "type", "previousValue": "previous"})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// FormatResponse is the masked value of a field.
type FormatResponse struct {
	Value string `json:"value"`
}

// StatusRequest represents the request body for a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// DocumentResponse represents a document in API responses.
// The rendered HTML is only served by the download endpoint.
type DocumentResponse struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	TypeTitle      string            `json:"type_title,omitempty"`
	Title          string            `json:"title"`
	FormData       map[string]string `json:"form_data"`
	ArtifactPath   string            `json:"artifact_path"`
	Status         string            `json:"status"`
	StatusLabel    string            `json:"status_label"`
	CreatorName    string            `json:"creator_name"`
	CreatedBy      string            `json:"created_by"`
	CreatedByEmail string            `json:"created_by_email,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// DocumentListResponse represents a filtered document list.
type DocumentListResponse struct {
	Data  []DocumentResponse `json:"data"`
	Total int                `json:"total"`
}

// DocumentTypeListResponse is the template catalog.
type DocumentTypeListResponse struct {
	Data []model.DocumentTypeConfig `json:"data"`
}

// DashboardResponse summarizes a user's account.
type DashboardResponse struct {
	User           *UserResponse      `json:"user"`
	Usage          *UsageResponse     `json:"usage"`
	StatusCounts   map[string]int     `json:"status_counts"`
	TotalDocuments int                `json:"total_documents"`
	Recent         []DocumentResponse `json:"recent"`
}

// StatsResponse holds the admin panel headline numbers.
type StatsResponse struct {
	TotalUsers int `json:"total_users"`
	TotalDocs  int `json:"total_docs"`
	ProUsers   int `json:"pro_users"`
	FreeUsers  int `json:"free_users"`
}

// AdminUserResponse is a user row of the admin panel.
type AdminUserResponse struct {
	UserResponse
	DocumentCount int `json:"document_count"`
}

// AdminUserListResponse lists every account.
type AdminUserListResponse struct {
	Data  []AdminUserResponse `json:"data"`
	Total int                 `json:"total"`
}

// ToDocumentResponse converts a Document model to DocumentResponse DTO.
func ToDocumentResponse(doc *model.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:             doc.ID,
		Type:           doc.Type,
		Title:          doc.Title,
		FormData:       doc.FormData,
		ArtifactPath:   doc.ArtifactPath,
		Status:         string(doc.Status),
		StatusLabel:    doc.Status.Label(),
		CreatorName:    doc.CreatorName,
		CreatedBy:      doc.CreatedBy,
		CreatedByEmail: doc.CreatedByEmail,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	if resp.FormData == nil {
		resp.FormData = map[string]string{}
	}
	if cfg, ok := model.LookupDocumentType(doc.Type); ok {
		resp.TypeTitle = cfg.Title
	}
	return resp
}

// ToDocumentListResponse converts documents to DocumentListResponse.
func ToDocumentListResponse(docs []model.Document) *DocumentListResponse {
	data := make([]DocumentResponse, len(docs))
	for i := range docs {
		data[i] = ToDocumentResponse(&docs[i])
	}
	return &DocumentListResponse{Data: data, Total: len(data)}
}

// ToDashboardResponse converts a service Dashboard to DashboardResponse.
// Every status is present in the counts, zero included.
func ToDashboardResponse(d *service.Dashboard) *DashboardResponse {
	counts := make(map[string]int, len(model.DocumentStatuses))
	for _, status := range model.DocumentStatuses {
		counts[string(status)] = d.StatusCounts[status]
	}
	return &DashboardResponse{
		User:           ToUserResponse(d.User),
		Usage:          ToUsageResponse(d.Usage),
		StatusCounts:   counts,
		TotalDocuments: d.TotalDocuments,
		Recent:         ToDocumentListResponse(d.Recent).Data,
	}
}

// ToStatsResponse converts admin stats to StatsResponse.
func ToStatsResponse(s *service.Stats) *StatsResponse {
	return &StatsResponse{
		TotalUsers: s.TotalUsers,
		TotalDocs:  s.TotalDocuments,
		ProUsers:   s.ProUsers,
		FreeUsers:  s.FreeUsers,
	}
}

// ToAdminUserListResponse converts user summaries to AdminUserListResponse.
func ToAdminUserListResponse(users []repository.UserSummary) *AdminUserListResponse {
	data := make([]AdminUserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, AdminUserResponse{
			UserResponse:  *ToUserResponse(u.User),
			DocumentCount: u.DocumentCount,
		})
	}
	return &AdminUserListResponse{Data: data, Total: len(data)}
}
