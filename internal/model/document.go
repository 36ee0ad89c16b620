// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// DocumentStatus is the lifecycle marker of a generated document.
type DocumentStatus string

const (
	StatusGenerated DocumentStatus = "generated"
	StatusSigned    DocumentStatus = "signed"
	StatusArchived  DocumentStatus = "archived"
	StatusCanceled  DocumentStatus = "canceled"
)

// DocumentStatuses lists every valid status in display order.
var DocumentStatuses = []DocumentStatus{StatusGenerated, StatusSigned, StatusArchived, StatusCanceled}

// IsValid checks if the status is one of the four known values.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusGenerated, StatusSigned, StatusArchived, StatusCanceled:
		return true
	}
	return false
}

// Label returns the Portuguese label shown to users.
func (s DocumentStatus) Label() string {
	switch s {
	case StatusSigned:
		return "Assinado"
	case StatusArchived:
		return "Arquivado"
	case StatusCanceled:
		return "Cancelado"
	default:
		return "Gerado"
	}
}

// ParseDocumentStatus parses a status case-insensitively.
func ParseDocumentStatus(s string) (DocumentStatus, bool) {
	status := DocumentStatus(strings.ToLower(strings.TrimSpace(s)))
	return status, status.IsValid()
}

// CanTransition reports whether a document may move from one status to another.
// Every document starts as generated and can be moved to signed, archived or
// canceled in any order; nothing moves back to generated and a status is never
// set to itself.
func CanTransition(from, to DocumentStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if to == StatusGenerated || from == to {
		return false
	}
	return true
}

// Document is a generated legal/administrative document.
// The rendered HTML is immutable once created; only Status changes.
type Document struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	FormData       map[string]string `json:"form_data"`
	HTMLContent    string            `json:"-"`
	ArtifactPath   string            `json:"artifact_path"`
	Status         DocumentStatus    `json:"status"`
	CreatorName    string            `json:"creator_name"`
	CreatedBy      string            `json:"created_by"`
	CreatedByEmail string            `json:"created_by_email"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ArtifactExtension is the extension of downloadable artifacts.
const ArtifactExtension = ".html"

// ArtifactPathFor returns the download path of a document.
func ArtifactPathFor(id string) string {
	return id + ArtifactExtension
}

// DocumentIDFromArtifactPath extracts the document ID from a download path.
func DocumentIDFromArtifactPath(path string) (string, bool) {
	if !strings.HasSuffix(path, ArtifactExtension) {
		return "", false
	}
	id := strings.TrimSuffix(path, ArtifactExtension)
	if id == "" || strings.ContainsAny(id, "/\\.") {
		return "", false
	}
	return id, true
}

// OwnedBy returns true if the document was created by the given user.
func (d *Document) OwnedBy(userID string) bool {
	return d.CreatedBy == userID
}
