package model

type PdfStatus string

const (
	PdfPending  PdfStatus = "pending"
	PdfApproved PdfStatus = "approved"
	PdfRejected PdfStatus = "rejected"
)

func (s PdfStatus) Valid() bool {
	switch s {
	case PdfPending, PdfApproved, PdfRejected:
		return true
	}
	return false
}

// PdfFile is an uploaded study document. Path is the object key in the
// configured storage bucket.
// swagger:model
type PdfFile struct {
	UUIDBase
	Name        string    `gorm:"size:255;not null" json:"name"`
	Path        string    `gorm:"size:512;not null" json:"path"`
	Course      string    `gorm:"size:128;index" json:"course"`
	Level       string    `gorm:"size:32;index" json:"level"`
	Status      PdfStatus `gorm:"size:16;index;default:pending" json:"status"`
	UserID      string    `gorm:"size:64;index;not null" json:"userId"`
	Description string    `gorm:"type:text" json:"description"`
	Tags        []string  `gorm:"serializer:json" json:"tags"`
	Size        int64     `json:"size"`
}

func (PdfFile) TableName() string {
	return "pdf_files"
}

// FavoritePdf marks a document as a favorite of a user.
type FavoritePdf struct {
	BaseModel
	PdfID  string `gorm:"size:36;not null;uniqueIndex:idx_favorite_pdf_user" json:"pdfId"`
	UserID string `gorm:"size:64;not null;uniqueIndex:idx_favorite_pdf_user;index" json:"userId"`
}

func (FavoritePdf) TableName() string {
	return "favorite_pdfs"
}

// AdminUser grants the approval workflow to a user id.
type AdminUser struct {
	BaseModel
	UserID string `gorm:"size:64;uniqueIndex;not null" json:"userId"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// ExtractedText archives the text pulled from a document for a quiz. It is
// an audit record; quiz preparation never reads it back.
type ExtractedText struct {
	BaseModel
	PdfID       string `gorm:"size:36;index;not null" json:"pdfId"`
	Title       string `gorm:"size:255" json:"title"`
	TextContent string `gorm:"type:text" json:"textContent"`
	PageCount   int    `json:"pageCount"`
	Engine      string `gorm:"size:32" json:"engine"`
}

func (ExtractedText) TableName() string {
	return "documents"
}
