package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DayFormat is the day-granularity layout used by the download counter.
const DayFormat = "2006-01-02"

// ContentType enumerates the kinds of catalog items the portal serves.
type ContentType string

const (
	TypeApp   ContentType = "App"
	TypeFile  ContentType = "File"
	TypeImage ContentType = "Image"
	TypeVideo ContentType = "Video"
	TypePDF   ContentType = "PDF"
	TypeText  ContentType = "Text"
	TypeZip   ContentType = "Zip"
	TypeOther ContentType = "Other"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{TypeApp, TypeFile, TypeImage, TypeVideo, TypePDF, TypeText, TypeZip, TypeOther}

// ValidContentType reports whether t is one of the enumerated content types.
func ValidContentType(t ContentType) bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// ContentItem is a catalog record. The download URL points at externally hosted
// storage; the portal itself never stores or transfers files.
//
// Views is the lifetime count of gate passes and never decreases. DayDownloads
// is only meaningful together with LastDownloadDate: an access on a new day
// resets it to 1 along with the date, it is never merely incremented across a
// day boundary.
type ContentItem struct {
	ID               string      `gorm:"primaryKey;size:36" json:"id"`
	Title            string      `gorm:"size:255;not null" json:"title"`
	Description      string      `gorm:"type:text" json:"description"`
	Category         string      `gorm:"size:64" json:"category"`
	Type             ContentType `gorm:"size:16;not null;default:'Other'" json:"type"`
	ThumbnailURL     string      `gorm:"size:512" json:"thumbnail_url"`
	DownloadURL      string      `gorm:"size:512" json:"download_url"`
	Size             string      `gorm:"size:32" json:"size,omitempty"`
	Version          string      `gorm:"size:32" json:"version,omitempty"`
	Views            int64       `gorm:"not null;default:0" json:"views"`
	UploadDate       time.Time   `gorm:"index;not null" json:"upload_date"`
	IsVisible        bool        `gorm:"not null;default:true" json:"is_visible"`
	LastDownloadDate string      `gorm:"size:10" json:"last_download_date,omitempty"`
	DayDownloads     int64       `gorm:"not null;default:0" json:"day_downloads"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// BeforeCreate assigns the opaque identity and seeds counter defaults.
func (c *ContentItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	if c.UploadDate.IsZero() {
		c.UploadDate = now
	}
	if c.LastDownloadDate == "" {
		c.LastDownloadDate = now.Format(DayFormat)
	}
	return nil
}
