package models

import "time"

// MirrorListing is the flattened row pushed to the remote listings table.
type MirrorListing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	PropertyType string    `json:"property_type"`
	Operation    string    `json:"operation"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	Area         float64   `json:"area"`
	Location     string    `json:"location"`
	CoverImage   string    `json:"cover_image"`
	Images       []string  `json:"images"`
	Features     []string  `json:"features"`
	WhatsApp     string    `json:"whatsapp"`
	Telegram     string    `json:"telegram"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

func BuildMirrorListing(p *Property, syncedAt time.Time) MirrorListing {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return MirrorListing{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		PropertyType: string(p.Type),
		Operation:    string(p.Operation),
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		Location:     p.Location,
		CoverImage:   p.CoverImage(),
		Images:       images,
		Features:     features,
		WhatsApp:     p.Contact.WhatsApp,
		Telegram:     p.Contact.Telegram,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		LastSyncedAt: syncedAt,
	}
}
