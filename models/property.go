package models

import (
	"time"
)

type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeResidence PropertyType = "residence"
)

var PropertyTypes = []PropertyType{PropertyTypeHouse, PropertyTypeApartment, PropertyTypeResidence}

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeHouse, PropertyTypeApartment, PropertyTypeResidence:
		return true
	}
	return false
}

type Operation string

const (
	OperationSale   Operation = "sale"
	OperationRental Operation = "rental"
)

var Operations = []Operation{OperationSale, OperationRental}

func (o Operation) Valid() bool {
	return o == OperationSale || o == OperationRental
}

// Contact holds the messaging handles shown on a listing. Neither is
// format-checked.
type Contact struct {
	WhatsApp string `json:"whatsapp" yaml:"whatsapp"`
	Telegram string `json:"telegram" yaml:"telegram"`
}

// Property is a single listing as persisted in the listings collection.
type Property struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Type        PropertyType `json:"type"`
	Operation   Operation    `json:"operation"`
	Bedrooms    int          `json:"bedrooms"`
	Bathrooms   int          `json:"bathrooms"`
	Area        float64      `json:"area"` // square meters
	Location    string       `json:"location"`
	Images      []string     `json:"images"` // first one is the cover
	Features    []string     `json:"features"`
	Contact     Contact      `json:"contact"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CoverImage returns the first image URL, or "" when the listing has none.
func (p *Property) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// PropertyInput is everything a caller supplies when creating a listing;
// the id and timestamps are assigned by the store.
type PropertyInput struct {
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Price       float64      `json:"price" yaml:"price"`
	Type        PropertyType `json:"type" yaml:"type"`
	Operation   Operation    `json:"operation" yaml:"operation"`
	Bedrooms    int          `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms   int          `json:"bathrooms" yaml:"bathrooms"`
	Area        float64      `json:"area" yaml:"area"`
	Location    string       `json:"location" yaml:"location"`
	Images      []string     `json:"images" yaml:"images"`
	Features    []string     `json:"features" yaml:"features"`
	Contact     Contact      `json:"contact" yaml:"contact"`
}

// PropertyPatch is a partial update. Nil fields are left untouched.
type PropertyPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Type        *PropertyType `json:"type,omitempty"`
	Operation   *Operation    `json:"operation,omitempty"`
	Bedrooms    *int          `json:"bedrooms,omitempty"`
	Bathrooms   *int          `json:"bathrooms,omitempty"`
	Area        *float64      `json:"area,omitempty"`
	Location    *string       `json:"location,omitempty"`
	Images      *[]string     `json:"images,omitempty"`
	Features    *[]string     `json:"features,omitempty"`
	Contact     *Contact      `json:"contact,omitempty"`
}

// Apply merges the patch over p in place.
func (patch *PropertyPatch) Apply(p *Property) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Operation != nil {
		p.Operation = *patch.Operation
	}
	if patch.Bedrooms != nil {
		p.Bedrooms = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		p.Bathrooms = *patch.Bathrooms
	}
	if patch.Area != nil {
		p.Area = *patch.Area
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Images != nil {
		p.Images = append([]string(nil), (*patch.Images)...)
	}
	if patch.Features != nil {
		p.Features = append([]string(nil), (*patch.Features)...)
	}
	if patch.Contact != nil {
		p.Contact = *patch.Contact
	}
}

// PatchFromInput builds a patch that overwrites every editable field, the
// way the admin edit form submits a listing.
func PatchFromInput(in PropertyInput) PropertyPatch {
	images := append([]string(nil), in.Images...)
	features := append([]string(nil), in.Features...)
	return PropertyPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Price:       &in.Price,
		Type:        &in.Type,
		Operation:   &in.Operation,
		Bedrooms:    &in.Bedrooms,
		Bathrooms:   &in.Bathrooms,
		Area:        &in.Area,
		Location:    &in.Location,
		Images:      &images,
		Features:    &features,
		Contact:     &in.Contact,
	}
}
