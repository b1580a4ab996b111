package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estate_admin/logging"
	"estate_admin/models"
	"estate_admin/storage"
)

// Publisher receives an event after every successful listing mutation.
type Publisher interface {
	Publish(event models.ListingEvent)
}

// WriteExpecter is an optional Publisher extension. Expect is called with
// the exact value about to be stored, before the write reaches the substrate.
type WriteExpecter interface {
	Expect(value string)
}

// ListingService handles the listing collection: CRUD, search, and seeding.
// Every call re-reads the full collection and mutations write it back, so
// two writers racing on the same substrate clobber each other.
type ListingService struct {
	kv        storage.KV
	publisher Publisher
	samples   []models.PropertyInput
	now       func() time.Time
}

// NewListingService creates a ListingService seeded with the built-in
// sample listings.
func NewListingService(kv storage.KV) *ListingService {
	return &ListingService{
		kv:      kv,
		samples: DefaultSampleListings(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher registers where mutation events go.
func (s *ListingService) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetSampleData replaces the listings used by InitializeSampleData.
func (s *ListingService) SetSampleData(samples []models.PropertyInput) {
	s.samples = samples
}

func (s *ListingService) ListProperties(ctx context.Context) ([]models.Property, error) {
	return loadCollection[models.Property](ctx, s.kv, PropertiesKey)
}

// ReplaceProperties overwrites the whole collection. Last write wins.
func (s *ListingService) ReplaceProperties(ctx context.Context, props []models.Property) error {
	raw, err := s.saveProperties(ctx, props)
	if err != nil {
		return err
	}
	s.publish(models.ListingEventReplaced, "", raw)
	return nil
}

// CreateProperty stores a new listing. Content is not validated here; see
// models.PropertyInput.Validate.
func (s *ListingService) CreateProperty(ctx context.Context, in models.PropertyInput) (*models.Property, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	p := newProperty(in, s.now())
	props = append(props, p)
	raw, err := s.saveProperties(ctx, props)
	if err != nil {
		return nil, err
	}

	s.publish(models.ListingEventCreated, p.ID, raw)
	return &p, nil
}

// UpdateProperty merges patch over the stored listing and bumps UpdatedAt.
func (s *ListingService) UpdateProperty(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOfProperty(props, id)
	if idx < 0 {
		return nil, fmt.Errorf("update %s: %w", id, ErrListingNotFound)
	}

	p := props[idx]
	patch.Apply(&p)
	p.UpdatedAt = s.nextUpdatedAt(p.UpdatedAt)
	props[idx] = p

	raw, err := s.saveProperties(ctx, props)
	if err != nil {
		return nil, err
	}

	s.publish(models.ListingEventUpdated, id, raw)
	return &p, nil
}

// DeleteProperty removes the listing. Unknown ids are ignored.
func (s *ListingService) DeleteProperty(ctx context.Context, id string) error {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return err
	}

	idx := indexOfProperty(props, id)
	if idx < 0 {
		return nil
	}

	props = append(props[:idx], props[idx+1:]...)
	raw, err := s.saveProperties(ctx, props)
	if err != nil {
		return err
	}

	s.publish(models.ListingEventDeleted, id, raw)
	return nil
}

// GetProperty returns nil, nil when no listing has that id.
func (s *ListingService) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOfProperty(props, id)
	if idx < 0 {
		return nil, nil
	}
	return &props[idx], nil
}

// SearchProperties returns the listings matching every supplied criterion,
// in stored order.
func (s *ListingService) SearchProperties(ctx context.Context, criteria models.SearchCriteria) ([]models.Property, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	if criteria.IsEmpty() {
		return props, nil
	}

	matched := make([]models.Property, 0, len(props))
	for i := range props {
		if criteria.Matches(&props[i]) {
			matched = append(matched, props[i])
		}
	}
	return matched, nil
}

// InitializeSampleData seeds an empty catalog and reports how many listings
// were inserted. It does nothing once any listing exists.
func (s *ListingService) InitializeSampleData(ctx context.Context) (int, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return 0, err
	}
	if len(props) > 0 || len(s.samples) == 0 {
		return 0, nil
	}

	now := s.now()
	for _, in := range s.samples {
		props = append(props, newProperty(in, now))
	}
	raw, err := s.saveProperties(ctx, props)
	if err != nil {
		return 0, err
	}

	logging.Infof("Seeded %d sample listings", len(props))
	s.publish(models.ListingEventSeeded, "", raw)
	return len(props), nil
}

// Stats computes the admin dashboard figures.
func (s *ListingService) Stats(ctx context.Context) (*models.ListingStats, error) {
	props, err := s.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.ListingStats{
		Total:  len(props),
		ByType: make(map[models.PropertyType]int, len(models.PropertyTypes)),
	}
	for _, t := range models.PropertyTypes {
		stats.ByType[t] = 0
	}

	for _, p := range props {
		switch p.Operation {
		case models.OperationSale:
			stats.ForSale++
			stats.TotalSaleValue += p.Price
		case models.OperationRental:
			stats.ForRent++
		}
		stats.ByType[p.Type]++
	}
	return stats, nil
}

// nextUpdatedAt keeps UpdatedAt strictly increasing even when the clock has
// not moved since the previous write.
func (s *ListingService) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// saveProperties writes the collection and returns the stored value. A
// publisher that implements WriteExpecter hears about the value first.
func (s *ListingService) saveProperties(ctx context.Context, props []models.Property) (string, error) {
	raw, err := encodeCollection(PropertiesKey, props)
	if err != nil {
		return "", err
	}
	if e, ok := s.publisher.(WriteExpecter); ok {
		e.Expect(raw)
	}
	if err := s.kv.Set(ctx, PropertiesKey, raw); err != nil {
		return "", fmt.Errorf("write %s: %w", PropertiesKey, err)
	}
	return raw, nil
}

func (s *ListingService) publish(kind models.ListingEventKind, id, state string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(models.ListingEvent{Kind: kind, ID: id, Timestamp: s.now(), State: state})
}

func newProperty(in models.PropertyInput, now time.Time) models.Property {
	return models.Property{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Type:        in.Type,
		Operation:   in.Operation,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Area:        in.Area,
		Location:    in.Location,
		Images:      copyStrings(in.Images),
		Features:    copyStrings(in.Features),
		Contact:     in.Contact,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func indexOfProperty(props []models.Property, id string) int {
	for i := range props {
		if props[i].ID == id {
			return i
		}
	}
	return -1
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
