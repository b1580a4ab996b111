package services

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"estate_admin/models"
)

//go:embed sample_listings.yaml
var defaultSampleYAML []byte

type sampleFile struct {
	Listings []models.PropertyInput `yaml:"listings"`
}

// DefaultSampleListings returns the built-in demo catalog.
func DefaultSampleListings() []models.PropertyInput {
	samples, err := ParseSampleListings(defaultSampleYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded sample listings: %v", err))
	}
	return samples
}

// LoadSampleListings reads a YAML file in the same shape as
// sample_listings.yaml.
func LoadSampleListings(path string) ([]models.PropertyInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSampleListings(data)
}

func ParseSampleListings(data []byte) ([]models.PropertyInput, error) {
	var f sampleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sample listings: %w", err)
	}
	for i := range f.Listings {
		if err := f.Listings[i].Validate(); err != nil {
			return nil, fmt.Errorf("sample listing %d: %w", i, err)
		}
	}
	return f.Listings, nil
}
