package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MockLivestreams are sample listings used to populate an empty home feed.
// Their ids are fixed so they can be removed again without touching real rows.
var MockLivestreams = []Livestream{
	{
		ID:              uuid.MustParse("7d1b3c1e-4a51-4c55-9a0e-0f5d1f6c0a01"),
		Name:            "Ranked grind until diamond",
		Categories:      pq.StringArray{"Gaming"},
		UserID:          "mock_pixelpaula",
		ProfileImageURL: "https://randomuser.me/api/portraits/women/44.jpg",
		CreatorName:     "pixelpaula",
	},
	{
		ID:              uuid.MustParse("7d1b3c1e-4a51-4c55-9a0e-0f5d1f6c0a02"),
		Name:            "Late night lo-fi set",
		Categories:      pq.StringArray{"Music"},
		UserID:          "mock_djmarco",
		ProfileImageURL: "https://randomuser.me/api/portraits/men/32.jpg",
		CreatorName:     "djmarco",
	},
	{
		ID:              uuid.MustParse("7d1b3c1e-4a51-4c55-9a0e-0f5d1f6c0a03"),
		Name:            "Building a Go service from scratch",
		Categories:      pq.StringArray{"Technology", "Education"},
		UserID:          "mock_gopherjen",
		ProfileImageURL: "https://randomuser.me/api/portraits/women/68.jpg",
		CreatorName:     "gopherjen",
	},
	{
		ID:              uuid.MustParse("7d1b3c1e-4a51-4c55-9a0e-0f5d1f6c0a04"),
		Name:            "Digital painting: city at dusk",
		Categories:      pq.StringArray{"Art"},
		UserID:          "mock_inkwell",
		ProfileImageURL: "https://randomuser.me/api/portraits/men/75.jpg",
		CreatorName:     "inkwell",
	},
	{
		ID:              uuid.MustParse("7d1b3c1e-4a51-4c55-9a0e-0f5d1f6c0a05"),
		Name:            "Morning mobility and HIIT",
		Categories:      pq.StringArray{"Sports"},
		UserID:          "mock_coachrae",
		ProfileImageURL: "https://randomuser.me/api/portraits/women/12.jpg",
		CreatorName:     "coachrae",
	},
}

// MockLivestreamIDs returns the fixed ids of MockLivestreams
func MockLivestreamIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(MockLivestreams))
	for _, livestream := range MockLivestreams {
		ids = append(ids, livestream.ID)
	}
	return ids
}

// IsMockLivestream reports whether id belongs to the sample catalog
func IsMockLivestream(id uuid.UUID) bool {
	for _, mockID := range MockLivestreamIDs() {
		if mockID == id {
			return true
		}
	}
	return false
}
