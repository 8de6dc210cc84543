package domain

import "time"

// Property is a stored rental listing.
type Property struct {
	ID         int64
	HouseName  string
	Address    string
	Price      float64
	Rooms      int
	Washrooms  int
	SquareFeet int
	Lat, Lon   *float64
	CreatedAt  time.Time
}

// Candidate projects a listing for scoring. ok is false when coordinates are missing or invalid.
func (p Property) Candidate() (PropertyCandidate, bool) {
	c := PropertyCandidate{
		ID:        p.ID,
		HouseName: p.HouseName,
		Address:   p.Address,
		Price:     p.Price,
		Rooms:     p.Rooms,
	}
	if p.Lat == nil || p.Lon == nil {
		return c, false
	}
	c.Latitude, c.Longitude = *p.Lat, *p.Lon
	return c, c.Coordinate().Valid()
}

// PropertyCandidate is the read-only projection the selection engine works on.
type PropertyCandidate struct {
	ID        int64   `json:"id"`
	HouseName string  `json:"houseName"`
	Address   string  `json:"address"`
	Price     float64 `json:"price"`
	Rooms     int     `json:"rooms"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c PropertyCandidate) Coordinate() Coordinate {
	return Coordinate{Lat: c.Latitude, Lon: c.Longitude}
}

// CandidateFilter narrows the candidate query. Nil fields are not applied.
type CandidateFilter struct {
	MinPrice *float64
	MaxPrice *float64
	Rooms    *int
	Limit    int
}
