package app

import (
	"math"
	"strconv"
	"strings"

	"homefinder/internal/domain"
)

/********** alias registries (single source of truth) **********/

var poiAliases = map[string][]string{
	"lat":    {"latitude", "lat", "location.lat", "location.latitude"},
	"lon":    {"longitude", "lon", "lng", "location.lon", "location.lng", "location.longitude"},
	"weight": {"weight", "importance"},
}

var propertyAliases = map[string][]string{
	"id":          {"id", "propertyId", "property_id"},
	"house_name":  {"houseName", "house_name", "name", "title"},
	"address":     {"address", "address_raw", "location.address"},
	"price":       {"price", "rent", "monthlyRent"},
	"rooms":       {"rooms", "bedrooms"},
	"washrooms":   {"washrooms", "bathrooms"},
	"square_feet": {"squareFeet", "square_feet", "area"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstNumber: first path holding a JSON number. Strings are not coerced.
func firstNumber(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	if f := firstNumber(m, paths...); f != nil {
		return f
	}
	for _, k := range paths {
		if s, ok := lookupAny(m, k).(string); ok {
			s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstString(m map[string]any, paths ...string) string {
	for _, k := range paths {
		if s, ok := lookupAny(m, k).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func finite(f *float64) bool {
	return f != nil && !math.IsInf(*f, 0) && !math.IsNaN(*f)
}

/********** POI mapper **********/

// MapPOIs converts loosely typed POI objects, one output per input so positions still match
// a parallel weights list. Entries whose coordinates are not finite JSON numbers get NaN
// coordinates and are dropped later by ValidPOIs; a non-numeric weight is ignored.
func MapPOIs(in []map[string]any) []domain.PointOfInterest {
	out := make([]domain.PointOfInterest, 0, len(in))
	for _, raw := range in {
		p := domain.PointOfInterest{Latitude: math.NaN(), Longitude: math.NaN()}
		lat := firstNumber(raw, poiAliases["lat"]...)
		lon := firstNumber(raw, poiAliases["lon"]...)
		if finite(lat) && finite(lon) {
			p.Latitude, p.Longitude = *lat, *lon
		}
		if w := firstNumber(raw, poiAliases["weight"]...); finite(w) {
			p.Weight = w
		}
		out = append(out, p)
	}
	return out
}

/********** property mapper **********/

// MapProperty reads a seed record. Coordinates stay nil when absent or unparsable.
func MapProperty(p map[string]any) domain.Property {
	var out domain.Property
	if v := getFloatFlexible(p, propertyAliases["id"]...); v != nil {
		out.ID = int64(*v)
	}
	out.HouseName = firstString(p, propertyAliases["house_name"]...)
	out.Address = firstString(p, propertyAliases["address"]...)
	if v := getFloatFlexible(p, propertyAliases["price"]...); v != nil {
		out.Price = *v
	}
	if v := getFloatFlexible(p, propertyAliases["rooms"]...); v != nil {
		out.Rooms = int(*v)
	}
	if v := getFloatFlexible(p, propertyAliases["washrooms"]...); v != nil {
		out.Washrooms = int(*v)
	}
	if v := getFloatFlexible(p, propertyAliases["square_feet"]...); v != nil {
		out.SquareFeet = int(*v)
	}
	lat := getFloatFlexible(p, poiAliases["lat"]...)
	lon := getFloatFlexible(p, poiAliases["lon"]...)
	if finite(lat) && finite(lon) {
		out.Lat, out.Lon = lat, lon
	}
	return out
}
