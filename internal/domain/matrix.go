package domain

import (
	"encoding/json"
	"math"
)

// Matrix holds distances (meters) and durations (seconds) indexed [origin][destination].
// Unroutable cells are +Inf.
type Matrix struct {
	Distances [][]float64
	Durations [][]float64
}

// Rows returns the number of origins.
func (m Matrix) Rows() int { return len(m.Distances) }

// Cols returns the number of destinations.
func (m Matrix) Cols() int {
	if len(m.Distances) == 0 {
		return 0
	}
	return len(m.Distances[0])
}

type matrixJSON struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// MarshalJSON writes non-finite cells as null; encoding/json rejects Inf.
func (m Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(matrixJSON{Distances: toNullable(m.Distances), Durations: toNullable(m.Durations)})
}

func (m *Matrix) UnmarshalJSON(b []byte) error {
	var raw matrixJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Distances = FromNullable(raw.Distances)
	m.Durations = FromNullable(raw.Durations)
	return nil
}

func toNullable(in [][]float64) [][]*float64 {
	if in == nil {
		return nil
	}
	out := make([][]*float64, len(in))
	for i, row := range in {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			v := v
			out[i][j] = &v
		}
	}
	return out
}

// FromNullable maps null cells to +Inf.
func FromNullable(in [][]*float64) [][]float64 {
	if in == nil {
		return nil
	}
	out := make([][]float64, len(in))
	for i, row := range in {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.Inf(1)
				continue
			}
			out[i][j] = *v
		}
	}
	return out
}
