package vectorstore

import (
	"encoding/json"
	"fmt"
	"math"

	"gorm.io/datatypes"
)

func encodeVector(vec []float32) (datatypes.JSON, error) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("could not encode embedding: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func decodeVector(raw datatypes.JSON) ([]float32, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, fmt.Errorf("could not decode embedding: %w", err)
	}
	return vec, nil
}

func dotProduct(a, b []float32) float32 {
	var product float32
	for i := range a {
		product += a[i] * b[i]
	}
	return product
}

func magnitude(vec []float32) float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	return float32(math.Sqrt(float64(sum)))
}

// CosineSimilarity returns the cosine of the angle between two vectors, or an
// error if their dimensions differ.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same dimension")
	}

	magA, magB := magnitude(a), magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dotProduct(a, b) / (magA * magB), nil
}
