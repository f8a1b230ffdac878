package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cavewalls/internal/survey"
)

// marshalTripMeta converts a trip's metadata, without its chunks, to JSON
// TEXT for storage.
func marshalTripMeta(t *survey.Trip) (string, error) {
	meta := survey.Trip{
		Name:        t.Name,
		Date:        t.Date,
		Calibration: t.Calibration,
		Team:        t.Team,
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("marshal trip %q: %w", t.Name, err)
	}
	return string(data), nil
}

// unmarshalTripMeta parses trip metadata written by marshalTripMeta.
func unmarshalTripMeta(data string) (*survey.Trip, error) {
	var t survey.Trip
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("unmarshal trip: %w", err)
	}
	t.Chunks = nil
	return &t, nil
}

func marshalChunk(c *survey.Chunk) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal chunk: %w", err)
	}
	return string(data), nil
}

func unmarshalChunk(data string) (*survey.Chunk, error) {
	c := survey.NewChunk()
	if err := json.Unmarshal([]byte(data), c); err != nil {
		return nil, fmt.Errorf("unmarshal chunk: %w", err)
	}
	return c, nil
}

// marshalSources stores the import's source paths as a JSON array, never null.
func marshalSources(sources []string) (string, error) {
	if sources == nil {
		sources = []string{}
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}
	return string(data), nil
}

func unmarshalSources(data string) ([]string, error) {
	var sources []string
	if err := json.Unmarshal([]byte(data), &sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	return sources, nil
}
