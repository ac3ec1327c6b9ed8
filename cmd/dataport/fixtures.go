package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadFixtures reads a fixtures file. Unknown keys are rejected.
func loadFixtures(path string) (*fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fx fixtures
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &fx, nil
}
