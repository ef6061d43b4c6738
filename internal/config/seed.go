package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedUser is one entry of a users seed file.
type SeedUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Seed is the content of a users seed file:
//
//	users:
//	  - name: Ada
//	    email: ada@example.com
//	    role: admin
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeed reads a seed file from disk.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(bytes.NewReader(data))
}

// ParseSeed decodes a seed document. Unknown keys are rejected and every
// user needs an email; duplicate emails are an error.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]int, len(seed.Users))
	for i, u := range seed.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return nil, fmt.Errorf("seed user %d: email is required", i)
		}
		if prev, ok := seen[email]; ok {
			return nil, fmt.Errorf("seed user %d: email %s already used by user %d", i, email, prev)
		}
		seen[email] = i
	}

	return &seed, nil
}
