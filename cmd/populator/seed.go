package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pokedex_module/models"

	"gopkg.in/yaml.v3"
)

// SeedRecord is one entry of a pokedex file. Apart from id it takes the same
// fields as a create request, so missing stats and names get the same defaults.
type SeedRecord struct {
	ID int `json:"id"`
	models.PokemonInput
}

// Pokemon returns the document to store. Records without an id take their
// 1-based position in the file, and records without an image get the sprite
// matching their id.
func (r SeedRecord) Pokemon(position int) models.Pokemon {
	id := r.ID
	if id <= 0 {
		id = position + 1
	}

	pokemon := r.Build(id)
	if pokemon.Image == models.DefaultImage {
		pokemon.Image = models.SpriteURL(id)
	}
	return pokemon
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// readSource returns the raw seed bytes from a local path or an http(s) URL.
func readSource(ctx context.Context, source string) ([]byte, error) {
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		return data, nil
	}

	c := http.Client{
		Timeout: time.Second * 120,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	res, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download seed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download seed: %s", res.Status)
	}
	return io.ReadAll(res.Body)
}

func isYAML(source string) bool {
	u := source
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch strings.ToLower(filepath.Ext(u)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// parseSeed decodes a JSON array of records. YAML input is converted to JSON
// first so both formats go through the same decoders and aliases.
func parseSeed(data []byte, yamlInput bool) ([]SeedRecord, error) {
	if yamlInput {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML seed: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("YAML seed cannot be represented as JSON: %w", err)
		}
		data = converted
	}

	var records []SeedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return records, nil
}
