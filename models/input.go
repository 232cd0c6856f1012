package models

import (
	"encoding/json"
	"fmt"
)

// Spellings accepted for the special stats, in precedence order: the spaced
// form wins over the stored field name. The pokedex dataset uses the "Sp." form.
var (
	specialAttackKeys  = []string{"Special Attack", "SpecialAttack", "Sp. Attack"}
	specialDefenseKeys = []string{"Special Defense", "SpecialDefense", "Sp. Defense"}
)

// PokemonInput is the body of a create request. Every field is optional.
type PokemonInput struct {
	Name  NameInput       `json:"name"`
	Type  TypeList        `json:"type"`
	Base  BaseInput       `json:"base"`
	Image json.RawMessage `json:"image"`
}

type NameInput struct {
	French   string `json:"french"`
	English  string `json:"english"`
	Japanese string `json:"japanese"`
	Chinese  string `json:"chinese"`
}

// BaseInput holds the stats present in a request body; nil means absent.
type BaseInput struct {
	HP             *int
	Attack         *int
	Defense        *int
	SpecialAttack  *int
	SpecialDefense *int
	Speed          *int
}

func (b *BaseInput) UnmarshalJSON(data []byte) error {
	var raw map[string]*int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("base: %w", err)
	}

	b.HP = raw["HP"]
	b.Attack = raw["Attack"]
	b.Defense = raw["Defense"]
	b.SpecialAttack = firstPresent(raw, specialAttackKeys)
	b.SpecialDefense = firstPresent(raw, specialDefenseKeys)
	b.Speed = raw["Speed"]
	return nil
}

func firstPresent(raw map[string]*int, keys []string) *int {
	for _, k := range keys {
		if v := raw[k]; v != nil {
			return v
		}
	}
	return nil
}

// IsEmpty reports whether no stat was supplied.
func (b BaseInput) IsEmpty() bool {
	return b.HP == nil && b.Attack == nil && b.Defense == nil &&
		b.SpecialAttack == nil && b.SpecialDefense == nil && b.Speed == nil
}

// TypeList accepts either a JSON array of strings or a single string.
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("type must be a string or a list of strings: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	*t = list
	return nil
}

// Build applies the creation defaults and returns the document to store under id.
func (in PokemonInput) Build(id int) Pokemon {
	french := in.Name.French
	if french == "" {
		french = DefaultFrenchName
	}

	types := []string(in.Type)
	if len(types) == 0 {
		types = []string{DefaultType}
	}

	return Pokemon{
		ID: id,
		Name: Name{
			French:   french,
			English:  orDefault(in.Name.English, french),
			Japanese: orDefault(in.Name.Japanese, french),
			Chinese:  orDefault(in.Name.Chinese, french),
		},
		Type: types,
		Base: Base{
			HP:             statOrDefault(in.Base.HP),
			Attack:         statOrDefault(in.Base.Attack),
			Defense:        statOrDefault(in.Base.Defense),
			SpecialAttack:  statOrDefault(in.Base.SpecialAttack),
			SpecialDefense: statOrDefault(in.Base.SpecialDefense),
			Speed:          statOrDefault(in.Base.Speed),
		},
		Image: imageOrDefault(in.Image),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func statOrDefault(v *int) int {
	if v == nil {
		return DefaultStat
	}
	return *v
}

// imageOrDefault keeps the image only when the body carried a non-empty JSON string.
func imageOrDefault(raw json.RawMessage) string {
	if len(raw) == 0 {
		return DefaultImage
	}
	var image string
	if err := json.Unmarshal(raw, &image); err != nil || image == "" {
		return DefaultImage
	}
	return image
}
