package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultStat is used for every base stat missing from a create request.
	DefaultStat = 50
	// DefaultType is the single type given to a pokemon created without one.
	DefaultType = "Normal"
	// DefaultFrenchName names a pokemon created without a french name.
	DefaultFrenchName = "Nouveau Pokémon"

	spriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"
)

// DefaultImage is the placeholder sprite for pokemons created without an image.
var DefaultImage = SpriteURL(0)

// SpriteURL returns the PokeAPI sprite for the given pokedex number.
func SpriteURL(id int) string {
	return fmt.Sprintf(spriteURLFormat, id)
}

type Pokemon struct {
	ObjectID primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ID       int                `json:"id" bson:"id"`
	Name     Name               `json:"name" bson:"name"`
	Type     []string           `json:"type" bson:"type"`
	Base     Base               `json:"base" bson:"base"`
	Image    string             `json:"image" bson:"image"`
}

type Name struct {
	French   string `json:"french" bson:"french"`
	English  string `json:"english" bson:"english"`
	Japanese string `json:"japanese" bson:"japanese"`
	Chinese  string `json:"chinese" bson:"chinese"`
}

type Base struct {
	HP             int `json:"HP" bson:"HP"`
	Attack         int `json:"Attack" bson:"Attack"`
	Defense        int `json:"Defense" bson:"Defense"`
	SpecialAttack  int `json:"SpecialAttack" bson:"SpecialAttack"`
	SpecialDefense int `json:"SpecialDefense" bson:"SpecialDefense"`
	Speed          int `json:"Speed" bson:"Speed"`
}
