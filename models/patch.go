package models

import "go.mongodb.org/mongo-driver/bson"

// PokemonPatch is the body of an update request. Only the fields present in
// the body are written; id and unknown fields are ignored.
type PokemonPatch struct {
	Name  *NamePatch `json:"name"`
	Type  TypeList   `json:"type"`
	Base  *BaseInput `json:"base"`
	Image *string    `json:"image"`
}

type NamePatch struct {
	French   *string `json:"french"`
	English  *string `json:"english"`
	Japanese *string `json:"japanese"`
	Chinese  *string `json:"chinese"`
}

// SetDocument returns the $set document for the patch using dotted paths so
// that sibling name and base fields are preserved.
func (p PokemonPatch) SetDocument() bson.M {
	set := bson.M{}

	if p.Name != nil {
		setString(set, "name.french", p.Name.French)
		setString(set, "name.english", p.Name.English)
		setString(set, "name.japanese", p.Name.Japanese)
		setString(set, "name.chinese", p.Name.Chinese)
	}
	if p.Type != nil {
		set["type"] = []string(p.Type)
	}
	if p.Base != nil {
		setInt(set, "base.HP", p.Base.HP)
		setInt(set, "base.Attack", p.Base.Attack)
		setInt(set, "base.Defense", p.Base.Defense)
		setInt(set, "base.SpecialAttack", p.Base.SpecialAttack)
		setInt(set, "base.SpecialDefense", p.Base.SpecialDefense)
		setInt(set, "base.Speed", p.Base.Speed)
	}
	setString(set, "image", p.Image)

	return set
}

func setString(set bson.M, key string, v *string) {
	if v != nil {
		set[key] = *v
	}
}

func setInt(set bson.M, key string, v *int) {
	if v != nil {
		set[key] = *v
	}
}
