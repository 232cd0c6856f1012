// Package query turns list request parameters into MongoDB predicates and
// pagination windows.
package query

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AllTypes is the type filter value meaning "no type constraint".
const AllTypes = "All"

// Criteria selects pokemons for the list endpoint.
type Criteria struct {
	// Search is matched as a case-insensitive substring of the french name or of any type.
	Search string
	// Type must equal one of the pokemon's types exactly.
	Type string
}

// NewCriteria builds Criteria from the raw search and type parameters.
func NewCriteria(search, typ string) Criteria {
	return Criteria{
		Search: strings.TrimSpace(search),
		Type:   strings.TrimSpace(typ),
	}
}

// HasType reports whether the type constraint is active.
func (c Criteria) HasType() bool {
	return c.Type != "" && c.Type != AllTypes
}

// Filter returns the predicate for c. The search clause and the type clause are
// combined with AND; an empty Criteria matches every document.
func Filter(c Criteria) bson.M {
	filter := bson.M{}

	if c.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(c.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name.french": pattern},
			bson.M{"type": pattern},
		}
	}

	if c.HasType() {
		filter["type"] = c.Type
	}

	return filter
}
