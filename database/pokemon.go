package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pokedex_module/models"
	"pokedex_module/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// createAttempts bounds the read-max/insert loop when concurrent creates race
// for the same id. The unique id index makes the loser fail with a duplicate key.
const createAttempts = 5

// PokemonRepository handles database operations for the pokemons collection.
type PokemonRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewPokemonRepository binds the repository to db.collection. Every operation
// is bounded by timeout when it is positive.
func NewPokemonRepository(db *mongo.Database, collection string, timeout time.Duration) *PokemonRepository {
	return &PokemonRepository{
		collection: db.Collection(collection),
		timeout:    timeout,
	}
}

func (r *PokemonRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the unique business id index.
func (r *PokemonRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create id index: %w", err)
	}
	return nil
}

// maxID returns the highest business id, or 0 when the collection is empty.
func (r *PokemonRepository) maxID(ctx context.Context) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "id", Value: -1}}).
		SetProjection(bson.M{"id": 1})

	var last models.Pokemon
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read highest id: %w", err)
	}
	return last.ID, nil
}

// Ping checks that the primary is reachable.
func (r *PokemonRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

// Count returns the number of pokemons matching c.
func (r *PokemonRepository) Count(ctx context.Context, c query.Criteria) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, query.Filter(c))
	if err != nil {
		return 0, fmt.Errorf("failed to count pokemons: %w", err)
	}
	return total, nil
}

// Find returns one page of pokemons matching c, ordered by id.
func (r *PokemonRepository) Find(ctx context.Context, c query.Criteria, page query.Page) ([]models.Pokemon, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cur, err := r.collection.Find(ctx, query.Filter(c), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pokemons: %w", err)
	}

	pokemons := []models.Pokemon{}
	if err := cur.All(ctx, &pokemons); err != nil {
		return nil, fmt.Errorf("failed to decode pokemons: %w", err)
	}
	return pokemons, nil
}

// FindByID returns the pokemon with the given business id.
func (r *PokemonRepository) FindByID(ctx context.Context, id int) (*models.Pokemon, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// FindByName returns the pokemon whose french name is exactly name.
func (r *PokemonRepository) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	return r.findOne(ctx, bson.M{"name.french": name})
}

func (r *PokemonRepository) findOne(ctx context.Context, filter bson.M) (*models.Pokemon, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var pokemon models.Pokemon
	err := r.collection.FindOne(ctx, filter).Decode(&pokemon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pokemon: %w", err)
	}
	return &pokemon, nil
}

// Create gives the pokemon the highest stored id + 1 (1 on an empty
// collection), applies the creation defaults and inserts it. A concurrent
// create that took the same id makes the insert fail on the unique index, and
// the id is read again.
func (r *PokemonRepository) Create(ctx context.Context, in models.PokemonInput) (*models.Pokemon, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		maxID, err := r.maxID(ctx)
		if err != nil {
			return nil, err
		}

		pokemon := in.Build(maxID + 1)
		res, err := r.collection.InsertOne(ctx, pokemon)
		if err == nil {
			if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
				pokemon.ObjectID = oid
			}
			return &pokemon, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}

		lastErr = err
	}
	return nil, fmt.Errorf("failed to allocate a free id after %d attempts: %w", createAttempts, lastErr)
}

// Update applies patch to the pokemon with the given business id and returns
// the updated document. It never creates a pokemon.
func (r *PokemonRepository) Update(ctx context.Context, id int, patch models.PokemonPatch) (*models.Pokemon, error) {
	set := patch.SetDocument()
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var pokemon models.Pokemon
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&pokemon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pokemon %d: %w", id, err)
	}
	return &pokemon, nil
}

// Delete removes the pokemon with the given business id.
func (r *PokemonRepository) Delete(ctx context.Context, id int) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete pokemon %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert writes pokemon under its own business id, replacing any existing
// document with that id. Used by the populator.
func (r *PokemonRepository) Upsert(ctx context.Context, pokemon models.Pokemon) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pokemon.ObjectID = primitive.NilObjectID
	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": pokemon.ID}, pokemon, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert pokemon %d: %w", pokemon.ID, err)
	}
	return nil
}

// Drop deletes every pokemon together with the collection's indexes.
func (r *PokemonRepository) Drop(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.collection.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop pokemons: %w", err)
	}
	return nil
}
