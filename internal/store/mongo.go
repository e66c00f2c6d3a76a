package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PKartavkin/slack-bot/internal/config"
	"github.com/PKartavkin/slack-bot/pkg/logger"
)

const (
	orgsCollection       = "organizations"
	rateLimitsCollection = "rate_limits"

	serverSelectionTimeout = 5 * time.Second
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	client     *mongo.Client
	orgs       *mongo.Collection
	rateLimits *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures
// the uniqueness indexes both collections rely on.
func NewMongoStore(ctx context.Context, cfg *config.MongoConfig) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:     client,
		orgs:       db.Collection(orgsCollection),
		rateLimits: db.Collection(rateLimitsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to ensure mongodb indexes")
	}

	logger.Info().Str("database", cfg.Database).Msg("mongodb connection established")
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.orgs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "team_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = s.rateLimits.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "rate_limit_key", Value: 1}},
		Options: unique,
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- OrgStore ---

func (s *MongoStore) EnsureOrg(ctx context.Context, teamID, joinedDate string) error {
	_, err := s.orgs.UpdateOne(ctx,
		bson.M{"team_id": teamID},
		bson.M{"$setOnInsert": bson.M{
			"team_id":          teamID,
			"channel_projects": bson.M{},
			"joined_date":      joinedDate,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure org %s: %w", teamID, err)
	}
	return nil
}

func (s *MongoStore) GetOrg(ctx context.Context, teamID string) (*Org, error) {
	var doc bson.M
	err := s.orgs.FindOne(ctx, bson.M{"team_id": teamID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch org %s: %w", teamID, err)
	}
	return decodeOrg(doc), nil
}

func (s *MongoStore) SetOrgFields(ctx context.Context, teamID string, fields map[string]any) error {
	_, err := s.orgs.UpdateOne(ctx,
		bson.M{"team_id": teamID},
		bson.M{"$set": fields},
	)
	if err != nil {
		return fmt.Errorf("update org %s: %w", teamID, err)
	}
	return nil
}

func (s *MongoStore) SetOrgField(ctx context.Context, teamID, path string, value any) error {
	_, err := s.orgs.UpdateOne(ctx,
		bson.M{"team_id": teamID},
		bson.M{"$set": bson.M{path: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s on org %s: %w", path, teamID, err)
	}
	return nil
}

func (s *MongoStore) IncOrgField(ctx context.Context, teamID, path string, delta int64) error {
	_, err := s.orgs.UpdateOne(ctx,
		bson.M{"team_id": teamID},
		bson.M{"$inc": bson.M{path: delta}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("increment %s on org %s: %w", path, teamID, err)
	}
	return nil
}

func (s *MongoStore) ListOrgs(ctx context.Context) ([]*Org, error) {
	cursor, err := s.orgs.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}
	defer cursor.Close(ctx)

	var orgs []*Org
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode org: %w", err)
		}
		orgs = append(orgs, decodeOrg(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}
	return orgs, nil
}

// --- RateLimitStore ---

func (s *MongoStore) GetWindow(ctx context.Context, key string) (*RateLimitWindow, error) {
	var doc bson.M
	err := s.rateLimits.FindOne(ctx, bson.M{"rate_limit_key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch rate limit window %s: %w", key, err)
	}
	return decodeWindow(doc), nil
}

func (s *MongoStore) CreateWindow(ctx context.Context, key, teamID string, now time.Time) error {
	_, err := s.rateLimits.InsertOne(ctx, bson.M{
		"rate_limit_key": key,
		"team_id":        teamID,
		"requests":       bson.A{now},
		"created_at":     now,
		"updated_at":     now,
	})
	if err != nil {
		return fmt.Errorf("create rate limit window %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) SaveWindow(ctx context.Context, key string, requests []time.Time, now time.Time) error {
	_, err := s.rateLimits.UpdateOne(ctx,
		bson.M{"rate_limit_key": key},
		bson.M{"$set": bson.M{
			"requests":   requests,
			"updated_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("save rate limit window %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) DeleteStaleWindows(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.rateLimits.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete stale rate limit windows: %w", err)
	}
	return res.DeletedCount, nil
}

// IsConnectivity reports whether err looks like a connectivity problem
// (network failure, timeout) rather than an operation failure. Command
// handlers use this to pick the user-facing message category.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded)
}
