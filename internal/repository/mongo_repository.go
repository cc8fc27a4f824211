package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
)

// MongoRepository stores records in a MongoDB collection with a unique index
// on url, the record identity key. Save is an upsert, so re-crawling the
// same listing updates it in place instead of duplicating it.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewMongoRepository(uri, dbName, collectionName string) (*MongoRepository, error) {
	log := logger.NewLogger("mongo_repository")

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(context.Background(), nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(dbName).Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.WithError(err).Warn("Failed to create unique index on url")
	}

	return &MongoRepository{client: client, collection: collection, logger: log}, nil
}

func (r *MongoRepository) Save(ctx context.Context, record PropertyRecord) error {
	filter := bson.M{"url": record.URL}
	update := bson.M{"$set": record}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}

	if result.UpsertedCount > 0 {
		r.logger.WithField("url", record.URL).Debug("New property saved")
	} else {
		r.logger.WithField("url", record.URL).Debug("Existing property updated")
	}

	return nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]PropertyRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var records []PropertyRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	return records, nil
}

func (r *MongoRepository) FindWithFilters(ctx context.Context, filter PropertyFilter, pagination PaginationParams) (*PropertySearchResult, error) {
	mongoFilter := bson.M{}

	if filter.Location != "" {
		mongoFilter["location"] = bson.M{"$regex": filter.Location, "$options": "i"}
	}
	if filter.PropertyType != "" {
		mongoFilter["property_type"] = bson.M{"$regex": filter.PropertyType, "$options": "i"}
	}

	if filter.PriceMin > 0 || filter.PriceMax > 0 {
		priceFilter := bson.M{}
		if filter.PriceMin > 0 {
			priceFilter["$gte"] = filter.PriceMin
		}
		if filter.PriceMax > 0 {
			priceFilter["$lte"] = filter.PriceMax
		}
		mongoFilter["price"] = priceFilter
	}

	if filter.BedroomsMin > 0 || filter.BedroomsMax > 0 {
		bedroomsFilter := bson.M{}
		if filter.BedroomsMin > 0 {
			bedroomsFilter["$gte"] = filter.BedroomsMin
		}
		if filter.BedroomsMax > 0 {
			bedroomsFilter["$lte"] = filter.BedroomsMax
		}
		mongoFilter["bedrooms"] = bedroomsFilter
	}

	if filter.AreaMin > 0 || filter.AreaMax > 0 {
		areaFilter := bson.M{}
		if filter.AreaMin > 0 {
			areaFilter["$gte"] = filter.AreaMin
		}
		if filter.AreaMax > 0 {
			areaFilter["$lte"] = filter.AreaMax
		}
		mongoFilter["area"] = areaFilter
	}

	totalItems, err := r.collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	if pagination.PageSize <= 0 {
		pagination.PageSize = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}

	totalPages := int((totalItems + int64(pagination.PageSize) - 1) / int64(pagination.PageSize))
	skip := (pagination.Page - 1) * pagination.PageSize

	findOptions := options.Find()
	findOptions.SetSkip(int64(skip))
	findOptions.SetLimit(int64(pagination.PageSize))
	findOptions.SetSort(bson.D{{Key: "price", Value: -1}})

	cursor, err := r.collection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var records []PropertyRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	return &PropertySearchResult{
		Properties:  records,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: pagination.Page,
		PageSize:    pagination.PageSize,
	}, nil
}

func (r *MongoRepository) ClearAll(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear all properties: %w", err)
	}
	r.logger.Info("All properties removed")
	return nil
}

func (r *MongoRepository) Close() {
	if err := r.client.Disconnect(context.Background()); err != nil {
		r.logger.Error("Failed to disconnect from mongo", err)
	}
}
