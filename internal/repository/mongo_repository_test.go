package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testMongoURI = "mongodb://localhost:27017/?serverSelectionTimeoutMS=2000"

// MongoRepositoryTestSuite runs against a local MongoDB and is skipped when
// none is reachable.
type MongoRepositoryTestSuite struct {
	suite.Suite
	repository *MongoRepository
}

func (s *MongoRepositoryTestSuite) SetupSuite() {
	repo, err := NewMongoRepository(testMongoURI, "propertyfinder_test", "properties")
	if err != nil {
		s.T().Skip("MongoDB not available for integration tests")
		return
	}
	s.repository = repo
}

func (s *MongoRepositoryTestSuite) TearDownSuite() {
	if s.repository == nil {
		return
	}
	_ = s.repository.ClearAll(context.Background())
	s.repository.Close()
}

func (s *MongoRepositoryTestSuite) SetupTest() {
	s.Require().NoError(s.repository.ClearAll(context.Background()))
}

func (s *MongoRepositoryTestSuite) TestSaveUpsertsByURL() {
	ctx := context.Background()

	first := PropertyRecord{Title: "Original", Currency: "AED", URL: "https://example.com/p/1"}
	s.Require().NoError(s.repository.Save(ctx, first))

	updated := first
	updated.Title = "Updated"
	updated.Price = floatPtr(900000)
	s.Require().NoError(s.repository.Save(ctx, updated))

	records, err := s.repository.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	assert.Equal(s.T(), "Updated", records[0].Title)
	assert.Equal(s.T(), 900000.0, *records[0].Price)
}

func (s *MongoRepositoryTestSuite) TestFindWithFilters() {
	ctx := context.Background()

	seed := []PropertyRecord{
		{Title: "Marina 1BR", Price: floatPtr(800000), Location: strPtr("Dubai Marina"), Bedrooms: intPtr(1), PropertyType: "apartment", Currency: "AED", URL: "https://example.com/p/1"},
		{Title: "Marina 3BR", Price: floatPtr(2500000), Location: strPtr("Dubai Marina"), Bedrooms: intPtr(3), PropertyType: "apartment", Currency: "AED", URL: "https://example.com/p/2"},
		{Title: "JVC Villa", Price: floatPtr(4000000), Location: strPtr("JVC"), Bedrooms: intPtr(4), PropertyType: "villa", Currency: "AED", URL: "https://example.com/p/3"},
	}
	for _, record := range seed {
		s.Require().NoError(s.repository.Save(ctx, record))
	}

	result, err := s.repository.FindWithFilters(ctx,
		PropertyFilter{Location: "marina", PriceMax: 1000000},
		PaginationParams{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Require().Len(result.Properties, 1)
	assert.Equal(s.T(), "Marina 1BR", result.Properties[0].Title)
	assert.Equal(s.T(), int64(1), result.TotalItems)
}

func (s *MongoRepositoryTestSuite) TestFindWithFiltersPaginates() {
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		price := float64(100000 * (i + 1))
		s.Require().NoError(s.repository.Save(ctx, PropertyRecord{
			Title:    "Listing",
			Price:    &price,
			Currency: "AED",
			URL:      "https://example.com/p/" + string(rune('a'+i)),
		}))
	}

	result, err := s.repository.FindWithFilters(ctx, PropertyFilter{}, PaginationParams{Page: 2, PageSize: 10})
	s.Require().NoError(err)
	assert.Len(s.T(), result.Properties, 10)
	assert.Equal(s.T(), int64(25), result.TotalItems)
	assert.Equal(s.T(), 3, result.TotalPages)
	assert.Equal(s.T(), 2, result.CurrentPage)
}

func TestMongoRepositorySuite(t *testing.T) {
	suite.Run(t, new(MongoRepositoryTestSuite))
}
