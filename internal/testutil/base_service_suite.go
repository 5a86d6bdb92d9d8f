package testutil

import (
	"context"
	"time"

	"github.com/flexprice/taxledger/internal/cache"
	"github.com/flexprice/taxledger/internal/clock"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/flexprice/taxledger/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory collaborators used by service tests
type Stores struct {
	TaxCodeRepo  *InMemoryTaxCodeStore
	TaxationRepo *InMemoryTaxationStore
	Catalog      *InMemoryCatalog
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryTaxationPublisher
	cache     cache.Cache
	logger    *logger.Logger
	config    *config.Configuration
	clock     *clock.FakeClock
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = config.GetDefaultConfig()
	s.config.Logging.Level = types.LogLevelInfo
	s.config.Cache.Enabled = true
	s.cache = cache.NewInMemoryCache(s.config)
	s.clock = clock.NewFakeClock(time.Date(2017, time.September, 1, 10, 0, 0, 0, time.UTC))
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		TaxCodeRepo:  NewInMemoryTaxCodeStore(),
		TaxationRepo: NewInMemoryTaxationStore(),
		Catalog:      NewInMemoryCatalog(),
	}
	s.publisher = NewInMemoryTaxationPublisher()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.TaxCodeRepo.Clear()
	s.stores.TaxationRepo.Clear()
	s.publisher.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// SetTaxProperties replaces the default tax properties of the test configuration
func (s *BaseServiceTestSuite) SetTaxProperties(props map[string]any) {
	s.config.Tax.Defaults = props
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the test taxation publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryTaxationPublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetClock returns the fixed test clock
func (s *BaseServiceTestSuite) GetClock() *clock.FakeClock {
	return s.clock
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
