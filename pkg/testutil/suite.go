package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Suite is a testify suite with a per-test context and logger.
type Suite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger
	startTime time.Time
}

// SetupTest runs before each test in the suite
func (s *Suite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 30*time.Second)
	s.logger = zaptest.NewLogger(s.T())
	s.startTime = time.Now()
}

// TearDownTest runs after each test in the suite
func (s *Suite) TearDownTest() {
	s.cancel()
	s.T().Logf("test completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Logger returns the test logger
func (s *Suite) Logger() *zap.Logger {
	return s.logger
}
