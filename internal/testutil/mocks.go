// Package testutil provides mock implementations for the interfaces defined
// in pkg/formatter and its subpackages, plus small filesystem helpers for
// test setup.
package testutil

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stackvity/docfmt/pkg/formatter"
	"github.com/stackvity/docfmt/pkg/formatter/kind"
	"github.com/stackvity/docfmt/pkg/formatter/markup"
)

// MockCacheManager mocks the cache.Manager interface. Configure expectations
// with testify/mock methods, e.g. .On("Check", ...).Return(false).
type MockCacheManager struct {
	mock.Mock
}

func (m *MockCacheManager) Load() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCacheManager) Check(path string, modTime time.Time, size int64) bool {
	args := m.Called(path, modTime, size)
	hit, _ := args.Get(0).(bool)
	return hit
}

func (m *MockCacheManager) Record(path string, modTime time.Time, size int64) {
	m.Called(path, modTime, size)
}

func (m *MockCacheManager) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCacheManager) Clear() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCacheManager) Path() string {
	args := m.Called()
	path, _ := args.Get(0).(string)
	return path
}

// MockMarkupEngine mocks the markup.Engine interface.
type MockMarkupEngine struct {
	mock.Mock
}

func (m *MockMarkupEngine) Parse(sourceID, content string) (*markup.Document, error) {
	args := m.Called(sourceID, content)
	doc, _ := args.Get(0).(*markup.Document)
	return doc, args.Error(1)
}

func (m *MockMarkupEngine) Render(width int, doc *markup.Document, embedded bool) (string, []error) {
	args := m.Called(width, doc, embedded)
	out, _ := args.Get(0).(string)
	errs, _ := args.Get(1).([]error)
	return out, errs
}

// MockKindDetector mocks the kind.Detector interface.
type MockKindDetector struct {
	mock.Mock
}

func (m *MockKindDetector) Detect(content []byte, path string) kind.Kind {
	args := m.Called(content, path)
	k, _ := args.Get(0).(kind.Kind)
	return k
}

// MockHooks mocks the formatter.Hooks interface. Tests that record extra
// state on this mock must keep it safe for concurrent hook invocations.
type MockHooks struct {
	mock.Mock
}

func (m *MockHooks) OnRunStart(totalFiles int) {
	m.Called(totalFiles)
}

func (m *MockHooks) OnFileStatusUpdate(path string, status formatter.Status, message string, duration time.Duration) {
	m.Called(path, status, message, duration)
}

func (m *MockHooks) OnRunComplete(report formatter.Report) {
	m.Called(report)
}
