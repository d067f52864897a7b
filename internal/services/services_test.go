package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"medtrack/internal/apperrors"
	"medtrack/internal/auth"
	"medtrack/internal/models"
	"medtrack/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedEvent struct {
	Name    string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Name: event, Payload: payload})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	svc    *Services
	clock  *testutil.Clock
	events *recordingPublisher
}

// 2025-03-15 10:00 UTC, a Saturday in the middle of the month.
var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(fixedNow)
	events := &recordingPublisher{}

	o := Options{Now: clock.Now, Events: events}
	for _, fn := range opts {
		fn(&o)
	}
	return &fixture{
		ctx:    context.Background(),
		db:     db,
		svc:    New(db, auth.NewTokenManager("test-secret", 2*time.Hour), o),
		clock:  clock,
		events: events,
	}
}

func (f *fixture) today() models.Date { return models.NewDate(f.clock.Now()) }

func date(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// assertAppError checks the error category and the client-facing message.
func assertAppError(t *testing.T, err error, kind apperrors.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind, appErr.Error())
	if msg != "" {
		assert.Equal(t, msg, appErr.Message)
	}
}

func TestNewDefaults(t *testing.T) {
	svc := New(testutil.NewDB(t), auth.NewTokenManager("s", time.Hour), Options{})

	assert.Equal(t, "India", svc.Locations.defaultCountry)
	assert.NotNil(t, svc.Visits.now)
	assert.IsType(t, nopPublisher{}, svc.Orders.events)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%city hosp%", likePattern("  City Hosp "))
}
