package session

import (
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

func sampleSpec() *specdoc.Specification {
	return &specdoc.Specification{
		Title:   "Todo",
		Modules: []specdoc.Module{{Name: "Tasks", Functions: []specdoc.Function{{Name: "add"}}}},
	}
}

func TestNewIDFormat(t *testing.T) {
	id := NewID(time.UnixMilli(1700000000123))
	require.Regexp(t, regexp.MustCompile(`^spec_1700000000123_[0-9a-f]{8}$`), id)
	require.NotEqual(t, id, NewID(time.UnixMilli(1700000000123)))
}

func TestCreateAndGetReturnCopies(t *testing.T) {
	s := NewStore(10, 0)
	spec := sampleSpec()
	id := s.Create(spec, Metadata{Platform: specdoc.PlatformWeb, Complexity: specdoc.ComplexitySimple})

	spec.Title = "changed after create"
	got, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, "Todo", got.Spec.Title)
	require.Equal(t, specdoc.PlatformWeb, got.Metadata.Platform)
	require.True(t, got.LastModifiedAt.IsZero())

	got.Spec.Modules[0].Name = "changed after get"
	again, _ := s.Get(id)
	require.Equal(t, "Tasks", again.Spec.Modules[0].Name)

	_, ok = s.Get("spec_missing")
	require.False(t, ok)
}

func TestUpdateStampsLastModified(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(10, 0, WithClock(func() time.Time { return now }))
	id := s.Create(sampleSpec(), Metadata{})

	now = now.Add(time.Minute)
	next := sampleSpec()
	next.Title = "Todo v2"
	require.NoError(t, s.Update(id, next))

	got, _ := s.Get(id)
	require.Equal(t, "Todo v2", got.Spec.Title)
	require.Equal(t, now, got.LastModifiedAt)
	require.Equal(t, now.Add(-time.Minute), got.CreatedAt)

	err := s.Update("nope", next)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMutateLeavesSessionOnError(t *testing.T) {
	s := NewStore(10, 0)
	id := s.Create(sampleSpec(), Metadata{})

	_, err := s.Mutate(id, func(cur Session) (*specdoc.Specification, error) {
		cur.Spec.Title = "scribbled"
		return nil, errors.New("rejected")
	})
	require.Error(t, err)

	got, _ := s.Get(id)
	require.Equal(t, "Todo", got.Spec.Title)
	require.True(t, got.LastModifiedAt.IsZero())
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	var sizes []int
	s := NewStore(2, 0, WithSizeObserver(func(n int) { sizes = append(sizes, n) }))
	a := s.Create(sampleSpec(), Metadata{})
	b := s.Create(sampleSpec(), Metadata{})
	_, _ = s.Get(a)
	c := s.Create(sampleSpec(), Metadata{})

	_, okA := s.Get(a)
	_, okB := s.Get(b)
	_, okC := s.Get(c)
	require.True(t, okA)
	require.False(t, okB)
	require.True(t, okC)
	require.Equal(t, 2, s.Len())
	require.Equal(t, []int{1, 2, 2, 2}, sizes)
}

func TestExpiryLowersObservedSize(t *testing.T) {
	var size atomic.Int64
	s := NewStore(4, 30*time.Millisecond, WithSizeObserver(func(n int) { size.Store(int64(n)) }))
	s.Create(sampleSpec(), Metadata{})
	s.Create(sampleSpec(), Metadata{})
	require.Equal(t, int64(2), size.Load())

	require.Eventually(t, func() bool { return size.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 0, s.Len())
}
