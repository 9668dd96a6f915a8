package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

func TestStaticList(t *testing.T) {
	static := Static{"zebra", "alpha", "mid"}

	got, err := static.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zebra"}, got)

	// The returned slice is a copy; mutating it must not corrupt the source.
	got[0] = "mutated"
	again, err := static.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zebra"}, again)
}

// fakeS3 is a scriptable ListBuckets API.
type fakeS3 struct {
	buckets  []string
	err      error
	failures int // fail this many calls before succeeding
	calls    int
}

func (f *fakeS3) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failures {
		return nil, assert.AnError
	}
	out := &s3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func fastS3Retry() cerrors.RetryConfig {
	return cerrors.RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestS3ListerList(t *testing.T) {
	fake := &fakeS3{buckets: []string{"data-bucket", "archive"}}
	lister := newS3ListerWithClient(fake, time.Second, fastS3Retry())

	got, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "data-bucket"}, got)
	assert.Equal(t, 1, fake.calls)
}

func TestS3ListerRetriesTransientFailures(t *testing.T) {
	fake := &fakeS3{buckets: []string{"recovered"}, failures: 2}
	lister := newS3ListerWithClient(fake, time.Second, fastS3Retry())

	got, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"recovered"}, got)
	assert.Equal(t, 3, fake.calls)
}

func TestS3ListerFailure(t *testing.T) {
	fake := &fakeS3{err: assert.AnError}
	lister := newS3ListerWithClient(fake, time.Second, fastS3Retry())

	_, err := lister.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBucketListFailed, cerrors.GetCode(err))
	assert.Equal(t, 3, fake.calls, "enumeration failures are retried before surfacing")
}

// countingLister wraps Static and counts calls.
type countingLister struct {
	buckets []string
	err     error
	calls   int
}

func (c *countingLister) List(context.Context) ([]string, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.buckets, nil
}

func TestCachedList(t *testing.T) {
	inner := &countingLister{buckets: []string{"a", "b"}}
	cached := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := cached.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	}
	assert.Equal(t, 1, inner.calls, "repeated lists within the TTL hit the cache")
}

func TestCachedListCopiesOnRead(t *testing.T) {
	inner := &countingLister{buckets: []string{"a", "b"}}
	cached := NewCached(inner, time.Minute)

	first, err := cached.List(context.Background())
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := cached.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, second)
}

func TestCachedNeverCachesFailures(t *testing.T) {
	inner := &countingLister{err: assert.AnError}
	cached := NewCached(inner, time.Minute)

	_, err := cached.List(context.Background())
	require.Error(t, err)

	inner.err = nil
	inner.buckets = []string{"recovered"}
	got, err := cached.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"recovered"}, got)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedInvalidate(t *testing.T) {
	inner := &countingLister{buckets: []string{"a"}}
	cached := NewCached(inner, time.Minute)

	_, err := cached.List(context.Background())
	require.NoError(t, err)
	cached.Invalidate()
	_, err = cached.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "invalidation forces a fresh enumeration")
}
