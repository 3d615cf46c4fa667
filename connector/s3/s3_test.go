package s3_test

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/connector/s3"
)

var _ slotfeed.Connector = (*s3.Bucket)(nil)

// fakeS3 pages a fixed object listing and serves bodies from a map.
type fakeS3 struct {
	objects    []types.Object
	bodies     map[string]string
	pageSize   int
	listCalls  int
	lastPrefix string
	lastKey    string
}

var _ s3.Client = (*fakeS3)(nil)

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.listCalls++
	f.lastPrefix = aws.ToString(in.Prefix)

	start := 0
	if in.ContinuationToken != nil {
		n, err := strconv.Atoi(aws.ToString(in.ContinuationToken))
		if err != nil {
			return nil, err
		}
		start = n
	}
	size := f.pageSize
	if size <= 0 {
		size = len(f.objects)
	}
	end := min(start+size, len(f.objects))

	out := &awss3.ListObjectsV2Output{
		Contents:    f.objects[start:end],
		IsTruncated: aws.Bool(end < len(f.objects)),
	}
	if end < len(f.objects) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.lastKey = aws.ToString(in.Key)
	body, ok := f.bodies[f.lastKey]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", f.lastKey)
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func object(key string, lastModified time.Time) types.Object {
	return types.Object{Key: aws.String(key), LastModified: aws.Time(lastModified)}
}

func TestBucket_ListPaginates(t *testing.T) {
	now := time.Now()
	client := &fakeS3{
		objects: []types.Object{
			object("daily/trades-2016-12-01.csv", now),
			object("daily/trades-2016-12-02.csv", now),
			object("daily/trades-2016-12-03.csv", now),
		},
		pageSize: 2,
	}

	conn, err := s3.New(client, s3.Options{Bucket: "archive", Prefix: "daily/"})
	require.NoError(t, err)

	slots, err := conn.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, client.listCalls, "three objects at page size two take two pages")
	require.Equal(t, "daily/", client.lastPrefix)

	require.Len(t, slots, 3)
	require.Equal(t, "trades-2016-12-01.csv", slots[0].Name, "the prefix is stripped from slot names")
	require.True(t, slots[0].Time.Equal(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBucket_ListSkipsPlaceholders(t *testing.T) {
	now := time.Now()
	client := &fakeS3{
		objects: []types.Object{
			object("daily/", now),
			object("daily/archive/", now),
			object("daily/trades-2016-12-01.csv", now),
		},
	}

	conn, err := s3.New(client, s3.Options{Bucket: "archive", Prefix: "daily/"})
	require.NoError(t, err)

	slots, err := conn.List(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, "trades-2016-12-01.csv", slots[0].Name)
}

func TestBucket_LastModifiedFallbackForUndatedKeys(t *testing.T) {
	uploaded := time.Date(2016, 12, 5, 8, 30, 0, 0, time.UTC)
	client := &fakeS3{
		objects: []types.Object{object("latest.csv", uploaded)},
	}

	conn, err := s3.New(client, s3.Options{Bucket: "archive"})
	require.NoError(t, err)

	slots, err := conn.List(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.True(t, slots[0].Time.Equal(uploaded))
}

func TestBucket_Fetch(t *testing.T) {
	client := &fakeS3{
		bodies: map[string]string{"daily/trades-2016-12-01.csv": "t1\nt2\n"},
	}

	conn, err := s3.New(client, s3.Options{Bucket: "archive", Prefix: "daily/"})
	require.NoError(t, err)

	rc, err := conn.Fetch(context.Background(), slotfeed.Slot{Name: "trades-2016-12-01.csv"})
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "t1\nt2\n", string(data))
	require.Equal(t, "daily/trades-2016-12-01.csv", client.lastKey, "the prefix is restored on fetch")
}

func TestBucket_FetchMissingObject(t *testing.T) {
	conn, err := s3.New(&fakeS3{bodies: map[string]string{}}, s3.Options{Bucket: "archive"})
	require.NoError(t, err)

	_, err = conn.Fetch(context.Background(), slotfeed.Slot{Name: "absent.csv"})
	require.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := s3.New(nil, s3.Options{Bucket: "archive"})
	require.Error(t, err)

	_, err = s3.New(&fakeS3{}, s3.Options{})
	require.Error(t, err)

	_, err = s3.New(&fakeS3{}, s3.Options{Bucket: "archive", TimePattern: "["})
	require.Error(t, err)
}
