package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/memohai/sprout/internal/media"
)

type fakeS3 struct {
	pages   [][]string
	objects map[string]string
	calls   int
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	idx := f.calls
	f.calls++
	out := &awss3.ListObjectsV2Output{}
	for _, key := range f.pages[idx] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if idx < len(f.pages)-1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, "b", "r", ""); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := New(&fakeS3{}, " ", "r", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestAccessPath(t *testing.T) {
	t.Parallel()

	p, err := New(&fakeS3{}, "bean-sprouts-growing", "ap-northeast-1", "")
	if err != nil {
		t.Fatal(err)
	}
	want := "https://bean-sprouts-growing.s3.ap-northeast-1.amazonaws.com/2024/0003.jpg"
	if got := p.AccessPath("2024/0003.jpg"); got != want {
		t.Fatalf("AccessPath = %q, want %q", got, want)
	}

	custom, err := New(&fakeS3{}, "bucket", "us-east-1", "https://cdn.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	if got := custom.AccessPath("a.jpg"); got != "https://cdn.example.com/a.jpg" {
		t.Fatalf("AccessPath = %q", got)
	}
}

func TestListFollowsPages(t *testing.T) {
	t.Parallel()

	client := &fakeS3{pages: [][]string{{"0001.jpg", "raw/0001.jpg"}, {"0002.jpg"}}}
	p, err := New(client, "bucket", "ap-northeast-1", "")
	if err != nil {
		t.Fatal(err)
	}
	keys, err := p.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 3 || client.calls != 2 {
		t.Fatalf("keys=%v calls=%d", keys, client.calls)
	}
}

func TestLatestImageThroughService(t *testing.T) {
	t.Parallel()

	client := &fakeS3{
		pages: [][]string{{"raw/0001.jpg", "0001.jpg", "0002.jpg", "0003.jpg"}},
		objects: map[string]string{
			"0003.jpg": "current",
		},
	}
	p, err := New(client, "bucket", "ap-northeast-1", "")
	if err != nil {
		t.Fatal(err)
	}
	img, err := media.NewService(nil, p, "raw").LatestImage(context.Background())
	if err != nil {
		t.Fatalf("LatestImage: %v", err)
	}
	if img.Key != "0003.jpg" || string(img.Body) != "current" {
		t.Fatalf("unexpected image %s %q", img.Key, img.Body)
	}
}
