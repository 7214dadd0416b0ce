package loaders

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imready-go/imready/pkg/ready"
)

type fakeS3 struct {
	headErr error
	getErr  error
	body    string
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3LoaderSucceeds(t *testing.T) {
	api := &fakeS3{body: "object bytes"}
	m := ready.New(ready.WithLoader(S3Kind, S3Object(api)))
	defer m.Destroy()

	res := &S3Resource{Bucket: "assets", Key: "hero.png"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 0 || rdy.TotalCount != 1 {
		t.Errorf("ready = %+v, want one clean resource", rdy)
	}
}

func TestS3LoaderHeadFailure(t *testing.T) {
	api := &fakeS3{headErr: errors.New("no such key")}
	m := ready.New(ready.WithLoader(S3Kind, S3Object(api)))
	defer m.Destroy()

	res := &S3Resource{Bucket: "assets", Key: "missing.png"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 {
		t.Errorf("ready errorCount = %d, want 1", rdy.ErrorCount)
	}
}

func TestS3LoaderGetFailureAfterPreReady(t *testing.T) {
	api := &fakeS3{getErr: errors.New("throttled")}
	m := ready.New(ready.WithLoader(S3Kind, S3Object(api)))
	defer m.Destroy()

	res := &S3Resource{Bucket: "assets", Key: "hero.png"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 {
		t.Errorf("ready errorCount = %d, want 1", rdy.ErrorCount)
	}
	if !r.manager.IsPreReady() {
		t.Error("head succeeded, batch should be pre-ready despite the failed get")
	}
}

func TestS3LoaderRejectsWrongResource(t *testing.T) {
	m := ready.New(ready.WithLoader(S3Kind, S3Object(&fakeS3{})))
	defer m.Destroy()

	res := &URLResource{ResourceKind: S3Kind, URL: "https://example.com/x"}
	r := checkBatch(t, m, []ready.Resource{res})

	rdy := r.waitReady(t)
	if rdy.ErrorCount != 1 {
		t.Errorf("ready errorCount = %d, want 1 for a non-S3 resource", rdy.ErrorCount)
	}
}
