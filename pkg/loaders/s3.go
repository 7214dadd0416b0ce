package loaders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/imready-go/imready/pkg/ready"
)

// S3API is the slice of the S3 client the object loader needs.
type S3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Resource is a checkable object stored in S3.
type S3Resource struct {
	Bucket string
	Key    string
}

// S3Kind is the resource-kind discriminator for S3 objects.
const S3Kind = "s3"

func (r *S3Resource) Kind() string { return S3Kind }

// S3Object returns a loader factory for S3Resource values. HeadObject
// supplies the metadata for pre-ready; GetObject plus a full drain supplies
// ready.
func S3Object(api S3API) ready.LoaderFactory {
	return func(res ready.Resource, _ ready.LoaderConfig) ready.Loader {
		return &s3Loader{res: res, api: api}
	}
}

type s3Loader struct {
	ready.LoaderBase
	res ready.Resource
	api S3API

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func (l *s3Loader) Check() {
	obj, ok := l.res.(*S3Resource)
	if !ok || obj.Bucket == "" || obj.Key == "" {
		l.OnError(l.res)
		l.OnReady()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancelMu.Lock()
	l.cancel = cancel
	l.cancelMu.Unlock()

	go l.fetch(ctx, obj)
}

func (l *s3Loader) Destroy() {
	l.cancelMu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancelMu.Unlock()
	l.Events().RemoveAll()
}

func (l *s3Loader) fetch(ctx context.Context, obj *S3Resource) {
	_, err := l.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		l.OnError(fmt.Errorf("loaders: s3 head %s/%s: %w", obj.Bucket, obj.Key, err))
		l.OnReady()
		return
	}
	l.OnPreReady()

	out, err := l.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		l.OnError(fmt.Errorf("loaders: s3 get %s/%s: %w", obj.Bucket, obj.Key, err))
		l.OnReady()
		return
	}
	defer out.Body.Close()
	if _, err := io.Copy(io.Discard, out.Body); err != nil {
		l.OnError(err)
	}
	l.OnReady()
}
