// Package s3blob implements blobstore.BlobStorage against an S3-compatible
// endpoint using pre-signed HTTP PUT/GET/HEAD, mirroring the original's
// blob_storage_s3.rs. Presigning itself is adapted from the teacher's
// pkg/serve/registry/s3/s3.go (aws-sdk-go-v2 config.LoadDefaultConfig +
// s3.NewPresignClient), generalized from a read-only registry cache to a
// full upload/download/exists blob backend.
package s3blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/harbackup/har/pkg/blobcrypt"
	"github.com/harbackup/har/pkg/blobhash"
	"github.com/harbackup/har/pkg/blobstore"
	"github.com/harbackup/har/pkg/chansync"
	"github.com/harbackup/har/pkg/harerr"
	"github.com/harbackup/har/pkg/harlog"
	"github.com/harbackup/har/pkg/tasks"
)

var log = harlog.For("blobstore.s3blob")

// presignedURLDuration matches the original's PRESIGNED_URL_DURATION.
const presignedURLDuration = time.Hour

// httpClient is overridable in tests.
var httpClient = http.DefaultClient

// Backend stores blobs as objects in one S3 bucket, addressed by
// pre-signed URLs minted fresh for every task.
type Backend struct {
	bucket  string
	signer  *s3.PresignClient
	encrypt blobcrypt.Codec
	helper  *tasks.Helper
}

// New constructs a Backend against endpoint/bucket using static
// credentials, loading the encryption key from encryptionKeyFile.
func New(ctx context.Context, endpoint, bucket, accessKey, secretKey, encryptionKeyFile string) (*Backend, error) {
	codec, err := blobcrypt.NewFromKeyFile(encryptionKeyFile)
	if err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, harerr.Wrap(harerr.Io, "loading aws config", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	signer := s3.NewPresignClient(s3Client)
	return &Backend{bucket: bucket, signer: signer, encrypt: codec, helper: tasks.NewHelper()}, nil
}

type uploadTask struct {
	ctx     context.Context
	signer  *s3.PresignClient
	bucket  string
	key     *string
	data    []byte
	encrypt blobcrypt.Codec
}

func (t uploadTask) Run(comm tasks.Comm) {
	key := ""
	if t.key != nil {
		key = *t.key
	} else {
		key = blobhash.Name(t.bucket, t.data)
	}

	ciphertext, err := t.encrypt.Encrypt(t.data)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while encrypting ("+err.Error()+")")
		return
	}

	presigned, err := t.signer.PresignPutObject(t.ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignedURLDuration))
	if err != nil {
		tasks.SendErrorEvent(comm, "error while presigning PUT ("+err.Error()+")")
		return
	}

	req, err := http.NewRequestWithContext(t.ctx, presigned.Method, presigned.URL, bytes.NewReader(ciphertext))
	if err != nil {
		tasks.SendErrorEvent(comm, "error while building PUT request ("+err.Error()+")")
		return
	}
	for name, values := range presigned.SignedHeader {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while uploading ("+err.Error()+")")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		tasks.SendErrorEvent(comm, httpStatusMessage("uploading", resp.StatusCode))
		return
	}

	tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindUploadSuccess, UploadKey: key})
}

type downloadTask struct {
	ctx     context.Context
	signer  *s3.PresignClient
	bucket  string
	key     string
	encrypt blobcrypt.Codec
}

func (t downloadTask) Run(comm tasks.Comm) {
	presigned, err := t.signer.PresignGetObject(t.ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key),
	}, s3.WithPresignExpires(presignedURLDuration))
	if err != nil {
		tasks.SendErrorEvent(comm, "error while presigning GET ("+err.Error()+")")
		return
	}

	req, err := http.NewRequestWithContext(t.ctx, presigned.Method, presigned.URL, nil)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while building GET request ("+err.Error()+")")
		return
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while downloading ("+err.Error()+")")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		tasks.SendErrorEvent(comm, httpStatusMessage("downloading", resp.StatusCode))
		return
	}

	ciphertext, err := io.ReadAll(resp.Body)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while reading response content ("+err.Error()+")")
		return
	}

	plaintext, err := t.encrypt.Decrypt(ciphertext)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while decrypting ("+err.Error()+")")
		return
	}

	tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindDownloadSuccess, DownloadBytes: plaintext})
}

type existsTask struct {
	ctx    context.Context
	signer *s3.PresignClient
	bucket string
	key    string
}

func (t existsTask) Run(comm tasks.Comm) {
	presigned, err := t.signer.PresignHeadObject(t.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.key),
	}, s3.WithPresignExpires(presignedURLDuration))
	if err != nil {
		tasks.SendErrorEvent(comm, "error while presigning HEAD ("+err.Error()+")")
		return
	}

	req, err := http.NewRequestWithContext(t.ctx, presigned.Method, presigned.URL, nil)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while building HEAD request ("+err.Error()+")")
		return
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		tasks.SendErrorEvent(comm, "error while head'ing ("+err.Error()+")")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindExistsSuccess, ExistsResult: false})
	case resp.StatusCode/100 == 2:
		tasks.SendEventContent(comm, blobstore.EventContent{Kind: blobstore.KindExistsSuccess, ExistsResult: true})
	default:
		tasks.SendErrorEvent(comm, httpStatusMessage("head'ing", resp.StatusCode))
	}
}

func httpStatusMessage(verb string, status int) string {
	return "error while " + verb + " (status " + strconv.Itoa(status) + " " + http.StatusText(status) + ")"
}

func (b *Backend) newUploadTask(data []byte, key *string) uploadTask {
	return uploadTask{ctx: context.Background(), signer: b.signer, bucket: b.bucket, key: key, data: data, encrypt: b.encrypt}
}

func (b *Backend) newDownloadTask(key string) downloadTask {
	return downloadTask{ctx: context.Background(), signer: b.signer, bucket: b.bucket, key: key, encrypt: b.encrypt}
}

func (b *Backend) newExistsTask(key string) existsTask {
	return existsTask{ctx: context.Background(), signer: b.signer, bucket: b.bucket, key: key}
}

func (b *Backend) Upload(data []byte, key *string) blobstore.TaskId {
	log.Debug().Msg("running upload task")
	return b.helper.RunTask(b.newUploadTask(data, key))
}

func (b *Backend) Download(key string) blobstore.TaskId {
	return b.helper.RunTask(b.newDownloadTask(key))
}

func (b *Backend) Exists(key string) blobstore.TaskId {
	return b.helper.RunTask(b.newExistsTask(key))
}

func (b *Backend) Events() chansync.Receiver[blobstore.Event] {
	return b.helper.Events()
}

func (b *Backend) UploadBlocking(data []byte, key *string) blobstore.UploadResult {
	events := tasks.RunBlocking(b.newUploadTask(data, key))
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindUploadSuccess:
			return blobstore.UploadResult{Key: ev.Content.UploadKey}
		case blobstore.KindErrorContent:
			return blobstore.UploadResult{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.UploadResult{Err: harerr.New(harerr.BadResult, "did not find upload event")}
}

func (b *Backend) DownloadBlocking(key string) blobstore.DownloadResult {
	events := tasks.RunBlocking(b.newDownloadTask(key))
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindDownloadSuccess:
			return blobstore.DownloadResult{Data: ev.Content.DownloadBytes}
		case blobstore.KindErrorContent:
			return blobstore.DownloadResult{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.DownloadResult{Err: harerr.New(harerr.BadResult, "did not find download event")}
}

func (b *Backend) ExistsBlocking(key string) blobstore.ExistsResultT {
	events := tasks.RunBlocking(b.newExistsTask(key))
	for _, ev := range events {
		switch ev.Content.Kind {
		case blobstore.KindExistsSuccess:
			return blobstore.ExistsResultT{Exists: ev.Content.ExistsResult}
		case blobstore.KindErrorContent:
			return blobstore.ExistsResultT{Err: ev.Content.ErrorValue}
		}
	}
	return blobstore.ExistsResultT{Err: harerr.New(harerr.BadResult, "did not find exists event")}
}
