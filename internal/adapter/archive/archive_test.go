package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 14, 5, 9, 0, time.UTC) }

func TestParse(t *testing.T) {
	a, err := Parse(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = Parse(context.Background(), "dir:/tmp/invoices")
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, a)

	for _, bad := range []string{"dir:", "s3://", "ftp://host/x"} {
		_, err := Parse(context.Background(), bad)
		assert.Error(t, err, bad)
	}
}

func TestDirPut(t *testing.T) {
	root := filepath.Join(t.TempDir(), "invoices")
	d := NewDir(root)
	d.now = fixedNow

	require.NoError(t, d.Put(context.Background(), 42, []byte("%PDF")))

	data, err := os.ReadFile(filepath.Join(root, "invoice-42-20261015T140509Z.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Put(t *testing.T) {
	fake := &fakePutter{}
	s := NewS3(fake, "farm-invoices", "/console/2026/")
	s.now = fixedNow

	require.NoError(t, s.Put(context.Background(), 7, []byte("%PDF-7")))
	assert.Equal(t, "farm-invoices", *fake.in.Bucket)
	assert.Equal(t, "console/2026/invoice-7-20261015T140509Z.pdf", *fake.in.Key)
	assert.Equal(t, "application/pdf", *fake.in.ContentType)
	assert.Equal(t, "%PDF-7", string(fake.body))

	fake.err = errors.New("access denied")
	assert.Error(t, s.Put(context.Background(), 7, nil))
}
