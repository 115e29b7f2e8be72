package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Options{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewS3ArchiverWithEndpoint(t *testing.T) {
	a, err := NewS3Archiver(context.Background(), Options{
		Endpoint:  "http://localhost:9000",
		Region:    "auto",
		Bucket:    "clinic-reports",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "clinic-reports", a.bucket)
}

func TestNoopPutFails(t *testing.T) {
	var a Archiver = Noop{}
	assert.ErrorIs(t, a.Put(context.Background(), "reports/x.csv", []byte("a"), "text/csv"), ErrDisabled)
}
