package repository

import (
	"context"
	"errors"
	"image"
	"testing"

	"go-page-translator/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	name  string
	err   error
	calls []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	s.calls = append(s.calls, imageURL)
	if s.err != nil {
		return nil, s.err
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestPageImageRepositoryRouting(t *testing.T) {
	httpFetcher := &stubFetcher{name: "http"}
	blobFetcher := &stubFetcher{name: "blob"}
	repo := NewPageImageRepository(httpFetcher, blobFetcher, nil)
	ctx := context.Background()

	_, err := repo.FetchImage(ctx, "https://acct.blob.core.windows.net/pages/p1.png")
	require.NoError(t, err)
	_, err = repo.FetchImage(ctx, "https://example.com/p1.png")
	require.NoError(t, err)

	assert.Len(t, blobFetcher.calls, 1)
	assert.Len(t, httpFetcher.calls, 1)
}

func TestPageImageRepositoryWithoutBlobFetcher(t *testing.T) {
	httpFetcher := &stubFetcher{}
	repo := NewPageImageRepository(httpFetcher, nil, nil)

	_, err := repo.FetchImage(context.Background(), "https://acct.blob.core.windows.net/pages/p1.png")
	require.NoError(t, err)
	assert.Len(t, httpFetcher.calls, 1)
}

func TestPageImageRepositoryErrors(t *testing.T) {
	repo := NewPageImageRepository(&stubFetcher{err: errors.New("status 404")}, nil, nil)

	_, err := repo.FetchImage(context.Background(), "ftp://example.com/p1.png")
	assert.ErrorIs(t, err, ErrInvalidImageURL)

	_, err = repo.FetchImage(context.Background(), "https://example.com/p1.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), "status 404")

	_, err = NewPageImageRepository(nil, nil, nil).FetchImage(context.Background(), "https://example.com/p1.png")
	assert.ErrorIs(t, err, ErrRepositoryUnavailable)
}

func TestPageImageRepositoryRejectsForeignBlobAccount(t *testing.T) {
	blobFetcher := &stubFetcher{}
	validator := validation.NewURLValidatorWithPolicy(validation.URLPolicy{BlobAccounts: []string{"scans"}})
	repo := NewPageImageRepository(&stubFetcher{}, blobFetcher, validator)

	_, err := repo.FetchImage(context.Background(), "https://other.blob.core.windows.net/pages/p1.png")
	assert.ErrorIs(t, err, ErrInvalidImageURL)
	assert.Empty(t, blobFetcher.calls)

	_, err = repo.FetchImage(context.Background(), "https://scans.blob.core.windows.net/pages/p1.png")
	require.NoError(t, err)
	assert.Len(t, blobFetcher.calls, 1)
}
