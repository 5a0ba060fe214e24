package repository

import (
	"context"
	"fmt"
	"image"

	"go-page-translator/internal/storage"
	"go-page-translator/pkg/validation"
)

// ImageRepository defines the interface for page image access
type ImageRepository interface {
	// FetchImage retrieves a page image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// PageImageRepository routes Azure blob URLs to the blob fetcher when one
// is configured and everything else to HTTP.
type PageImageRepository struct {
	http      storage.ImageFetcher
	blob      storage.ImageFetcher
	validator *validation.URLValidator
}

// NewPageImageRepository creates a repository. blob may be nil.
func NewPageImageRepository(http, blob storage.ImageFetcher, validator *validation.URLValidator) *PageImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &PageImageRepository{http: http, blob: blob, validator: validator}
}

func (r *PageImageRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	kind, err := r.validator.Classify(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}

	fetcher := r.fetcherFor(kind)
	if fetcher == nil {
		return nil, ErrRepositoryUnavailable
	}

	img, err := fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}
	return img, nil
}

func (r *PageImageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	return nil
}

// fetcherFor falls back to HTTP for blob pages when no blob fetcher is
// configured; public containers serve plain HTTPS.
func (r *PageImageRepository) fetcherFor(kind validation.SourceKind) storage.ImageFetcher {
	if kind == validation.BlobSource && r.blob != nil {
		return r.blob
	}
	return r.http
}
