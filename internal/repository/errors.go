package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the image could not be fetched
	ErrImageNotFound = errors.New("image not found")

	// ErrRepositoryUnavailable indicates no fetcher can serve the URL
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
