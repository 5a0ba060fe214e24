package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// AzureBlobFetcher implements ImageFetcher for pages kept in Azure Blob
// Storage, authenticated with a shared key.
type AzureBlobFetcher struct {
	client        *azblob.Client
	maxImageBytes int64
}

func NewAzureBlobFetcher(accountName string, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, azureBlobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &AzureBlobFetcher{
		client:        client,
		maxImageBytes: DefaultHTTPFetcherOptions().MaxImageBytes,
	}, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(io.LimitReader(resp.Body, s.maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// BlobAccount returns the storage account named by an Azure blob host
// such as acct.blob.core.windows.net. ok is false for any other host.
func BlobAccount(host string) (account string, ok bool) {
	host = strings.ToLower(host)
	account, ok = strings.CutSuffix(host, azureBlobHostSuffix)
	if !ok || account == "" || strings.Contains(account, ".") {
		return "", false
	}
	return account, true
}

// ParseBlobURL splits a blob URL into container and blob name. Both
// /container/path/to/blob and /container?blob=name forms are accepted.
func ParseBlobURL(blobURL string) (string, string, error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	containerName, blobName, _ := strings.Cut(path, "/")
	if blobName == "" {
		blobName = u.Query().Get("blob")
	}
	if containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("invalid blob URL: missing container or blob name")
	}
	return containerName, blobName, nil
}
