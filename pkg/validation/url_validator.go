package validation

import (
	"net/url"
	"strings"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/storage"
)

// SourceKind tells which fetcher serves a page URL
type SourceKind int

const (
	// HTTPSource pages are downloaded over plain HTTP(S)
	HTTPSource SourceKind = iota
	// BlobSource pages live in an Azure blob container
	BlobSource
)

// URLPolicy restricts where page images may be fetched from
type URLPolicy struct {
	Schemes []string

	// Hosts limits HTTP pages to these hosts. An entry of the form
	// "*.example.com" matches any subdomain. Empty allows every host.
	Hosts []string

	// BlobAccounts limits blob URLs to these storage accounts. Empty
	// allows every account.
	BlobAccounts []string
}

// URLValidator checks page image URLs and classifies their source
type URLValidator struct {
	policy URLPolicy
}

// NewURLValidator accepts any http or https page URL
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithPolicy(URLPolicy{})
}

func NewURLValidatorWithPolicy(policy URLPolicy) *URLValidator {
	if len(policy.Schemes) == 0 {
		policy.Schemes = []string{"http", "https"}
	}
	policy.Hosts = lowerAll(policy.Hosts)
	policy.BlobAccounts = lowerAll(policy.BlobAccounts)
	return &URLValidator{policy: policy}
}

// ValidateImageURL returns a validation AppError when imageURL cannot be
// fetched under the policy
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	_, err := v.Classify(imageURL)
	return err
}

// Classify validates imageURL and reports whether it names a blob or a
// plain HTTP page.
func (v *URLValidator) Classify(imageURL string) (SourceKind, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return HTTPSource, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	u, err := url.Parse(imageURL)
	if err != nil {
		return HTTPSource, apperrors.NewValidationError("Invalid URL format", err)
	}
	if !contains(v.policy.Schemes, strings.ToLower(u.Scheme)) {
		return HTTPSource, apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return HTTPSource, apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if u.User != nil {
		return HTTPSource, apperrors.NewValidationError("URL must not embed credentials", nil)
	}

	if account, ok := storage.BlobAccount(host); ok {
		return BlobSource, v.checkBlob(u, imageURL, account)
	}

	if !v.hostAllowed(host) {
		return HTTPSource, apperrors.NewValidationError("URL host not allowed", nil)
	}
	return HTTPSource, nil
}

func (v *URLValidator) checkBlob(u *url.URL, imageURL, account string) error {
	if !strings.EqualFold(u.Scheme, "https") {
		return apperrors.NewValidationError("blob URLs must use https", nil)
	}
	if len(v.policy.BlobAccounts) > 0 && !contains(v.policy.BlobAccounts, account) {
		return apperrors.NewValidationError("blob storage account not allowed", nil)
	}
	if _, _, err := storage.ParseBlobURL(imageURL); err != nil {
		return apperrors.NewValidationError("blob URL must name a container and a blob", err)
	}
	return nil
}

func (v *URLValidator) hostAllowed(host string) bool {
	if len(v.policy.Hosts) == 0 {
		return true
	}
	for _, allowed := range v.policy.Hosts {
		if suffix, ok := strings.CutPrefix(allowed, "*"); ok {
			if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func lowerAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
