package address

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type service struct {
	basePath string
}

// NewService creates an address Service deriving below basePath, e.g. "m/44'/237'/0'/0".
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(basePath string) (Service, error) {
	basePath = strings.TrimSuffix(strings.TrimSpace(basePath), "/")
	if _, err := ParsePath(basePath); err != nil {
		return nil, errors.Wrap(err, "invalid base path")
	}

	return &service{
		basePath: basePath,
	}, nil
}

// GetBIP44Path gets the full derivation path for addressIndex
// Format: {basePath}/{index}
func (s *service) GetBIP44Path(addressIndex int) string {
	return fmt.Sprintf("%s/%d", s.basePath, addressIndex)
}
