// Package invoice resolves the attachment for a charging session. A
// pre-rendered image dropped in the invoice directory and named after
// the session ID beats the vendor-downloaded PDF, since the claim form
// renders images but not documents.
package invoice

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rjager/tankclaim/internal/domain"
)

// Extension preference, best first.
var preferred = []string{".jpg", ".jpeg", ".png", ".pdf"}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Resolve looks for a file matching "<sessionID>.*" anywhere under dir
// and returns it as an attachment. The second return is false when no
// file matches; dir may be empty, which also resolves to nothing.
func Resolve(dir, sessionID string) (domain.Attachment, bool, error) {
	if dir == "" || sessionID == "" {
		return domain.Attachment{}, false, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/"+sessionID+".*")
	if err != nil {
		return domain.Attachment{}, false, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return domain.Attachment{}, false, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return rank(matches[i]) < rank(matches[j])
	})

	path := filepath.Join(dir, filepath.FromSlash(matches[0]))
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Attachment{}, false, fmt.Errorf("read invoice: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return domain.Attachment{
		MimeType: mimeTypes[ext],
		Binary:   base64.StdEncoding.EncodeToString(data),
	}, true, nil
}

func rank(name string) int {
	ext := strings.ToLower(filepath.Ext(name))
	for i, p := range preferred {
		if ext == p {
			return i
		}
	}
	return len(preferred)
}
