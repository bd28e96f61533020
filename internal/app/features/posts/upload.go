// internal/app/features/posts/upload.go
package posts

import (
	"fmt"
	"path/filepath"
	"time"
)

// maxImageBytes caps multipart image uploads.
const maxImageBytes = 10 << 20 // 10 MB

// imagePath builds the storage key for a post image:
// topics/<topicID>/<postID>_<unix>_<sanitized-filename>. The timestamp keeps
// replaced images at distinct keys so delete-after-replace can never race
// the new upload.
func imagePath(topicID, postID, filename string) string {
	return fmt.Sprintf("topics/%s/%s_%d_%s",
		topicID, postID, time.Now().Unix(), sanitizeFilename(filename))
}

// sanitizeFilename removes or replaces characters that could be problematic
// in storage keys.
func sanitizeFilename(filename string) string {
	// Get just the filename, not any path components. Base maps "" and
	// bare separators to "." or "/", neither of which is a usable name.
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == "/" {
		return "file"
	}

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but preserve extension if present
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}

	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
