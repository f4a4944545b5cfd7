package storage

import (
	"path"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// KeyPrefix namespaces every uploaded object.
const KeyPrefix = "social-media"

// NewObjectKey returns a unique key for an upload by ownerID, keeping the file extension.
// Keys sort by upload time and look like social-media/<owner>/<ulid>.jpg.
func NewObjectKey(ownerID uint, filename string) string {
	return KeyPrefix + "/" + strconv.FormatUint(uint64(ownerID), 10) + "/" + strings.ToLower(ulid.Make().String()) + cleanExt(filename)
}

// OwnerOf returns the uploader id encoded in key.
func OwnerOf(key string) (uint, bool) {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) != 3 || parts[0] != KeyPrefix || parts[2] == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ValidKey reports whether key is a well formed object key without path traversal.
func ValidKey(key string) bool {
	if strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return false
	}
	_, ok := OwnerOf(key)
	return ok
}

func cleanExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
