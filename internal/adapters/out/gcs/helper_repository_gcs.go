// internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"fmt"
	"path"
	"strings"
)

// sanitizePathSegment normalizes a path segment for GCS object paths.
//
//   - removes separators
//   - trims dots/spaces
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.Trim(s, ". ")
	return s
}

// receiptObjectPath builds receipts/{uid}/{orderId}.json.
func receiptObjectPath(prefix, uid, orderID string) (string, error) {
	u := sanitizePathSegment(uid)
	o := sanitizePathSegment(orderID)
	if u == "" || o == "" {
		return "", fmt.Errorf("gcs: receipt path needs uid and order id")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = defaultReceiptPrefix
	}
	return path.Join(prefix, u, o+".json"), nil
}

// gsURL formats gs://bucket/object.
func gsURL(bucket, objectPath string) string {
	return "gs://" + bucket + "/" + strings.TrimLeft(objectPath, "/")
}
