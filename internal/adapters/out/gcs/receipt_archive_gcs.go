// internal/adapters/out/gcs/receipt_archive_gcs.go
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"

	orderdom "storefront/internal/domain/order"
)

const defaultReceiptPrefix = "receipts"

// ReceiptArchiveGCS writes one JSON object per placed order.
type ReceiptArchiveGCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewReceiptArchiveGCS(client *storage.Client, bucket string) *ReceiptArchiveGCS {
	return &ReceiptArchiveGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Prefix: defaultReceiptPrefix,
	}
}

// Archive stores the order and returns its gs:// location.
func (r *ReceiptArchiveGCS) Archive(ctx context.Context, o orderdom.Order) (string, error) {
	if r.Client == nil {
		return "", errors.New("ReceiptArchiveGCS: nil storage client")
	}
	if r.Bucket == "" {
		return "", errors.New("ReceiptArchiveGCS: bucket is empty")
	}

	objectPath, err := receiptObjectPath(r.Prefix, o.UserID, o.ID)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return "", fmt.Errorf("gcs: encode receipt %s: %w", o.ID, err)
	}

	w := r.Client.Bucket(r.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"orderId": o.ID,
		"userId":  o.UserID,
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write receipt %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close receipt %s: %w", objectPath, err)
	}
	return gsURL(r.Bucket, objectPath), nil
}
