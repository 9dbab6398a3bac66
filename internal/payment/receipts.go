package payment

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

// MaxReceiptSize bounds a single receipt upload.
const MaxReceiptSize = 10 << 20

var receiptTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// ReceiptStore is the blob bucket receipts are kept in.
type ReceiptStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (datastore.BlobObject, error)
	List(ctx context.Context, prefix string) ([]datastore.BlobObject, error)
}

func receiptPrefix(paymentID string) string {
	return path.Join("payments", paymentID) + "/"
}

func receiptKey(paymentID, contentType string) string {
	return receiptPrefix(paymentID) + uuid.NewString() + receiptTypes[contentType]
}

func validateReceipt(size int64, contentType string) *internal.AppError {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := receiptTypes[contentType]; !ok {
		return internal.NewValidationFieldError("file", "receipt must be a PDF, JPEG or PNG", internal.ErrCodeValidationFailed)
	}
	if size <= 0 || size > MaxReceiptSize {
		return internal.NewValidationFieldError("file", "receipt must be between 1 byte and 10 MB", internal.ErrCodeValidationFailed)
	}
	return nil
}

func toReceipt(obj datastore.BlobObject) Receipt {
	return Receipt{
		Key:         obj.Key,
		URL:         obj.URL,
		Size:        obj.Size,
		ContentType: obj.ContentType,
		UploadedAt:  obj.LastModified,
	}
}
