package form

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted decoded image.
const MaxImageSize = 1024 * 1024

var allowedImageTypes = []string{"image/jpeg", "image/png"}

var (
	errImageType = errors.New("only JPG and PNG images are allowed")
	errImageSize = errors.New("image must be 1MB or smaller")
)

// ValidateImage checks a base64 data URL. The declared type and the sniffed
// content must both be JPEG or PNG, and the decoded bytes must fit in
// MaxImageSize.
func ValidateImage(dataURL string) error {
	declared, payload, err := splitDataURL(dataURL)
	if err != nil {
		return err
	}
	if !allowedType(declared) {
		return errImageType
	}
	// Reject on encoded length first so oversized payloads are never decoded.
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+2 {
		return errImageSize
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(raw) > MaxImageSize {
		return errImageSize
	}
	if !mimetype.Detect(raw).Is(declared) {
		return errImageType
	}
	return nil
}

func splitDataURL(s string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", "", errors.New("image must be a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", errors.New("image must be a data URL")
	}
	mediaType, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", "", errors.New("image data URL must be base64 encoded")
	}
	return strings.ToLower(mediaType), payload, nil
}

func allowedType(mediaType string) bool {
	for _, t := range allowedImageTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}
