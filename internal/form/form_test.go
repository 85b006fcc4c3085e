package form

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func dataURL(mediaType string, raw []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, apperr.ErrValidation)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	return fe.Fields
}

func TestValidateCreate_Valid(t *testing.T) {
	err := ValidateCreate(models.Fields{
		Title:       models.Ptr("Launch"),
		Description: models.Ptr("  we are live  "),
		Status:      models.Ptr(models.StatusPublished),
		PublishDate: models.Ptr("2026-03-01"),
		Image:       models.Ptr(dataURL("image/png", pngBytes(t))),
	})
	require.NoError(t, err)
}

func TestValidateCreate_RequiredFields(t *testing.T) {
	fields := fieldErrors(t, ValidateCreate(models.Fields{}))
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "description")

	fields = fieldErrors(t, ValidateCreate(models.Fields{
		Title:       models.Ptr("   "),
		Description: models.Ptr("\n\t"),
	}))
	require.Equal(t, "title is required", fields["title"])
	require.Equal(t, "description is required", fields["description"])
}

func TestValidateCreate_BadFields(t *testing.T) {
	fields := fieldErrors(t, ValidateCreate(models.Fields{
		Title:       models.Ptr("x"),
		Description: models.Ptr("y"),
		Status:      models.Ptr(models.Status("Archived")),
		PublishDate: models.Ptr("01/03/2026"),
	}))
	require.Len(t, fields, 2)
	require.Contains(t, fields, "status")
	require.Contains(t, fields, "publishDate")
}

func TestValidateUpdate_OnlySubmittedFields(t *testing.T) {
	require.NoError(t, ValidateUpdate(models.Fields{}))
	require.NoError(t, ValidateUpdate(models.Fields{Status: models.Ptr(models.StatusDraft)}))

	fields := fieldErrors(t, ValidateUpdate(models.Fields{Title: models.Ptr(" ")}))
	require.Equal(t, map[string]string{"title": "title is required"}, fields)
}

func TestValidateUpdate_EmptyStatusRejected(t *testing.T) {
	for _, st := range []models.Status{"", "Archived"} {
		fields := fieldErrors(t, ValidateUpdate(models.Fields{Status: models.Ptr(st)}))
		require.Equal(t, map[string]string{"status": "status must be Draft or Published"}, fields, "status %q", st)
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: map[string]string{"title": "title is required", "description": "description is required"}}
	require.Equal(t, "validation failed: description: description is required; title: title is required", err.Error())
}

func TestValidateImage(t *testing.T) {
	png := pngBytes(t)
	jpg := jpegBytes(t)

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"png", dataURL("image/png", png), false},
		{"jpeg", dataURL("image/jpeg", jpg), false},
		{"declared type is case-insensitive", dataURL("IMAGE/PNG", png), false},
		{"gif rejected", dataURL("image/gif", []byte("GIF89a....")), true},
		{"declared png holding jpeg", dataURL("image/png", jpg), true},
		{"declared png holding text", dataURL("image/png", []byte("hello world")), true},
		{"not a data url", "https://example.com/a.png", true},
		{"not base64", "data:image/png,rawbytes", true},
		{"bad base64", "data:image/png;base64,!!!!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateImage_Size(t *testing.T) {
	// A PNG header followed by padding, so only the size rule can fail.
	header := pngBytes(t)
	atLimit := append(append([]byte{}, header...), make([]byte, MaxImageSize-len(header))...)
	require.NoError(t, ValidateImage(dataURL("image/png", atLimit)))

	over := append(atLimit, 0)
	err := ValidateImage(dataURL("image/png", over))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "1MB"))
}

func TestValidateCreate_ImageFieldError(t *testing.T) {
	fields := fieldErrors(t, ValidateCreate(models.Fields{
		Title:       models.Ptr("x"),
		Description: models.Ptr("y"),
		Image:       models.Ptr(dataURL("image/gif", []byte("GIF89a"))),
	}))
	require.Equal(t, map[string]string{"image": "only JPG and PNG images are allowed"}, fields)
}
