package children

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	defaultPhotoExts = map[imaging.Format]string{
		imaging.JPEG: ".jpg",
		imaging.PNG:  ".png",
		imaging.GIF:  ".gif",
		imaging.BMP:  ".bmp",
		imaging.TIFF: ".tiff",
	}
)

type photo struct {
	name    string
	content []byte
}

// preparePhoto checks that the upload is a decodable image, fits it in a
// maxDimension square and names it child-<unix ms>-<random><ext>.
func preparePhoto(upload *shared.Upload, maxDimension int, randomDigits string) (photo, error) {
	if !strings.HasPrefix(upload.Mimetype, "image/") {
		return photo{}, shared.NewValidationError("Only image files are allowed for the photo.")
	}

	img, err := imaging.Decode(bytes.NewReader(upload.Content), imaging.AutoOrientation(true))
	if err != nil {
		return photo{}, shared.NewValidationError("The photo could not be decoded.")
	}

	format, err := imaging.FormatFromFilename(upload.Filename)
	if err != nil {
		format = imaging.JPEG
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, err := imaging.FormatFromExtension(ext); err != nil || ext == "" {
		ext = defaultPhotoExts[format]
	}

	bounds := img.Bounds()
	content := upload.Content
	if maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension) {
		resized := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, resized, format); err != nil {
			return photo{}, errors.Wrap(err, "failed to encode photo")
		}
		content = buf.Bytes()
	}

	return photo{
		name:    fmt.Sprintf("child-%d-%s%s", time.Now().UnixNano()/int64(time.Millisecond), randomDigits, ext),
		content: content,
	}, nil
}
