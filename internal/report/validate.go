package report

import (
	"bytes"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the largest accepted image (5 MiB).
const MaxImageBytes = 5 * 1024 * 1024

// sniffLen is how much of the image is read to detect its type.
const sniffLen = 3072

var imageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/webp",
}

// numericPattern accepts plain decimal and exponent notation only.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// checkedImage is an image whose type has been detected. body replays the
// sniffed prefix followed by the rest of the content.
type checkedImage struct {
	ext  string
	body io.Reader
}

type validated struct {
	description string
	lat, lng    float64
	image       *checkedImage
}

func validate(sub Submission) (*validated, error) {
	v := validation.New()
	out := &validated{description: sub.Description}

	if strings.TrimSpace(sub.Description) == "" {
		v.Add("description", validation.Required("description"))
	}

	out.lat = parseCoordinate(v, "latitude", sub.Latitude)
	out.lng = parseCoordinate(v, "longitude", sub.Longitude)

	if sub.Image != nil {
		img, err := checkImage(v, sub.Image)
		if err != nil {
			return nil, err
		}
		out.image = img
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseCoordinate(v *validation.Error, field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.Add(field, validation.Required(field))
		return 0
	}
	if !numericPattern.MatchString(raw) {
		v.Add(field, "The "+field+" field must be a number.")
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		v.Add(field, "The "+field+" field must be a number.")
		return 0
	}
	return f
}

// checkImage records size and type problems on v. A non-nil error means the
// content could not be read at all.
func checkImage(v *validation.Error, img *Image) (*checkedImage, error) {
	if img.Size > MaxImageBytes {
		v.Add("image", "The image field must not be greater than 5120 kilobytes.")
		return nil, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, storageErr("read image", err)
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	if n == 0 || !isImage(mime) {
		v.Add("image", "The image field must be an image.")
		return nil, nil
	}

	body := io.MultiReader(bytes.NewReader(head), img.Content)
	return &checkedImage{
		ext:  mime.Extension(),
		body: io.LimitReader(body, MaxImageBytes),
	}, nil
}

func isImage(mime *mimetype.MIME) bool {
	for _, t := range imageTypes {
		if mime.Is(t) {
			return true
		}
	}
	return false
}
