package report

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// GenericImageType is sent when the image type cannot be inferred.
const GenericImageType = "image/*"

// coordinatePrecision is the number of decimal places sent for each coordinate.
const coordinatePrecision = 6

var extPattern = regexp.MustCompile(`\.([A-Za-z0-9]+)$`)

var imageTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// Composer turns drafts into submissions. It never touches the network
// or a device capability.
type Composer struct {
	imageField string
}

// NewComposer creates a Composer naming the binary part imageField.
func NewComposer(imageField string) *Composer {
	if imageField == "" {
		imageField = "image"
	}
	return &Composer{imageField: imageField}
}

// Compose validates d and produces its transport form. Checks run in order
// description, category, location; the first failure is returned.
func (c *Composer) Compose(d domain.Draft) (domain.Submission, error) {
	text := strings.TrimSpace(d.Description)
	if text == "" {
		return domain.Submission{}, domain.NewValidationError("description", "description required")
	}

	category, ok := domain.ParseCategory(d.Category)
	if !ok {
		return domain.Submission{}, domain.NewValidationError("category", "category required")
	}

	if d.Coordinates == nil || !d.Coordinates.IsFinite() {
		return domain.Submission{}, domain.NewValidationError("location", "location required")
	}

	sub := domain.Submission{
		Text:      text,
		Category:  category,
		Latitude:  formatCoordinate(d.Coordinates.Latitude),
		Longitude: formatCoordinate(d.Coordinates.Longitude),
	}

	if d.Image != nil && (d.Image.URI != "" || d.Image.Data != nil) {
		sub.Image = c.imagePart(d.Image)
	}

	return sub, nil
}

func (c *Composer) imagePart(img *domain.ImageDraft) *domain.ImagePart {
	filename := img.Filename
	if filename == "" {
		filename = filenameFromURI(img.URI)
	}
	if filename == "" {
		filename = "image"
	}

	return &domain.ImagePart{
		Field:       c.imageField,
		Filename:    filename,
		ContentType: contentType(filename),
		URI:         img.URI,
		Data:        img.Data,
	}
}

// contentType maps the filename extension to an image type. The type
// reported by the picker is not trusted; unknown or missing extensions
// yield GenericImageType.
func contentType(filename string) string {
	if m := extPattern.FindStringSubmatch(filename); m != nil {
		if t, ok := imageTypes[strings.ToLower(m[1])]; ok {
			return t
		}
	}
	return GenericImageType
}

func filenameFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	name := path.Base(strings.ReplaceAll(uri, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', coordinatePrecision, 64)
}
