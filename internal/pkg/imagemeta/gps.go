package imagemeta

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractGPS reads the GPS coordinates embedded in the photo's EXIF data.
// Returns ok=false when the photo carries no EXIF block or no usable GPS
// tags; that is a normal condition, not an error.
func ExtractGPS(data []byte) (lat, lng float64, ok bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}

	lat, lng, err = x.LatLong()
	if err != nil {
		return 0, 0, false
	}

	return lat, lng, true
}
