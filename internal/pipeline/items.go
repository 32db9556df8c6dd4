package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoImages      = errors.New("at least one image is required")
	ErrCountMismatch = errors.New("count does not match number of images")
)

// Upload is one image as received from a caller. Rejected is set when the
// caller already refused the file; the item then fails without being analysed.
type Upload struct {
	Name     string
	Data     []byte
	Rejected error
}

// Item is one unit of batch work: an image analysed for a city and panel type.
type Item struct {
	ImageName string
	Data      []byte
	City      string
	PanelType string
	Rejected  error
}

// BuildItems pairs uploads with cities and panel types. Each of cities and
// panels may be empty (the default applies to every image), hold a single
// value (applied to every image), or hold exactly one value per image.
func BuildItems(uploads []Upload, cities, panels []string, defaultCity, defaultPanel string) ([]Item, error) {
	if len(uploads) == 0 {
		return nil, ErrNoImages
	}

	cityFor, err := expand("cities", cities, len(uploads), defaultCity)
	if err != nil {
		return nil, err
	}
	panelFor, err := expand("panel types", panels, len(uploads), defaultPanel)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(uploads))
	for i, u := range uploads {
		items[i] = Item{
			ImageName: u.Name,
			Data:      u.Data,
			City:      cityFor[i],
			PanelType: panelFor[i],
			Rejected:  u.Rejected,
		}
	}
	return items, nil
}

func expand(what string, values []string, n int, def string) ([]string, error) {
	out := make([]string, n)
	switch len(values) {
	case 0:
		for i := range out {
			out[i] = def
		}
	case 1:
		for i := range out {
			out[i] = values[0]
		}
	case n:
		copy(out, values)
	default:
		return nil, fmt.Errorf("%w: got %d %s for %d images", ErrCountMismatch, len(values), what, n)
	}
	return out, nil
}
