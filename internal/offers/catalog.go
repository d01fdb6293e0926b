package offers

import (
	"cmp"
	_ "embed"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// DefaultSearchLimit caps hotel and entertainment results.
const DefaultSearchLimit = 4

//go:embed catalog.yaml
var builtinCatalog []byte

// Catalog is the fixed hotel and entertainment inventory near the venue.
type Catalog struct {
	Hotels        []models.Hotel         `yaml:"hotels"`
	Entertainment []models.Entertainment `yaml:"entertainment"`
}

// LoadCatalog parses a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// BuiltinCatalog returns the catalog shipped with the binary.
func BuiltinCatalog() (*Catalog, error) {
	return LoadCatalog(builtinCatalog)
}

// HotelQuery filters hotels for a stay.
type HotelQuery struct {
	CheckIn   time.Time
	CheckOut  time.Time
	Budget    float64
	Amenities []string
	Limit     int
}

// Nights returns the number of nights between check-in and check-out, at least one.
func (q HotelQuery) Nights() int {
	if q.CheckIn.IsZero() || q.CheckOut.IsZero() {
		return 1
	}
	n := int(math.Ceil(q.CheckOut.Sub(q.CheckIn).Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// SearchHotels prices every hotel for the stay, applies the budget and amenity
// filters and orders the result by distance to the venue.
func (c *Catalog) SearchHotels(q HotelQuery) []models.Hotel {
	nights := q.Nights()
	hotels := lo.Map(c.Hotels, func(h models.Hotel, _ int) models.Hotel {
		return priced(h, nights)
	})

	if q.Budget > 0 {
		maxPerNight := q.Budget / float64(nights)
		hotels = lo.Filter(hotels, func(h models.Hotel, _ int) bool {
			return h.PricePerNight <= maxPerNight
		})
	}
	if len(q.Amenities) > 0 {
		hotels = lo.Filter(hotels, func(h models.Hotel, _ int) bool {
			return lo.EveryBy(q.Amenities, func(want string) bool {
				return lo.SomeBy(h.Amenities, func(have string) bool {
					return strings.Contains(strings.ToLower(have), strings.ToLower(want))
				})
			})
		})
	}

	slices.SortStableFunc(hotels, func(a, b models.Hotel) int {
		return cmp.Compare(a.DistanceMiles, b.DistanceMiles)
	})
	return limit(hotels, q.Limit)
}

// EntertainmentQuery filters entertainment options.
type EntertainmentQuery struct {
	Preferences []string
	Budget      float64
	Limit       int
}

// SearchEntertainment matches preferences against type, name and description,
// applies the per-item budget and orders by rating.
func (c *Catalog) SearchEntertainment(q EntertainmentQuery) []models.Entertainment {
	items := append([]models.Entertainment(nil), c.Entertainment...)

	prefs := lo.Filter(q.Preferences, func(p string, _ int) bool { return strings.TrimSpace(p) != "" })
	if len(prefs) > 0 {
		items = lo.Filter(items, func(e models.Entertainment, _ int) bool {
			return lo.SomeBy(prefs, func(p string) bool {
				p = strings.ToLower(strings.TrimSpace(p))
				return strings.Contains(strings.ToLower(e.Type), p) ||
					strings.Contains(strings.ToLower(e.Name), p) ||
					strings.Contains(strings.ToLower(e.Description), p)
			})
		})
	}
	if q.Budget > 0 {
		items = lo.Filter(items, func(e models.Entertainment, _ int) bool { return e.Price <= q.Budget })
	}

	slices.SortStableFunc(items, func(a, b models.Entertainment) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	return limit(items, q.Limit)
}

// Hotel returns the catalog hotel with id priced for nights.
func (c *Catalog) Hotel(id string, nights int) (models.Hotel, bool) {
	h, ok := lo.Find(c.Hotels, func(h models.Hotel) bool { return h.ID == id })
	if !ok {
		return models.Hotel{}, false
	}
	return priced(h, nights), true
}

// EntertainmentByID returns the catalog entry with id.
func (c *Catalog) EntertainmentByID(id string) (models.Entertainment, bool) {
	return lo.Find(c.Entertainment, func(e models.Entertainment) bool { return e.ID == id })
}

func priced(h models.Hotel, nights int) models.Hotel {
	if nights < 1 {
		nights = 1
	}
	h.Amenities = append([]string(nil), h.Amenities...)
	h.Nights = nights
	h.TotalPrice = h.PricePerNight * float64(nights)
	return h
}

func limit[T any](items []T, n int) []T {
	if n <= 0 {
		n = DefaultSearchLimit
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
