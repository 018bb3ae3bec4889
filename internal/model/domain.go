package model

// FieldKind hints how a field should be edited.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
)

// Field describes one editable attribute of a domain record.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind
}

// Domain describes one content collection: its REST path (which doubles as
// the table name) and the ordered attribute schema of its records. The three
// collections share identical behavior and differ only in this config.
type Domain struct {
	Name   string // path segment and table name, e.g. "planets"
	Title  string // singular display name, e.g. "Planet"
	Fields []Field
}

var (
	Planets = Domain{
		Name:  "planets",
		Title: "Planet",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: FieldText},
			{Key: "distance_from_sun", Label: "Distance from Sun", Kind: FieldText},
			{Key: "diameter", Label: "Diameter", Kind: FieldText},
			{Key: "orbital_period", Label: "Orbital Period", Kind: FieldText},
			{Key: "details", Label: "Details", Kind: FieldTextarea},
		},
	}

	Asteroids = Domain{
		Name:  "asteroids",
		Title: "Asteroid",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: FieldText},
			{Key: "discovery_year", Label: "Discovery Year", Kind: FieldText},
			{Key: "diameter", Label: "Diameter", Kind: FieldText},
			{Key: "distance_from_sun", Label: "Distance from Sun", Kind: FieldText},
			{Key: "details", Label: "Details", Kind: FieldTextarea},
		},
	}

	Comets = Domain{
		Name:  "comets",
		Title: "Comet",
		Fields: []Field{
			{Key: "name", Label: "Name", Kind: FieldText},
			{Key: "distance_from_sun", Label: "Distance from Sun", Kind: FieldText},
			{Key: "orbital_period", Label: "Orbital Period", Kind: FieldText},
			{Key: "last_observed", Label: "Last Observed", Kind: FieldText},
			{Key: "image_url", Label: "Image URL", Kind: FieldText},
			{Key: "details", Label: "Details", Kind: FieldTextarea},
		},
	}
)

// Domains lists every content collection, in navigation order. These are
// also the valid quiz categories.
var Domains = []Domain{Planets, Asteroids, Comets}

// DomainByName looks up a domain config by its path segment.
func DomainByName(name string) (Domain, bool) {
	for _, d := range Domains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}

// FieldKeys returns the attribute keys in schema order.
func (d Domain) FieldKeys() []string {
	keys := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		keys[i] = f.Key
	}
	return keys
}

// HasField reports whether key belongs to this domain's schema.
func (d Domain) HasField(key string) bool {
	for _, f := range d.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
