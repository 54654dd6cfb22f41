package models

// OptionData is one choice of an options field.
type OptionData struct {
	Label    string `json:"label" msgpack:"label"`
	Value    string `json:"value" msgpack:"value"`
	Selected bool   `json:"selected" msgpack:"selected"`
}

// SingleOptionValue is the value of a one-of field.
type SingleOptionValue struct {
	Value   string       `json:"value"`
	Label   string       `json:"label"`
	Options []OptionData `json:"options"`
}

func (v SingleOptionValue) String() string {
	return v.Value
}

// MultiOptionValue is the value of a many-of field. Malformed marks a scalar
// submitted where a list was expected.
type MultiOptionValue struct {
	Selections []OptionData `json:"selections"`
	Options    []OptionData `json:"options"`
	Malformed  bool         `json:"-"`
}

func (v MultiOptionValue) Values() []string {
	values := make([]string, 0, len(v.Selections))
	for _, selection := range v.Selections {
		values = append(values, selection.Value)
	}
	return values
}

// Upload is a file received with a submission that has not been stored yet.
type Upload struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type,omitempty"`
	Content  []byte `json:"-"`
}

// RelationValue references target records by id, plus pending uploads.
type RelationValue struct {
	IDs     []int64  `json:"ids"`
	Uploads []Upload `json:"-"`
}
