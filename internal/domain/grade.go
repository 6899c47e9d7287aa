package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

type Role string

const (
	RoleSize  Role = "size"
	RoleColor Role = "color"
	RoleAttr  Role = "attr"
)

// HasCode reports whether values of this role carry a 2-digit code.
func (r Role) HasCode() bool { return r == RoleSize || r == RoleColor }

type Orientation string

const (
	OrientationColumns Orientation = "colunas"
	OrientationRows    Orientation = "linhas"
)

// Value is one value of a grade axis ("P", "Preto", ...).
type Value struct {
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}

// Axis is one grade parameter: size, color or any other attribute.
type Axis struct {
	Key    string  `json:"chave"`
	Role   Role    `json:"role"`
	Values []Value `json:"valores"`
}

// Labels returns the value labels in order.
func (a Axis) Labels() []string {
	out := make([]string, len(a.Values))
	for i, v := range a.Values {
		out[i] = v.Label
	}
	return out
}

// Grade is the variation payload stored with the product.
type Grade struct {
	Axes        []Axis      `json:"parametros"`
	Orientation Orientation `json:"orientacao"`
}

// Attr is one axis assignment inside a Combo.
type Attr struct {
	Key   string
	Value string
}

// Combo is one row of the variant grid: one value per axis, in axis order.
// It marshals as a JSON object whose keys keep that order.
type Combo []Attr

// Get returns the value for key.
func (c Combo) Get(key string) (string, bool) {
	for _, a := range c {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Map returns the mapping view of the combo.
func (c Combo) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, a := range c {
		m[a.Key] = a.Value
	}
	return m
}

// Values returns the assigned values in axis order.
func (c Combo) Values() []string {
	out := make([]string, len(c))
	for i, a := range c {
		out[i] = a.Value
	}
	return out
}

func (c Combo) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(a.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Combo) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("combo: se esperaba un objeto JSON")
	}
	out := Combo{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var val string
		if err := dec.Decode(&val); err != nil {
			return err
		}
		out = append(out, Attr{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// GradeRow is one generated row of the grade.
type GradeRow struct {
	Combo Combo  `json:"combo"`
	EAN13 string `json:"ean13"`
	SKU   string `json:"sku"`
}

// Selection policy recorded in GradeMeta.Policy.
const (
	PolicyRole       = "role"
	PolicyPositional = "positional"
)

// GradeMeta records how the codes were generated.
type GradeMeta struct {
	Ref          string            `json:"ref"`
	Base         string            `json:"base"`
	ParamTamanho string            `json:"param_tamanho"`
	ParamCor     string            `json:"param_cor"`
	MapTamanho   map[string]string `json:"map_tamanho"`
	MapCor       map[string]string `json:"map_cor"`
	Policy       string            `json:"policy"`
	Count        int               `json:"count"`
}
