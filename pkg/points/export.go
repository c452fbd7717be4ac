package points

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/keyplate/pkg/config"
)

// Value renders the table as an ordered config map keyed by point name.
func (t *Table) Value() config.Value {
	out := config.EmptyMap()
	for _, k := range t.Keys() {
		out = out.With(k.Name, k.Value())
	}
	return out
}

// Value renders a key's placement and layout attributes.
func (k *Key) Value() config.Value {
	tags := make([]config.Value, len(k.Tags))
	for i, tag := range k.Tags {
		tags[i] = config.String(tag)
	}
	return config.MapOf(
		config.P("x", config.Number(k.X)),
		config.P("y", config.Number(k.Y)),
		config.P("r", config.Number(k.R)),
		config.P("mirrored", config.Bool(k.Mirrored)),
		config.P("zone", config.String(k.Zone.Name)),
		config.P("col", config.String(k.Col)),
		config.P("row", config.String(k.Row)),
		config.P("colrow", config.String(k.ColRow)),
		config.P("width", config.Number(k.Width)),
		config.P("height", config.Number(k.Height)),
		config.P("padding", config.Number(k.Padding)),
		config.P("bind", config.Numbers(k.Bind[:]...)),
		config.P("asym", config.String(k.Asym.String())),
		config.P("tags", config.Seq(tags...)),
	)
}

// WriteJSON writes the table as indented JSON in layout order.
func WriteJSON(w io.Writer, t *Table) error {
	data, err := json.MarshalIndent(t.Value(), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
