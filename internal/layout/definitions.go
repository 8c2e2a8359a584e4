package layout

import (
	"fmt"
	"strconv"

	"github.com/robert-malhotra/go-sdds/internal/dtype"
	"github.com/robert-malhotra/go-sdds/internal/namelist"
)

// Parameter describes one per-page scalar. A non-nil FixedValue puts the
// value in the header; pages then omit it from their bodies.
type Parameter struct {
	Name        string
	Symbol      string
	Units       string
	Description string
	Format      string
	Type        dtype.Type
	FixedValue  *string
}

// Column describes one field of each tabular row. FieldLength is a hint
// for fixed-width ASCII fields; zero means free format.
type Column struct {
	Name        string
	Symbol      string
	Units       string
	Description string
	Format      string
	Type        dtype.Type
	FieldLength int32
}

// Array describes one per-page multi-dimensional block. Dimensions is the
// dimension count; the per-page sizes arrive with the data. GroupName ties
// arrays that share dimensions.
type Array struct {
	Name        string
	Symbol      string
	Units       string
	Description string
	Format      string
	GroupName   string
	Type        dtype.Type
	FieldLength int32
	Dimensions  int32
}

// Associate names a companion file carrying related data. SDDS reports
// whether the target is itself an SDDS file.
type Associate struct {
	Name        string
	Filename    string
	Path        string
	Description string
	Contents    string
	SDDS        bool
}

// Description is the optional &description block.
type Description struct {
	Text     string
	Contents string
}

// ParameterFromTag builds a Parameter from a parsed &parameter tag,
// rejecting unknown keys.
func ParameterFromTag(tag *namelist.Tag) (Parameter, error) {
	var p Parameter
	for _, f := range tag.Fields {
		switch f.Key {
		case "name":
			p.Name = f.Value
		case "symbol":
			p.Symbol = f.Value
		case "units":
			p.Units = f.Value
		case "description":
			p.Description = f.Value
		case "format_string":
			p.Format = f.Value
		case "type":
			t, err := dtype.Parse(f.Value)
			if err != nil {
				return p, fmt.Errorf("&parameter %s: %w", p.Name, err)
			}
			p.Type = t
		case "fixed_value":
			v := f.Value
			p.FixedValue = &v
		default:
			return p, unknownKeyError("parameter", f.Key)
		}
	}
	return p, checkDefinition("parameter", p.Name, p.Type)
}

// ColumnFromTag builds a Column from a parsed &column tag.
func ColumnFromTag(tag *namelist.Tag) (Column, error) {
	var c Column
	for _, f := range tag.Fields {
		switch f.Key {
		case "name":
			c.Name = f.Value
		case "symbol":
			c.Symbol = f.Value
		case "units":
			c.Units = f.Value
		case "description":
			c.Description = f.Value
		case "format_string":
			c.Format = f.Value
		case "type":
			t, err := dtype.Parse(f.Value)
			if err != nil {
				return c, fmt.Errorf("&column %s: %w", c.Name, err)
			}
			c.Type = t
		case "field_length":
			n, err := parseInt32(f.Value)
			if err != nil {
				return c, fmt.Errorf("&column %s: field_length: %w", c.Name, err)
			}
			c.FieldLength = n
		default:
			return c, unknownKeyError("column", f.Key)
		}
	}
	return c, checkDefinition("column", c.Name, c.Type)
}

// ArrayFromTag builds an Array from a parsed &array tag. A missing
// dimensions field means one dimension.
func ArrayFromTag(tag *namelist.Tag) (Array, error) {
	a := Array{Dimensions: 1}
	for _, f := range tag.Fields {
		switch f.Key {
		case "name":
			a.Name = f.Value
		case "symbol":
			a.Symbol = f.Value
		case "units":
			a.Units = f.Value
		case "description":
			a.Description = f.Value
		case "format_string":
			a.Format = f.Value
		case "group_name":
			a.GroupName = f.Value
		case "type":
			t, err := dtype.Parse(f.Value)
			if err != nil {
				return a, fmt.Errorf("&array %s: %w", a.Name, err)
			}
			a.Type = t
		case "field_length":
			n, err := parseInt32(f.Value)
			if err != nil {
				return a, fmt.Errorf("&array %s: field_length: %w", a.Name, err)
			}
			a.FieldLength = n
		case "dimensions":
			n, err := parseInt32(f.Value)
			if err != nil || n < 1 {
				return a, fmt.Errorf("&array %s: bad dimensions %q", a.Name, f.Value)
			}
			a.Dimensions = n
		default:
			return a, unknownKeyError("array", f.Key)
		}
	}
	return a, checkDefinition("array", a.Name, a.Type)
}

// AssociateFromTag builds an Associate from a parsed &associate tag.
func AssociateFromTag(tag *namelist.Tag) (Associate, error) {
	var a Associate
	for _, f := range tag.Fields {
		switch f.Key {
		case "name":
			a.Name = f.Value
		case "filename":
			a.Filename = f.Value
		case "path":
			a.Path = f.Value
		case "description":
			a.Description = f.Value
		case "contents":
			a.Contents = f.Value
		case "sdds":
			n, err := parseInt32(f.Value)
			if err != nil {
				return a, fmt.Errorf("&associate %s: sdds: %w", a.Name, err)
			}
			a.SDDS = n != 0
		default:
			return a, unknownKeyError("associate", f.Key)
		}
	}
	if a.Name == "" {
		return a, fmt.Errorf("&associate without a name")
	}
	return a, nil
}

// DescriptionFromTag builds a Description from a parsed &description tag.
func DescriptionFromTag(tag *namelist.Tag) (Description, error) {
	var d Description
	for _, f := range tag.Fields {
		switch f.Key {
		case "text":
			d.Text = f.Value
		case "contents":
			d.Contents = f.Value
		default:
			return d, unknownKeyError("description", f.Key)
		}
	}
	return d, nil
}

// Tag renders the parameter as its header namelist block, omitting fields
// at their default values.
func (p Parameter) Tag() *namelist.Tag {
	tag := &namelist.Tag{Name: "parameter"}
	addField(tag, "name", p.Name)
	addField(tag, "symbol", p.Symbol)
	addField(tag, "units", p.Units)
	addField(tag, "description", p.Description)
	addField(tag, "format_string", p.Format)
	addField(tag, "type", p.Type.String())
	if p.FixedValue != nil {
		tag.Fields = append(tag.Fields, namelist.Field{Key: "fixed_value", Value: *p.FixedValue})
	}
	return tag
}

// Tag renders the column as its header namelist block.
func (c Column) Tag() *namelist.Tag {
	tag := &namelist.Tag{Name: "column"}
	addField(tag, "name", c.Name)
	addField(tag, "symbol", c.Symbol)
	addField(tag, "units", c.Units)
	addField(tag, "description", c.Description)
	addField(tag, "format_string", c.Format)
	addField(tag, "type", c.Type.String())
	if c.FieldLength != 0 {
		addField(tag, "field_length", strconv.Itoa(int(c.FieldLength)))
	}
	return tag
}

// Tag renders the array as its header namelist block.
func (a Array) Tag() *namelist.Tag {
	tag := &namelist.Tag{Name: "array"}
	addField(tag, "name", a.Name)
	addField(tag, "symbol", a.Symbol)
	addField(tag, "units", a.Units)
	addField(tag, "description", a.Description)
	addField(tag, "format_string", a.Format)
	addField(tag, "group_name", a.GroupName)
	addField(tag, "type", a.Type.String())
	if a.FieldLength != 0 {
		addField(tag, "field_length", strconv.Itoa(int(a.FieldLength)))
	}
	if a.Dimensions != 1 {
		addField(tag, "dimensions", strconv.Itoa(int(a.Dimensions)))
	}
	return tag
}

// Tag renders the associate as its header namelist block.
func (a Associate) Tag() *namelist.Tag {
	tag := &namelist.Tag{Name: "associate"}
	addField(tag, "name", a.Name)
	addField(tag, "filename", a.Filename)
	addField(tag, "path", a.Path)
	addField(tag, "description", a.Description)
	addField(tag, "contents", a.Contents)
	if a.SDDS {
		addField(tag, "sdds", "1")
	}
	return tag
}

// Tag renders the description block, or nil when it is empty.
func (d Description) Tag() *namelist.Tag {
	if d.Text == "" && d.Contents == "" {
		return nil
	}
	tag := &namelist.Tag{Name: "description"}
	addField(tag, "text", d.Text)
	addField(tag, "contents", d.Contents)
	return tag
}

func addField(tag *namelist.Tag, key, value string) {
	if value == "" {
		return
	}
	tag.Fields = append(tag.Fields, namelist.Field{Key: key, Value: value})
}

func unknownKeyError(tagName, key string) error {
	return fmt.Errorf("unrecognized field %q in &%s", key, tagName)
}

func checkDefinition(class, name string, t dtype.Type) error {
	if name == "" {
		return fmt.Errorf("&%s without a name", class)
	}
	if !t.Valid() {
		return fmt.Errorf("&%s %s has no type", class, name)
	}
	return nil
}

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
