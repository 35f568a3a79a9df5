package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/omniql-engine/flatql/engine/models"
)

// XML stores records as typed <field> elements so column order and value
// kinds survive a round trip:
//
//	<table name="users">
//	  <row>
//	    <field name="id" type="integer">1</field>
//	  </row>
//	</table>
type XML struct{}

type xmlTable struct {
	XMLName xml.Name `xml:"table"`
	Name    string   `xml:"name,attr,omitempty"`
	Rows    []xmlRow `xml:"row"`
}

type xmlRow struct {
	Fields []xmlField `xml:"field"`
}

type xmlField struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

func (XML) Name() string      { return "XML" }
func (XML) Extension() string { return ".xml" }

func (XML) Decode(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc xmlTable
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("xml: decode: %w", err)
	}
	records := make([]models.Record, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		var rec models.Record
		for _, f := range row.Fields {
			v, err := xmlValue(f)
			if err != nil {
				return nil, fmt.Errorf("xml: decode: field %s: %w", f.Name, err)
			}
			rec.Set(f.Name, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (XML) Encode(records []models.Record, opts Options) ([]byte, error) {
	doc := xmlTable{Name: opts.Table, Rows: make([]xmlRow, len(records))}
	for i, rec := range records {
		cols := rec.Columns()
		fields := make([]xmlField, len(cols))
		for j, c := range cols {
			v, _ := rec.Get(c)
			fields[j] = xmlField{Name: c, Type: models.TypeName(v), Value: models.FormatScalar(v)}
		}
		doc.Rows[i].Fields = fields
	}

	out, err := xml.MarshalIndent(doc, "", strings.Repeat(" ", opts.Indent))
	if err != nil {
		return nil, fmt.Errorf("xml: encode: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func xmlValue(f xmlField) (any, error) {
	switch f.Type {
	case "null":
		return nil, nil
	case "integer":
		return strconv.ParseInt(f.Value, 10, 64)
	case "float":
		return strconv.ParseFloat(f.Value, 64)
	case "boolean":
		return strconv.ParseBool(f.Value)
	case "string":
		return f.Value, nil
	case "":
		return models.InferScalar(f.Value), nil
	}
	return nil, fmt.Errorf("unknown type %q", f.Type)
}
