package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/omniql-engine/flatql/engine/models"
)

// Protobuf stores a google.protobuf.ListValue whose first element is the
// header (column names) and whose remaining elements are value rows.
// Numbers travel as doubles; integral values within 2^53 decode as int64.
type Protobuf struct{}

const maxExactInt = 1 << 53

func (Protobuf) Name() string      { return "Protobuf" }
func (Protobuf) Extension() string { return ".pb" }

func (Protobuf) Decode(data []byte) ([]models.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var table structpb.ListValue
	if err := proto.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("protobuf: decode: %w", err)
	}
	rows := table.GetValues()
	if len(rows) == 0 {
		return nil, nil
	}

	headerValues := rows[0].GetListValue().GetValues()
	header := make([]string, len(headerValues))
	for i, h := range headerValues {
		header[i] = h.GetStringValue()
	}

	records := make([]models.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		cells := row.GetListValue().GetValues()
		if len(cells) != len(header) {
			return nil, fmt.Errorf("protobuf: decode: row %d has %d values, header has %d", n+1, len(cells), len(header))
		}
		var rec models.Record
		for i, cell := range cells {
			rec.Set(header[i], protoScalar(cell))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (Protobuf) Encode(records []models.Record, _ Options) ([]byte, error) {
	cols := columnsOf(records)
	header := &structpb.ListValue{Values: make([]*structpb.Value, len(cols))}
	for i, c := range cols {
		header.Values[i] = structpb.NewStringValue(c)
	}

	table := &structpb.ListValue{Values: []*structpb.Value{structpb.NewListValue(header)}}
	for _, rec := range records {
		row := &structpb.ListValue{Values: make([]*structpb.Value, len(cols))}
		for i, c := range cols {
			v, _ := rec.Get(c)
			row.Values[i] = protoValue(v)
		}
		table.Values = append(table.Values, structpb.NewListValue(row))
	}

	out, err := proto.MarshalOptions{Deterministic: true}.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("protobuf: encode: %w", err)
	}
	return out, nil
}

func protoValue(v any) *structpb.Value {
	switch x := v.(type) {
	case nil:
		return structpb.NewNullValue()
	case bool:
		return structpb.NewBoolValue(x)
	case int64:
		return structpb.NewNumberValue(float64(x))
	case float64:
		return structpb.NewNumberValue(x)
	default:
		return structpb.NewStringValue(models.FormatScalar(x))
	}
}

func protoScalar(v *structpb.Value) any {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == math.Trunc(f) && math.Abs(f) < maxExactInt {
			return int64(f)
		}
		return f
	case *structpb.Value_StringValue:
		return k.StringValue
	}
	return nil
}
