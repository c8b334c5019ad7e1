package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decimal grava valores monetários/percentuais como Decimal128 no Mongo
// e como string no JSON (herdado do shopspring/decimal).
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(d decimal.Decimal) Decimal { return Decimal{Decimal: d} }

func (d Decimal) MarshalBSONValue() (bsontype.Type, []byte, error) {
	v, err := primitive.ParseDecimal128(d.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("decimal128 %s: %w", d.Decimal, err)
	}
	return bson.MarshalValue(v)
}

func (d *Decimal) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		v, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("invalid decimal128 value")
		}
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return err
		}
		d.Decimal = parsed
	case bsontype.Double:
		d.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		d.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		d.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.String:
		parsed, err := decimal.NewFromString(raw.StringValue())
		if err != nil {
			return err
		}
		d.Decimal = parsed
	case bsontype.Null, bsontype.Undefined:
		d.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %s into Decimal", t)
	}
	return nil
}
