package persistence

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	tDecimal = reflect.TypeOf(decimal.Decimal{})
	tUUID    = reflect.TypeOf(uuid.UUID{})
)

// NewMongoRegistry returns the default BSON registry extended so that
// decimal.Decimal round-trips as Decimal128 instead of an empty document and
// uuid.UUID is stored as a BSON UUID binary rather than an array of bytes.
func NewMongoRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tDecimal, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(tDecimal, bsoncodec.ValueDecoderFunc(decodeDecimal))
	reg.RegisterTypeEncoder(tUUID, bsoncodec.ValueEncoderFunc(encodeUUID))
	reg.RegisterTypeDecoder(tUUID, bsoncodec.ValueDecoderFunc(decodeUUID))
	return reg
}

func encodeUUID(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tUUID {
		return bsoncodec.ValueEncoderError{Name: "UUIDEncodeValue", Types: []reflect.Type{tUUID}, Received: val}
	}
	id := val.Interface().(uuid.UUID)
	return vw.WriteBinaryWithSubtype(id[:], bson.TypeBinaryUUID)
}

func decodeUUID(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tUUID {
		return bsoncodec.ValueDecoderError{Name: "UUIDDecodeValue", Types: []reflect.Type{tUUID}, Received: val}
	}

	var id uuid.UUID
	switch vr.Type() {
	case bsontype.Binary:
		data, subtype, err := vr.ReadBinary()
		if err != nil {
			return err
		}
		if subtype != bson.TypeBinaryUUID && subtype != bson.TypeBinaryUUIDOld {
			return fmt.Errorf("cannot decode binary subtype %#x into uuid.UUID", subtype)
		}
		if id, err = uuid.FromBytes(data); err != nil {
			return fmt.Errorf("failed to decode uuid: %w", err)
		}
	case bsontype.String:
		str, err := vr.ReadString()
		if err != nil {
			return err
		}
		if id, err = uuid.Parse(str); err != nil {
			return fmt.Errorf("failed to decode uuid %q: %w", str, err)
		}
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot decode %v into uuid.UUID", vr.Type())
	}
	val.Set(reflect.ValueOf(id))
	return nil
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tDecimal {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{tDecimal}, Received: val}
	}
	d := val.Interface().(decimal.Decimal)
	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return fmt.Errorf("failed to encode decimal %s: %w", d.String(), err)
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tDecimal {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{tDecimal}, Received: val}
	}

	var s string
	switch vr.Type() {
	case bsontype.Decimal128:
		d128, err := vr.ReadDecimal128()
		if err != nil {
			return err
		}
		s = d128.String()
	case bsontype.String:
		str, err := vr.ReadString()
		if err != nil {
			return err
		}
		s = str
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
		val.Set(reflect.ValueOf(decimal.Zero))
		return nil
	default:
		return fmt.Errorf("cannot decode %v into decimal.Decimal", vr.Type())
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("failed to decode decimal %q: %w", s, err)
	}
	val.Set(reflect.ValueOf(d))
	return nil
}
