package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Trend directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Vspp is a current-versus-previous comparison in percentage points.
// It is stored as the array [current, previous, deltaDisplay, direction, colorHex].
type Vspp struct {
	Current   int
	Previous  int
	Delta     int
	Display   string
	Direction string
	Color     string
}

func (v Vspp) array() bson.A {
	return bson.A{v.Current, v.Previous, v.Display, v.Direction, v.Color}
}

func (v *Vspp) fromArray(arr []interface{}) error {
	if len(arr) != 5 {
		return fmt.Errorf("vspp: want 5 elements, got %d", len(arr))
	}
	cur, ok1 := intValue(arr[0])
	prev, ok2 := intValue(arr[1])
	display, ok3 := arr[2].(string)
	direction, ok4 := arr[3].(string)
	color, ok5 := arr[4].(string)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return fmt.Errorf("vspp: unexpected element types %v", arr)
	}
	*v = Vspp{Current: cur, Previous: prev, Delta: cur - prev, Display: display, Direction: direction, Color: color}
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (v Vspp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(v.array())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (v *Vspp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var arr bson.A
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&arr); err != nil {
		return fmt.Errorf("vspp: %w", err)
	}
	return v.fromArray(arr)
}

func (v Vspp) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}(v.array()))
}

func (v *Vspp) UnmarshalJSON(b []byte) error {
	var arr []interface{}
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("vspp: %w", err)
	}
	return v.fromArray(arr)
}

func intValue(x interface{}) (int, bool) {
	switch n := x.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
