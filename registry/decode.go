package registry

import (
	"github.com/joshuapare/regwalk/hive"
	"github.com/joshuapare/regwalk/tree"
)

// decodeValue converts a value's payload to a tree value. Anything that
// cannot be decoded becomes tree.None so the value node still exists; the
// decode error is returned for reporting.
func decodeValue(v Value) (tree.Value, error) {
	d, err := v.Decode()
	if err != nil {
		return tree.None(), err
	}
	switch d := d.(type) {
	case hive.String:
		return tree.String(string(d)), nil
	case hive.Int32:
		return tree.I32(int32(d)), nil
	case hive.None, nil:
		return tree.None(), nil
	default:
		return tree.None(), nil
	}
}
