package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ImageRefs is the ordered list of image ids a slideshow points at.
// The ids are weak references: the images are not owned by the slideshow and
// may be deleted independently. Duplicates are allowed and order is display order.
//
// Without is the only mutation applied to a persisted list.
type ImageRefs []int64

// Without returns a copy of the list with every occurrence of id removed
func (r ImageRefs) Without(id int64) ImageRefs {
	out := make(ImageRefs, 0, len(r))
	for _, ref := range r {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

// Contains reports whether id occurs anywhere in the list
func (r ImageRefs) Contains(id int64) bool {
	for _, ref := range r {
		if ref == id {
			return true
		}
	}
	return false
}

// Value stores the list as a JSON array, used by the SQLite store
func (r ImageRefs) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]int64(r))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads a JSON array written by Value
func (r *ImageRefs) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = ImageRefs{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ImageRefs", src)
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("decode image refs: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	*r = ids
	return nil
}
