package convert

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrEntryNotFound = errors.New("entry not found")

// Query evaluates a JSONPath expression on jsonData and returns the
// matches as JSON
func Query(jsonData []byte, expr string) ([]string, error) {
	obj, err := oj.Parse(jsonData)
	if err != nil {
		return nil, err
	}
	path, err := jp.ParseString(expr)
	if err != nil {
		return nil, err
	}
	res := path.Get(obj)
	ret := make([]string, 0, len(res))
	for _, v := range res {
		ret = append(ret, oj.JSON(v))
	}
	return ret, nil
}

// FindEntry extracts the classification entry of a driver from a stored result
func FindEntry(jsonData []byte, name string) (*EntryMessage, error) {
	res, err := Query(jsonData, fmt.Sprintf(`$.entries[?(@.name == %q)]`, name))
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEntryNotFound)
	}
	var ret EntryMessage
	if err := oj.Unmarshal([]byte(res[0]), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
