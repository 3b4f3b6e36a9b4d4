package usecase

import (
	"fmt"

	"github.com/grocerygrid/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// documentArrayPaths are the wrapper keys under which exports keep their products
var documentArrayPaths = []string{"products", "data.products", "results"}

// ExtractRecords finds the product array of a source document. The document
// may be a bare array or an object keeping the array under products,
// data.products, results, or as its first array-valued property.
func ExtractRecords(doc []byte) ([]RawRecord, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: not valid JSON", domain.ErrInvalidDocument)
	}

	root := gjson.ParseBytes(doc)
	list := findProductArray(root)
	if !list.IsArray() {
		return []RawRecord{}, nil
	}

	items := list.Array()
	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			records = append(records, RawRecord{doc: item})
		}
	}

	return records, nil
}

func findProductArray(root gjson.Result) gjson.Result {
	if root.IsArray() {
		return root
	}
	if !root.IsObject() {
		return gjson.Result{}
	}

	for _, path := range documentArrayPaths {
		if v := root.Get(path); v.IsArray() {
			return v
		}
	}

	// ForEach walks keys in document order
	var first gjson.Result
	root.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			first = value
			return false
		}
		return true
	})

	return first
}
