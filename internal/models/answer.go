package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the answer value variants.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindList
	KindFile
)

// FileRef is the stored representation of a file answer. Data carries base64
// content only while the upload is in flight; persisted answers keep metadata
// and the FileID reference, never the bytes.
type FileRef struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	FileID      string `json:"fileId,omitempty"`
	Data        string `json:"data,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Value is a tagged answer value: null, string, number, list-of-string or a
// file reference. Exactly one payload field is meaningful per kind.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	List []string
	File *FileRef
}

func NullValue() Value               { return Value{Kind: KindNull} }
func StringValue(s string) Value     { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value    { return Value{Kind: KindNumber, Num: n} }
func ListValue(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: KindList, List: items}
}
func FileValue(ref *FileRef) Value {
	if ref == nil {
		return NullValue()
	}
	return Value{Kind: KindFile, File: ref}
}

// IsEmpty reports whether the value counts as unanswered: null or the empty
// string. An empty list is not "empty" here; multiselect emptiness is a
// completion concern, not an answered-ness one.
func (v Value) IsEmpty() bool {
	return v.Kind == KindNull || (v.Kind == KindString && v.Str == "")
}

// Equal is strict equality on the stored representation, no type coercion.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != o.List[i] {
				return false
			}
		}
		return true
	case KindFile:
		if v.File == nil || o.File == nil {
			return v.File == o.File
		}
		return *v.File == *o.File
	}
	return false
}

// AsNumber coerces the value to a float64. Strings parse with ParseFloat;
// anything unparseable or non-scalar reports false, never panics.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsString renders the value for display and payload stringification.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.List, ", ")
	case KindFile:
		if v.File != nil {
			return v.File.Name
		}
	}
	return ""
}

// AsList returns the value as a list, wrapping a bare scalar into a
// single-element list. Multiselect answers are always lists once answered,
// but legacy data can still carry scalars.
func (v Value) AsList() []string {
	switch v.Kind {
	case KindList:
		return v.List
	case KindNull:
		return []string{}
	default:
		return []string{v.AsString()}
	}
}

// MarshalJSON encodes the natural JSON shape per kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindFile:
		return json.Marshal(v.File)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON decodes null, strings, numbers, string lists and file objects.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = NullValue()
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = ListValue(list...)
	case '{':
		var ref FileRef
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*v = FileValue(&ref)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// AnswerMap maps stable question identifiers to answer values.
type AnswerMap map[string]Value

// Get returns the answer for a question id. The second result is false when
// the key is absent or the stored value is null, both of which count as
// unanswered.
func (m AnswerMap) Get(field string) (Value, bool) {
	v, ok := m[field]
	if !ok || v.Kind == KindNull {
		return NullValue(), false
	}
	return v, true
}

// String looks up a string-rendered answer, empty when unanswered.
func (m AnswerMap) String(field string) string {
	v, ok := m.Get(field)
	if !ok {
		return ""
	}
	return v.AsString()
}

// Number looks up a numerically coerced answer.
func (m AnswerMap) Number(field string) (float64, bool) {
	v, ok := m.Get(field)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Clone returns a shallow-copied map; values are immutable in practice so a
// shallow copy suffices for snapshots.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
