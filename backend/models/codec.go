package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OptionList, AnswerMap and CategoryBreakdown are stored as JSON in text
// columns. Malformed stored values decode to an empty value instead of failing
// the whole row.

type OptionList []string

func (o *OptionList) Scan(value interface{}) error {
	decoded := []string{}
	if !decodeJSON(value, &decoded) || decoded == nil {
		decoded = []string{}
	}
	*o = decoded
	return nil
}

func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		o = OptionList{}
	}
	return encodeJSON(o)
}

// AnswerMap maps question id to selected option index. Only answered
// questions are present.
type AnswerMap map[uint]int

func (a *AnswerMap) Scan(value interface{}) error {
	decoded := map[uint]int{}
	if !decodeJSON(value, &decoded) || decoded == nil {
		decoded = map[uint]int{}
	}
	*a = decoded
	return nil
}

func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil {
		a = AnswerMap{}
	}
	return encodeJSON(map[uint]int(a))
}

type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type CategoryBreakdown map[string]CategoryScore

func (c *CategoryBreakdown) Scan(value interface{}) error {
	decoded := map[string]CategoryScore{}
	if !decodeJSON(value, &decoded) || decoded == nil {
		decoded = map[string]CategoryScore{}
	}
	*c = decoded
	return nil
}

func (c CategoryBreakdown) Value() (driver.Value, error) {
	if c == nil {
		c = CategoryBreakdown{}
	}
	return encodeJSON(map[string]CategoryScore(c))
}

func decodeJSON(value interface{}, dst interface{}) bool {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return false
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return false
	}
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func encodeJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}
