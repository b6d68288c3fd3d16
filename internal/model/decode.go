package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// decoder converts string-encoded subgraph fields and keeps the first failure.
type decoder struct {
	entity string
	id     string
	first  *DecodeError
}

func (d *decoder) fail(field, value string, err error) {
	if d.first != nil {
		return
	}
	d.first = &DecodeError{Entity: d.entity, ID: d.id, Field: field, Value: value, Err: err}
}

func (d *decoder) err() error {
	if d.first == nil {
		return nil
	}
	return d.first
}

// bigInt parses a base-10 integer. Empty values decode as zero.
func (d *decoder) bigInt(field, value string) *big.Int {
	value = strings.TrimSpace(value)
	if value == "" {
		return big.NewInt(0)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		d.fail(field, value, fmt.Errorf("invalid int"))
		return big.NewInt(0)
	}
	return parsed
}

func (d *decoder) uint64Field(field, value string) uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		d.fail(field, value, err)
		return 0
	}
	return parsed
}

func (d *decoder) uint8Field(field, value string) uint8 {
	value = strings.TrimSpace(value)
	if value == "" {
		d.fail(field, value, fmt.Errorf("missing value"))
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		d.fail(field, value, err)
		return 0
	}
	return uint8(parsed)
}

// unixTime parses unix seconds. Empty values decode as the zero time.
func (d *decoder) unixTime(field, value string) time.Time {
	secs := d.uint64Field(field, value)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(int64(secs), 0).UTC()
}

func (d *decoder) seconds(field, value string) time.Duration {
	return time.Duration(d.uint64Field(field, value)) * time.Second
}

func (d *decoder) requestType(field, value string) RequestType {
	rt, err := ParseRequestType(value)
	if err != nil {
		d.fail(field, value, err)
	}
	return rt
}
