//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Lenient field lookup helpers shared by the catalog decoders.
//

package catalog

import (
	"github.com/tidwall/gjson"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

// parseObject validates data and returns it as a JSON object result.
func parseObject(data []byte, what string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, spoterr.Decode("invalid "+what+" json", nil)
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return gjson.Result{}, spoterr.Decode(what+" payload is not an object", nil)
	}
	return r, nil
}

// stringOr returns the member as a string, or def when absent or not a string.
func stringOr(r gjson.Result, path, def string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return def
	}
	return v.Str
}

// intOr returns the member as an int, or def when absent or not a number.
func intOr(r gjson.Result, path string, def int) int {
	v := r.Get(path)
	if v.Type != gjson.Number {
		return def
	}
	return int(v.Int())
}

// stringList returns the string members of an array, never nil.
func stringList(r gjson.Result, path string) []string {
	out := []string{}
	v := r.Get(path)
	if !v.IsArray() {
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			out = append(out, item.Str)
		}
		return true
	})
	return out
}

// objects returns the object members of an array.
func objects(v gjson.Result) []gjson.Result {
	var out []gjson.Result
	if !v.IsArray() {
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, item)
		}
		return true
	})
	return out
}
