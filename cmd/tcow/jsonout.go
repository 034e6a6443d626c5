package main

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printJSON marshals v with jsoniter and writes it to stdout followed by
// a newline, used by `layers --json` and `ls --json`.
func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = stdout.Write(b)
	return err
}
