// Package mysql writes the Disable Comments settings row, either through the
// mysql client or through a native driver connection.
package mysql

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultPayload is the base64 form of the REPLACE INTO wp_options statement
// holding the serialized disable_comments_options value.
const DefaultPayload Payload = "UkVQTEFDRSBJTlRPIGB3cF9vcHRpb25zYCAoYG9wdGlvbl9uYW1lYCwgYG9wdGlvbl92YWx1ZWAsIGBhdXRvbG9hZGApIFZBTFVFUyAoJ2Rpc2FibGVfY29tbWVudHNfb3B0aW9ucycsJ2E6NDp7czoxOTpcImRpc2FibGVkX3Bvc3RfdHlwZXNcIjthOjM6e2k6MDtzOjQ6XCJwb3N0XCI7aToxO3M6NDpcInBhZ2VcIjtpOjI7czoxMDpcImF0dGFjaG1lbnRcIjt9czoxNzpcInJlbW92ZV9ldmVyeXdoZXJlXCI7YjoxO3M6OTpcInBlcm1hbmVudFwiO2I6MDtzOjEwOlwiZGJfdmVyc2lvblwiO2k6NTt9JywneWVzJyk7"

// Payload is a base64-encoded SQL statement. Its content is opaque here.
type Payload string

// Decode returns the statement bytes exactly as encoded.
func (p Payload) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(p)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode statement payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("statement payload is empty")
	}
	return data, nil
}
