// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/med1app/go/med1/med1Log"
)

// set json response headers: Content-Type: application/json
func jsonSetHeaders(w http.ResponseWriter, r *http.Request) {

	// if Content-Type not set then use json
	if _, isSet := w.Header()["Content-Type"]; !isSet {
		w.Header().Set("Content-Type", "application/json")
	}
}

// jsonResponse set json response headers and writes src as json into w response writer.
// On error it writes 500 internal server error response.
func jsonResponse(w http.ResponseWriter, r *http.Request, src interface{}) {

	jsonSetHeaders(w, r)

	err := json.NewEncoder(w).Encode(src)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// jsonErrorResponse set json response headers, write http status code and error body:
//
//	{"message": "...", "errors": ["...", ...]}
func jsonErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string, errs []string) {

	jsonSetHeaders(w, r)
	w.WriteHeader(status)

	body := struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors,omitempty"`
	}{
		Message: message,
		Errors:  errs,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		med1Log.Log("Error at json response encode: ", err.Error())
	}
}

// jsonRequestDecode validate Content-Type: application/json and decode json body.
// Destination for json decode: dst must be a pointer.
// If isRequired is true then json body is required else it can be empty by default.
// On error it writes error response 400 or 415 and return false.
func jsonRequestDecode(w http.ResponseWriter, r *http.Request, isRequired bool, dst interface{}) bool {

	// json body expected
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Expected Content-Type: application/json", http.StatusUnsupportedMediaType)
		return false
	}

	// decode json
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		if err == io.EOF {
			if !isRequired {
				return true // empty default values
			}
			http.Error(w, "Invalid (empty) json at "+r.URL.String(), http.StatusBadRequest)
			return false
		}
		med1Log.Log("Json decode error at " + r.URL.String() + ": " + err.Error())
		http.Error(w, "Json decode error at "+r.URL.String(), http.StatusBadRequest)
		return false
	}
	return true // completed OK
}
