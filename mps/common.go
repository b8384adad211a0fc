// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/husobee/vestigo"
	"golang.org/x/text/language"

	"github.com/med1app/go/med1/db"
	"github.com/med1app/go/med1/med1Log"
)

// logRequest is a middleware to log http request with unique request id
func logRequest(next http.HandlerFunc) http.HandlerFunc {
	if isLogRequest {
		return func(w http.ResponseWriter, r *http.Request) {
			rqId := uuid.NewString()
			w.Header().Set("X-Request-Id", rqId)
			med1Log.Log(r.Method, ": ", r.Host, r.URL, " [", rqId, "]")
			next(w, r)
		}
	} // else
	return next
}

// match request language with supported languages and return canonic language name
func matchRequestToUiLang(r *http.Request) string {
	rqLangTags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	tag, _, _ := uiLangMatcher.Match(rqLangTags...)

	// use base language name: en, pt
	base, c := tag.Base()
	if c == language.No {
		return tag.String()
	}
	return base.String()
}

// baseLangOf return base language name of language code, ie: pt-BR => pt,
// or "" empty if source is empty or not a language code
func baseLangOf(src string) string {
	if src == "" {
		return ""
	}
	t := language.Make(src)
	if t == language.Und {
		return ""
	}
	b, _ := t.Base()
	return b.String()
}

// get value of url parameter ?name or router parameter /:name
func getRequestParam(r *http.Request, name string) string {

	v := r.URL.Query().Get(name)
	if v == "" {
		v = vestigo.Param(r, name)
	}
	return v
}

// internalErrorResponse log server-side error and write 500 json response.
// Internal details, ie: failing query text, are logged but only echoed
// to the client in a non-production configuration.
func internalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {

	med1Log.Log("Error at " + r.URL.String() + ": " + err.Error())

	var qe *db.QueryError
	if errors.As(err, &qe) {
		med1Log.LogSql("Failed: " + qe.Sql)
	}

	var errs []string
	if !isProduction {
		errs = []string{err.Error()}
	}
	jsonErrorResponse(w, r, http.StatusInternalServerError, "Internal server error", errs)
}
