// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/med1app/go/med1/helper"
)

// return row []string or isEof = true
type rowConverter func() (isEof bool, row []string, err error)

// detect kind of output by file name extension: .csv, .tsv or .json, default: csv
func kindByExt(fileName string) outputAs {

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".tsv":
		return asTsv
	case ".json":
		return asJson
	}
	return asCsv
}

// return output file path for the action, ie: pivot.csv,
// or "" empty if output goes to console only
func outputPath(action string) string {

	if theCfg.isConsole && theCfg.fileName == "" {
		return ""
	}
	if theCfg.fileName != "" {
		return theCfg.fileName
	}

	ext := ".csv"
	switch theCfg.kind {
	case asTsv:
		ext = ".tsv"
	case asJson:
		ext = ".json"
	}
	return helper.CleanFileName(action) + ext
}

// write into file.json if jsonPath is not "" empty and/or to console
func toJsonOutput(isConsole bool, jsonPath string, src interface{}) error {

	if isConsole {
		ce := json.NewEncoder(os.Stdout)
		ce.SetIndent("", "  ")
		if err := ce.Encode(src); err != nil {
			return errors.New("json encode error: " + err.Error())
		}
	}
	if jsonPath != "" {
		return helper.ToJsonIndentFile(jsonPath, src)
	}
	return nil
}

// write into file.csv (or .tsv) if csvPath is not "" empty and/or to console
func toCsvOutput(isConsole bool, csvPath string, columnNames []string, lineCvt rowConverter) error {

	// create csv file
	isFile := csvPath != ""
	var f *os.File
	var err error

	if isFile {
		f, err = os.OpenFile(csvPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
	}
	defer func() {
		if isFile {
			f.Close()
		}
	}()

	if isFile && theCfg.isWriteUtf8Bom { // if required then write utf-8 bom
		if _, err = f.Write(helper.Utf8bom); err != nil {
			return err
		}
	}

	// create csv writes to file and/or to console
	var wr *csv.Writer
	var cw *csv.Writer
	if isFile {
		wr = csv.NewWriter(f)
		if theCfg.kind == asTsv {
			wr.Comma = '\t'
		}
	}
	if isConsole {
		cw = csv.NewWriter(os.Stdout)
		if theCfg.kind == asTsv {
			cw.Comma = '\t'
		}
		if runtime.GOOS == "windows" {
			cw.UseCRLF = true
		}
	}

	// write header line: column names, if provided
	if len(columnNames) > 0 {
		if isConsole {
			err = cw.Write(columnNames)
			isConsole = err == nil
		}
		if isFile {
			if err = wr.Write(columnNames); err != nil {
				return err
			}
		}
	}

	// write csv lines until eof
	for {
		isEof, row, err := lineCvt()
		if err != nil {
			return err
		}
		if isEof {
			break
		}
		if isConsole {
			err = cw.Write(row)
			isConsole = err == nil
			if !isConsole && !isFile {
				return err
			}
		}
		if isFile {
			if err = wr.Write(row); err != nil {
				return err
			}
		}
	}

	// flush and return error, if any
	if isConsole {
		cw.Flush()
	}
	if isFile {
		wr.Flush()
		return wr.Error()
	}
	return nil
}
