// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
pvget is command line tool to run pivot queries and export metric and column catalogs.

Run pivot query over SQLite database:

	pvget -db med1.sqlite -do pivot -pvget.Rows bu
	pvget -db med1.sqlite -do pivot -pvget.Rows bu,region -pvget.Metrics "Net Revenue_sum,gross_margin"
	pvget -db med1.sqlite -do pivot -pvget.Rows bu -pvget.Columns version
	pvget -db med1.sqlite -do pivot -pvget.Rows bu -pvget.Scenario "Base Case" -pvget.Version Actual

	pvget -db med1.sqlite -do pivot -pvget.Rows bu -pvget.As json
	pvget -db med1.sqlite -do pivot -pvget.Rows bu -tsv -pvget.ToConsole
	pvget -db med1.sqlite -do pivot -pvget.Rows bu -f revenue.csv -pvget.Utf8Bom

Export metric catalog or column whitelist:

	pvget -db med1.sqlite -do metric-list
	pvget -db med1.sqlite -do metric-list -lang pt
	pvget -db med1.sqlite -do column-list -json
*/
package main

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/jeandeaual/go-locale"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/med1app/go/med1/config"
	"github.com/med1app/go/med1/db"
	"github.com/med1app/go/med1/med1Log"
)

// pvget config keys to get values from ini-file or command line arguments.
const (
	cmdArgKey          = "pvget.Do"             // action, what to do, for example: pivot
	cmdShortKey        = "do"                   // action, what to do (short form)
	asArgKey           = "pvget.As"             // output as csv, tsv or json, default: .csv
	csvArgKey          = "csv"                  // short form of: pvget.As csv
	tsvArgKey          = "tsv"                  // short form of: pvget.As tsv
	jsonArgKey         = "json"                 // short form of: pvget.As json
	outputFileArgKey   = "pvget.File"           // output file name, default: action-name.csv, e.g.: pivot.csv
	outputFileShortKey = "f"                    // output file name (short form)
	consoleArgKey      = "pvget.ToConsole"      // if true then use stdout and do not create file(s)
	useUtf8ArgKey      = "pvget.Utf8Bom"        // if true then write utf-8 BOM into output
	sqliteArgKey       = "pvget.Sqlite"         // input db SQLite path
	sqliteShortKey     = "db"                   // input db SQLite path (short form)
	dbConnStrArgKey    = "pvget.Database"       // db connection string
	dbDriverArgKey     = "pvget.DatabaseDriver" // db driver name, ie: SQLite, pgx, odbc
	rowsArgKey         = "pvget.Rows"           // pivot group by dimensions, comma-separated
	columnsArgKey      = "pvget.Columns"        // pivoted dimension
	metricsArgKey      = "pvget.Metrics"        // pivot metrics, comma-separated catalog keys
	scenarioArgKey     = "pvget.Scenario"       // filter: scenario exact match
	versionArgKey      = "pvget.Version"        // filter: version membership, comma-separated
	periodArgKey       = "pvget.Period"         // filter: period membership, comma-separated
	buArgKey           = "pvget.Bu"             // filter: business unit membership, comma-separated
	sortByArgKey       = "pvget.SortBy"         // sort field, must be a whitelisted dimension
	sortDescArgKey     = "pvget.SortDesc"       // if true then sort descending
	pageArgKey         = "pvget.Page"           // one-based page number, default: 1
	pageSizeArgKey     = "pvget.PageSize"       // page size, default: 100
	langArgKey         = "pvget.Language"       // prefered output language: en, pt
	langShortKey       = "lang"                 // prefered output language (short form)
)

// output format: csv by default, or tsv or json
type outputAs int

const (
	asCsv outputAs = iota
	asTsv
	asJson
)

// run options
var theCfg = struct {
	action         string   // action name (what to do)
	kind           outputAs // output as csv, tsv or json
	fileName       string   // output file name, default: action-name.csv
	isConsole      bool     // if true then write into stdout
	isWriteUtf8Bom bool     // if true then write utf-8 BOM into csv file
	userLang       string   // prefered output language: en, pt
	doubleFmt      string   // format to convert float or double value to string
}{
	kind:      asCsv,   // by default output as .csv
	doubleFmt: "%.15g", // default format to convert float or double values to string
}

// main entry point: wrapper to handle errors
func main() {
	defer exitOnPanic() // fatal error handler: log and exit

	err := mainBody(os.Args)
	if err != nil {
		med1Log.Log(err.Error())
		os.Exit(1)
	}
	med1Log.Log("Done.") // completed OK
}

// actual main body
func mainBody(args []string) error {

	_ = godotenv.Load() // optional .env file, command line and real environment take precedence

	_ = flag.String(cmdArgKey, "", "action, what to do, for example: pivot")
	_ = flag.String(cmdShortKey, "", "action, what to do (short of "+cmdArgKey+")")
	_ = flag.String(asArgKey, "", "output as .csv, .tsv or .json, default: .csv")
	_ = flag.Bool(csvArgKey, true, "output as .csv (short of "+asArgKey+" csv)")
	_ = flag.Bool(tsvArgKey, false, "output as .tsv (short of "+asArgKey+" tsv)")
	_ = flag.Bool(jsonArgKey, false, "output as .json (short of "+asArgKey+" json)")
	_ = flag.String(outputFileArgKey, theCfg.fileName, "output file name, default depends on action")
	_ = flag.String(outputFileShortKey, theCfg.fileName, "output file name (short of "+outputFileArgKey+")")
	_ = flag.Bool(consoleArgKey, theCfg.isConsole, "if true then write into standard output instead of file(s)")
	_ = flag.Bool(useUtf8ArgKey, theCfg.isWriteUtf8Bom, "if true then write utf-8 BOM into output")
	_ = flag.String(sqliteArgKey, "", "input database SQLite file path")
	_ = flag.String(sqliteShortKey, "", "input database SQLite file path (short of "+sqliteArgKey+")")
	_ = flag.String(dbConnStrArgKey, "", "input database connection string")
	_ = flag.String(dbDriverArgKey, db.SQLiteDbDriver, "input database driver name: SQLite, pgx, odbc")
	_ = flag.String(rowsArgKey, "", "pivot group by dimensions, comma-separated")
	_ = flag.String(columnsArgKey, "", "pivoted dimension")
	_ = flag.String(metricsArgKey, "value_sum", "pivot metrics, comma-separated catalog keys")
	_ = flag.String(scenarioArgKey, "", "filter: scenario exact match")
	_ = flag.String(versionArgKey, "", "filter: version membership, comma-separated")
	_ = flag.String(periodArgKey, "", "filter: period membership, comma-separated")
	_ = flag.String(buArgKey, "", "filter: business unit membership, comma-separated")
	_ = flag.String(sortByArgKey, "", "sort field, must be a whitelisted dimension")
	_ = flag.Bool(sortDescArgKey, false, "if true then sort descending")
	_ = flag.Int(pageArgKey, 1, "one-based page number")
	_ = flag.Int(pageSizeArgKey, 0, "page size, default: "+strconv.Itoa(db.DefaultPageSize))
	_ = flag.String(langArgKey, theCfg.userLang, "prefered output language")
	_ = flag.String(langShortKey, theCfg.userLang, "prefered output language (short of "+langArgKey+")")

	// pairs of full and short argument names to map short name to full name
	var optFs = []config.FullShort{
		{Full: cmdArgKey, Short: cmdShortKey},
		{Full: sqliteArgKey, Short: sqliteShortKey},
		{Full: outputFileArgKey, Short: outputFileShortKey},
		{Full: langArgKey, Short: langShortKey},
	}

	// parse command line arguments, ini-file and environment
	runOpts, logOpts, err := config.New(optFs)
	if err != nil {
		return errors.New("invalid arguments: " + err.Error())
	}
	med1Log.New(logOpts) // adjust log options according to command line arguments or ini-values

	// get common run options
	theCfg.action = runOpts.String(cmdArgKey)
	theCfg.fileName = runOpts.String(outputFileArgKey)
	theCfg.isConsole = runOpts.Bool(consoleArgKey)
	theCfg.isWriteUtf8Bom = runOpts.Bool(useUtf8ArgKey)
	theCfg.userLang = runOpts.String(langArgKey)

	// get output format: csv, tsv or json
	if a := runOpts.String(asArgKey); a != "" {

		if runOpts.IsExist(csvArgKey) || runOpts.IsExist(tsvArgKey) || runOpts.IsExist(jsonArgKey) {
			return errors.New("invalid arguments: " + csvArgKey + " or " + tsvArgKey + " or " + jsonArgKey)
		}
		switch strings.ToLower(a) {
		case "csv":
			theCfg.kind = asCsv
		case "tsv":
			theCfg.kind = asTsv
		case "json":
			theCfg.kind = asJson
		default:
			return errors.New("invalid arguments: " + asArgKey + " " + a)
		}
	} else {
		switch {
		case runOpts.IsExist(tsvArgKey) && runOpts.Bool(tsvArgKey):
			theCfg.kind = asTsv
		case runOpts.IsExist(jsonArgKey) && runOpts.Bool(jsonArgKey):
			theCfg.kind = asJson
		default:
			theCfg.kind = kindByExt(theCfg.fileName)
		}
	}

	// get default user language
	if theCfg.userLang == "" {
		if ln, e := locale.GetLocale(); e == nil {
			theCfg.userLang = ln
		} else {
			med1Log.Log("Warning: unable to get user default language")
		}
	}

	// open source database connection and check schema version
	cs, dn := db.IfEmptyMakeDefaultReadOnly(
		runOpts.String(sqliteArgKey), runOpts.String(dbConnStrArgKey), runOpts.String(dbDriverArgKey))

	srcDb, facet, err := db.Open(cs, dn, true)
	if err != nil {
		return err
	}
	defer srcDb.Close()

	if err := db.CheckMed1SchemaVersion(srcDb); err != nil {
		return err
	}

	// dispatch the command
	switch theCfg.action {
	case "pivot":
		return pivotValue(srcDb, facet, runOpts)
	case "metric-list":
		return metricList()
	case "column-list":
		return columnList()
	}
	return errors.New("invalid action argument: " + theCfg.action)
}

// exitOnPanic log error message and exit with return = 2
func exitOnPanic() {
	r := recover()
	if r == nil {
		return // not in panic
	}
	switch e := r.(type) {
	case error:
		med1Log.Log(e.Error())
	case string:
		med1Log.Log(e)
	default:
		med1Log.Log("FAILED")
	}
	os.Exit(2) // final exit
}
