// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

// mps is Med1 pivot web-service: JSON API over the financial planning fact store.
//
// Exposed routes:
//
//	POST /api/pivot/query     pivot aggregation query
//	GET  /api/pivot/metrics   metric catalog
//	GET  /api/pivot/columns   dimension column whitelist
//	POST /api/dre/analytics   in-memory DRE analytics document
//	GET  /api/service/status  service and database status
//
// Example:
//
//	mps -l localhost:4050 -db med1.sqlite
//	mps -mps.Listen localhost:4050 -mps.Database "Database=med1.sqlite; OpenMode=ReadWrite;"
package main

import (
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/husobee/vestigo"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/med1app/go/med1/config"
	"github.com/med1app/go/med1/db"
	"github.com/med1app/go/med1/med1Log"
)

// config keys to get values from ini-file or command line arguments.
const (
	listenArgKey     = "mps.Listen"         // address to listen, default: localhost:4050
	listenShortKey   = "l"                  // address to listen (short form)
	dbConnArgKey     = "mps.Database"       // database connection string
	dbDriverArgKey   = "mps.DatabaseDriver" // database driver name, ie: SQLite, pgx, odbc
	sqliteArgKey     = "mps.Sqlite"         // database SQLite file path
	sqliteShortKey   = "db"                 // database SQLite file path (short form)
	initSchemaArgKey = "mps.InitSchema"     // if true then create or update database schema at startup
	logRequestArgKey = "mps.LogRequest"     // if true then log http requests
	productionArgKey = "mps.Production"     // if true then never echo query text or internal details to client
	uiLangsArgKey    = "mps.Languages"      // list of supported languages
)

// service database connection and facet, open once at startup
var theDb *sql.DB
var theFacet db.Facet

// if true then log http requests
var isLogRequest bool

// if true then internal error details are not echoed to the client
var isProduction bool

// matcher to find metric label language corresponding to request
var uiLangMatcher language.Matcher

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

	// set command line argument keys and ini-file keys
	_ = flag.String(listenArgKey, "localhost:4050", "address to listen")
	_ = flag.String(listenShortKey, "localhost:4050", "address to listen (short form of "+listenArgKey+")")
	_ = flag.String(dbConnArgKey, "", "database connection string")
	_ = flag.String(dbDriverArgKey, db.SQLiteDbDriver, "database driver name, ie: SQLite, pgx, odbc")
	_ = flag.String(sqliteArgKey, "", "database SQLite file path")
	_ = flag.String(sqliteShortKey, "", "database SQLite file path (short form of "+sqliteArgKey+")")
	_ = flag.Bool(initSchemaArgKey, false, "if true then create or update database schema at startup")
	_ = flag.Bool(logRequestArgKey, false, "if true then log HTTP requests")
	_ = flag.Bool(productionArgKey, false, "if true then never echo internal error details to client")
	_ = flag.String(uiLangsArgKey, "en,pt", "comma-separated list of supported languages")

	// pairs of full and short argument names to map short name to full name
	var optFs = []config.FullShort{
		{Full: listenArgKey, Short: listenShortKey},
		{Full: sqliteArgKey, Short: sqliteShortKey},
	}

	// parse command line arguments, ini-file and environment
	runOpts, logOpts, err := config.New(optFs)
	if err != nil {
		return errors.New("Invalid arguments: " + err.Error())
	}
	med1Log.New(logOpts)

	isLogRequest = runOpts.Bool(logRequestArgKey)
	isProduction = runOpts.Bool(productionArgKey)

	// open database connection and determine db facet
	dbConnStr, dbDriver := db.IfEmptyMakeDefault(
		runOpts.String(sqliteArgKey), runOpts.String(dbConnArgKey), runOpts.String(dbDriverArgKey))

	theDb, theFacet, err = db.Open(dbConnStr, dbDriver, true)
	if err != nil {
		return err
	}
	defer theDb.Close()

	// create or update database schema if requested, then verify schema version
	if runOpts.Bool(initSchemaArgKey) {
		med1Log.Log("Create or update database schema")
		if err := db.MigrateUp(theDb, dbDriver); err != nil {
			return err
		}
	}
	if err := db.CheckMed1SchemaVersion(theDb); err != nil {
		return err
	}

	// set languages to find metric labels by browser language
	ll := strings.Split(runOpts.String(uiLangsArgKey), ",")
	var lt []language.Tag
	for _, ls := range ll {
		if ls != "" {
			lt = append(lt, language.Make(ls))
		}
	}
	if len(lt) <= 0 {
		lt = append(lt, language.English)
	}
	uiLangMatcher = language.NewMatcher(lt)

	// setup router and start server
	router := vestigo.NewRouter()

	apiGetRoutes(router)  // get /api web-service routes
	apiPostRoutes(router) // post /api web-service routes

	router.Get("/*", http.NotFound) // only /api, any other pages not found

	addr := runOpts.String(listenArgKey)
	med1Log.Log("Starting at " + addr)
	med1Log.Log("To finish press Ctrl+C")

	err = http.ListenAndServe(addr, router)
	return err
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

// add http GET routes to web-service /api
func apiGetRoutes(router *vestigo.Router) {

	// GET /api/pivot/metrics
	// GET /api/pivot/metrics/
	router.Get("/api/pivot/metrics", metricListHandler, logRequest)
	router.Get("/api/pivot/metrics/", metricListHandler, logRequest)

	// GET /api/pivot/columns
	// GET /api/pivot/columns/
	router.Get("/api/pivot/columns", columnListHandler, logRequest)
	router.Get("/api/pivot/columns/", columnListHandler, logRequest)

	// GET /api/service/status
	router.Get("/api/service/status", serviceStatusHandler, logRequest)
}

// add http POST routes to web-service /api
func apiPostRoutes(router *vestigo.Router) {

	// POST /api/pivot/query
	router.Post("/api/pivot/query", pivotQueryHandler, logRequest)

	// POST /api/dre/analytics
	router.Post("/api/dre/analytics", dreAnalyticsHandler, logRequest)
}
