// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
Package config to merge run options: command line arguments, config file and environment variables.
Command line arguments take precedence over config file values, config file over environment.
Environment variables are expected with MED1_ prefix, ie: mps.Listen => MED1_MPS_LISTEN.
*/
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/med1app/go/med1/helper"
)

// Standard config keys to get values from config file or command line arguments
const (
	OptionsFile      = "Med1.OptionsFile" // config file path
	OptionsFileShort = "ini"              // config file path (short form)
)

// Log config keys.
// Log can be enabled/disabled for two independent streams:
//
//	console  => standard output stream
//	log file => log file, truncated on every run, (optional) unique "stamped" name
const (
	LogToConsole      = "Med1.LogToConsole"    // if true then log to standard output
	LogToConsoleShort = "v"                    // if true then log to standard output (short form)
	LogToFile         = "Med1.LogToFile"       // if true then log to file
	LogFilePath       = "Med1.LogFilePath"     // log file path, default = current/dir/exeName.log
	LogUseTs          = "Med1.LogUseTimeStamp" // if true then use time-stamp in log file name
	LogUsePid         = "Med1.LogUsePidStamp"  // if true then use pid-stamp in log file name
	LogUseDaily       = "Med1.LogUseDailyStamp" // if true then use daily-stamp in log file name
	LogNoMsgTime      = "Med1.LogNoMsgTime"    // if true then do not prefix log messages with date-time
	LogSql            = "Med1.LogSql"          // if true then log sql statements into log file
)

// environment variable prefix: mps.Listen => MED1_MPS_LISTEN
const envPrefix = "MED1"

// RunOptions is (key,value) map of command line arguments, config file and environment.
// For config file options key is combined as section.key
type RunOptions struct {
	KeyValue        map[string]string // (key=>value) from command line arguments, config file, environment
	DefaultKeyValue map[string]string // default (key=>value), if non-empty default for command line argument
	iniPath         string            // path to config file
}

// LogOptions for console and log file output
type LogOptions struct {
	LogPath     string // path to log file
	IsConsole   bool   // if true then log to standard output, default: true
	IsFile      bool   // if true then log to file
	IsNoMsgTime bool   // if true then do not prefix log messages with date-time
	IsLogSql    bool   // if true then log sql statements
	IsDaily     bool   // if true then create new log file every day
	TimeStamp   string // log timestamp string, ie: 20120817_160459_0148
}

// FullShort is pair of full option name and short option name
type FullShort struct {
	Full  string // full option name
	Short string // short option name
}

// New process command-line arguments, config file and environment options.
//
// Precedence order is: command line argument, config file value, MED1_ environment
// variable, command line default. Config file, if specified, can be ini, yaml or toml,
// it is read with viper and keys are combined as section.key.
func New(optFs []FullShort) (*RunOptions, *LogOptions, error) {

	runOpts := &RunOptions{
		KeyValue:        make(map[string]string),
		DefaultKeyValue: make(map[string]string),
	}
	logOpts := &LogOptions{
		IsConsole: true,
		TimeStamp: helper.MakeTimeStamp(time.Now()),
	}

	addStandardFlags(runOpts, logOpts) // add "standard" config options

	// parse command line arguments
	flag.Parse()

	// read config file and environment with viper
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if runOpts.iniPath != "" {
		v.SetConfigFile(runOpts.iniPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, err
		}
	}

	// for every defined option take config file or environment value, if not empty
	flag.VisitAll(func(f *flag.Flag) {
		n := fullNameOf(f.Name, optFs)
		if s := v.GetString(n); s != "" {
			runOpts.KeyValue[n] = s
		}
	})

	// override config file and environment values with command-line arguments
	flag.Visit(func(f *flag.Flag) {
		if f.Name == OptionsFile || f.Name == OptionsFileShort {
			runOpts.KeyValue[OptionsFile] = runOpts.iniPath
			return
		}
		if f.Name == LogToConsole || f.Name == LogToConsoleShort {
			runOpts.KeyValue[LogToConsole] = strconv.FormatBool(logOpts.IsConsole)
			return
		}
		runOpts.KeyValue[fullNameOf(f.Name, optFs)] = f.Value.String()
	})

	// set default (key,value) from flag defaults if not empty
	flag.VisitAll(func(f *flag.Flag) {
		if f.DefValue == "" {
			return
		}
		n := fullNameOf(f.Name, optFs)
		if runOpts.DefaultKeyValue[n] == "" {
			runOpts.DefaultKeyValue[n] = f.DefValue
		}
	})

	// adjust log settings
	adjustLogOptions(runOpts, logOpts)
	return runOpts, logOpts, nil
}

// fullNameOf return full option name by full or short option name
func fullNameOf(name string, optFs []FullShort) string {
	if name == OptionsFileShort {
		return OptionsFile
	}
	if name == LogToConsoleShort {
		return LogToConsole
	}
	for _, fs := range optFs {
		if name == fs.Short {
			return fs.Full
		}
	}
	return name
}

// IsExist return true if key is defined as command line argument, config file or environment option.
func (opts *RunOptions) IsExist(key string) bool {
	if opts == nil || opts.KeyValue == nil {
		return false
	}
	_, ok := opts.KeyValue[key]
	return ok
}

// String return value by key.
// It can be defined as command line argument, config file or environment option or command line default
func (opts *RunOptions) String(key string) string {
	val, _, _ := opts.StringExist(key)
	return val
}

// StringExist return value by key and boolean flags:
// isExist=true if value defined as command line argument, config file or environment option,
// isDefaultArg=true if value defined as non-empty default for command line argument.
func (opts *RunOptions) StringExist(key string) (val string, isExist, isDefaultArg bool) {
	if opts == nil || opts.KeyValue == nil {
		return "", false, false
	}
	if val, isExist = opts.KeyValue[key]; isExist {
		return val, isExist, false
	}

	val, isDefaultArg = opts.DefaultKeyValue[key]
	return val, false, isDefaultArg
}

// Bool return boolean value by key.
// If value not defined or cannot be converted to boolean (see strconv.ParseBool) then return false
func (opts *RunOptions) Bool(key string) bool {
	sVal, isExist, _ := opts.StringExist(key)
	if !isExist || sVal == "" {
		return false
	}
	if val, err := strconv.ParseBool(sVal); err == nil {
		return val
	}
	return false
}

// Int return integer value by key.
// If value not defined or cannot be converted to integer then default is returned
func (opts *RunOptions) Int(key string, defaultValue int) int {
	sVal, isExist, _ := opts.StringExist(key)
	if !isExist || sVal == "" {
		return defaultValue
	}
	if val, err := strconv.Atoi(sVal); err == nil {
		return val
	}
	return defaultValue
}

// Float return 64 bit float value by key.
// If value not defined or cannot be converted to float64 then default is returned
func (opts *RunOptions) Float(key string, defaultValue float64) float64 {
	sVal, isExist, _ := opts.StringExist(key)
	if !isExist || sVal == "" {
		return defaultValue
	}
	if val, err := strconv.ParseFloat(sVal, 64); err == nil {
		return val
	}
	return defaultValue
}

// add "standard" config options to command line arguments
func addStandardFlags(runOpts *RunOptions, logOpts *LogOptions) {

	flag.StringVar(&runOpts.iniPath, OptionsFile, "", "path to config file")
	flag.StringVar(&runOpts.iniPath, OptionsFileShort, "", "path to config file (short of "+OptionsFile+")")

	// add log options to command line arguments
	flag.BoolVar(&logOpts.IsConsole, LogToConsole, true, "if true then log to standard output")
	flag.BoolVar(&logOpts.IsConsole, LogToConsoleShort, true, "if true then log to standard output (short of "+LogToConsole+")")
	flag.BoolVar(&logOpts.IsFile, LogToFile, false, "if true then log to file")
	flag.StringVar(&logOpts.LogPath, LogFilePath, "", "path to log file")
	_ = flag.Bool(LogUseTs, false, "if true then use time-stamp in log file name")
	_ = flag.Bool(LogUsePid, false, "if true then use pid-stamp in log file name")
	flag.BoolVar(&logOpts.IsDaily, LogUseDaily, false, "if true then create new log file every day")
	flag.BoolVar(&logOpts.IsNoMsgTime, LogNoMsgTime, false, "if true then do not prefix log messages with date-time")
	flag.BoolVar(&logOpts.IsLogSql, LogSql, false, "if true then log sql statements into log file")
}

// adjust log settings by merging command line arguments, config file and environment options
// make sure if LogToFile then log file path is defined and vice versa
// make "stamped" log file name, if required, by adding time-stamp and/or pid-stamp, i.e.:
//
//	exeName.log => exeName_20120817_160459_0148.1234.log
func adjustLogOptions(runOpts *RunOptions, logOpts *LogOptions) {

	// if log file path is not empty then LogToFile must be true
	if logOpts.LogPath != "" || logOpts.IsFile || runOpts.Bool(LogToFile) || runOpts.Bool(LogSql) {
		logOpts.IsFile = true
		runOpts.KeyValue[LogToFile] = strconv.FormatBool(logOpts.IsFile)
	}

	// if LogToFile is true then log file path must not be empty
	if logOpts.IsFile && logOpts.LogPath == "" {

		logOpts.LogPath = runOpts.String(LogFilePath) // use log file path from config file

		// use exeName.log as default
		if logOpts.LogPath == "" {
			_, exeName := filepath.Split(os.Args[0])
			ext := filepath.Ext(exeName)
			if ext != "" {
				exeName = exeName[:len(exeName)-len(ext)]
			}
			logOpts.LogPath = exeName + ".log"
		}
	}

	// update log settings from merged command line arguments, config file and environment
	logOpts.IsConsole = !runOpts.IsExist(LogToConsole) || runOpts.Bool(LogToConsole)
	logOpts.IsNoMsgTime = runOpts.Bool(LogNoMsgTime)
	logOpts.IsLogSql = runOpts.Bool(LogSql)
	logOpts.IsDaily = logOpts.IsDaily || runOpts.Bool(LogUseDaily)

	// update file name with time stamp and pid stamp, if required:
	// exeName.log => exeName_20120817_160459_0148.1234.log
	isTs := logOpts.IsFile && runOpts.Bool(LogUseTs)
	isPid := logOpts.IsFile && runOpts.Bool(LogUsePid)

	if isTs || isPid {

		dir, fName := filepath.Split(logOpts.LogPath)
		ext := filepath.Ext(fName)
		if ext != "" {
			fName = fName[:len(fName)-len(ext)]
		}
		if isTs {
			fName += "_" + logOpts.TimeStamp
		}
		if isPid {
			fName += "." + strconv.Itoa(os.Getpid())
		}
		logOpts.LogPath = filepath.Join(dir, fName+ext)
	}
	runOpts.KeyValue[LogFilePath] = logOpts.LogPath // update value of log file name in run options
}
