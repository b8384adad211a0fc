// Copyright (c) 2024 Med1
// This code is licensed under the MIT license (see LICENSE.txt for details)

//go:build !odbc
// +build !odbc

package db

// IsOdbcSupported indicate support of ODBC connections built-in
const IsOdbcSupported = false
