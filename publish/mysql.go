// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Opening and configuring a connection to the MySQL database that holds the
// bulletin board, with optional TLS support.
//
// Functions in this file are not thread-safe. However, the returned *sql.DB is.
// Sane defaults are assumed: utf8mb4 encoding, UTC timezone, parsing date/time
// into time.Time.

package publish

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// SQL statement suffix to be appended when creating tables.
const SqlCreateTableSuffix = "CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"

// Description of the SQL configuration file format.
const SqlConfigFileDescription = `File must contain a JSON object of the following form:
   {
    "dataSourceName": "[username[:password]@][protocol[(address)]]/dbname", (the connection string required by go-sql-driver; database name must be specified, query parameters are not supported)
    "tlsDisable": "false|true", (defaults to false; if set to true, uses an unencrypted connection; otherwise, the following fields are mandatory)
    "tlsServerName": "serverName", (the domain name of the SQL server for TLS)
    "rootCertPath": "/path/server-ca.pem", (the root certificate of the SQL server for TLS)
    "clientCertPath": "/path/client-cert.pem", (the client certificate for TLS)
    "clientKeyPath": "/path/client-key.pem" (the client private key for TLS)
   }`

// SqlConfig holds the fields needed to connect to the bulletin board
// database and to configure TLS encryption of the connection.
type SqlConfig struct {
	// DataSourceName is the connection string as required by go-sql-driver:
	// "[username[:password]@][protocol[(address)]]/dbname".
	DataSourceName string `json:"dataSourceName"`
	// TLSDisable, if set to true, uses an unencrypted connection;
	// otherwise, the following fields are mandatory.
	TLSDisable     bool   `json:"tlsDisable"`
	TLSServerName  string `json:"tlsServerName"`
	RootCertPath   string `json:"rootCertPath"`
	ClientCertPath string `json:"clientCertPath"`
	ClientKeyPath  string `json:"clientKeyPath"`

	// tlsConfigIdentifier is the name under which the TLS configuration is
	// registered with go-sql-driver: a hash of the file path and contents.
	tlsConfigIdentifier string
}

// ParseSqlConfigFromFile parses the SQL configuration file at path (format
// described in SqlConfigFileDescription) and registers its TLS configuration
// with go-sql-driver.
func ParseSqlConfigFromFile(path string) (*SqlConfig, error) {
	configJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed reading SQL config file %q", path)
	}
	var config SqlConfig
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return nil, errors.Wrapf(err, "failed parsing SQL config file %q", path)
	}
	if config.DataSourceName == "" {
		return nil, errors.Errorf("SQL config file %q has no dataSourceName", path)
	}
	if !config.TLSDisable {
		rawHash := sha256.Sum256(append([]byte(path+":"), configJSON...))
		config.tlsConfigIdentifier = hex.EncodeToString(rawHash[:])
		if err := registerSqlTLSConfig(&config); err != nil {
			return nil, errors.Wrapf(err, "failed registering TLS config from %q", path)
		}
	}
	return &config, nil
}

// NewSqlDBConn opens a connection to the database described by config and
// checks that it is reachable. Board writes run with READ-COMMITTED
// isolation.
func NewSqlDBConn(config *SqlConfig) (*sql.DB, error) {
	dsn := dataSourceName(config, "READ-COMMITTED")
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening database connection at %q", config.DataSourceName)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed connecting to database at %q", config.DataSourceName)
	}
	return db, nil
}

func dataSourceName(config *SqlConfig, txIsolation string) string {
	params := url.Values{}
	// Setting charset is unnecessary when collation is set.
	params.Set("collation", "utf8mb4_general_ci")
	params.Set("parseTime", "true")
	params.Set("loc", "UTC")
	params.Set("time_zone", "'+00:00'")
	if !config.TLSDisable {
		params.Set("tls", config.tlsConfigIdentifier)
	}
	params.Set("transaction_isolation", "'"+txIsolation+"'")
	return config.DataSourceName + "?" + params.Encode()
}

func registerSqlTLSConfig(config *SqlConfig) error {
	rootCertPool := x509.NewCertPool()
	pem, err := os.ReadFile(config.RootCertPath)
	if err != nil {
		return errors.Wrap(err, "failed reading root certificate")
	}
	if ok := rootCertPool.AppendCertsFromPEM(pem); !ok {
		return errors.New("failed to append PEM to cert pool")
	}
	ckpair, err := tls.LoadX509KeyPair(config.ClientCertPath, config.ClientKeyPath)
	if err != nil {
		return errors.Wrap(err, "failed loading client key pair")
	}
	return mysql.RegisterTLSConfig(config.tlsConfigIdentifier, &tls.Config{
		RootCAs:      rootCertPool,
		Certificates: []tls.Certificate{ckpair},
		ServerName:   config.TLSServerName,
		MinVersion:   tls.VersionTLS12,
	})
}
