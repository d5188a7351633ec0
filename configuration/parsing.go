// SPDX-License-Identifier: ISC
// Copyright (c) 2018-2020 Overlay Ledger Developers.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/overlay-ledger/overlayd/util"
)

// supported chains
const (
	Mainnet = "mainnet"
	Testnet = "testnet"
	Local   = "local"
)

// basic defaults (directories and files are relative to the
// "Data_directory" from the configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "overlayd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultSnapshotRetention = 50 // blocks of rewindability kept
)

// to hold log levels
type LoglevelMap map[string]string

var defaultLogLevels = LoglevelMap{
	logger.DefaultTag: "critical",
}

// DatabaseType - location of the per-subsystem leveldb directories
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
}

// NodeType - connection to the primary chain node
type NodeType struct {
	Address  string `gluamapper:"address" json:"address"`
	Username string `gluamapper:"username" json:"username"`
	Password string `gluamapper:"password" json:"password"`
}

// Configuration - the daemon's configuration
type Configuration struct {
	DataDirectory     string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile           string               `gluamapper:"pidfile" json:"pidfile"`
	Chain             string               `gluamapper:"chain" json:"chain"`
	Database          DatabaseType         `gluamapper:"database" json:"database"`
	Node              NodeType             `gluamapper:"node" json:"node"`
	SnapshotRetention int                  `gluamapper:"snapshot_retention" json:"snapshot_retention"`
	Logging           logger.Configuration `gluamapper:"logging" json:"logging"`
}

// ValidChain - check a chain name is supported
func ValidChain(chain string) bool {
	switch chain {
	case Mainnet, Testnet, Local:
		return true
	default:
		return false
	}
}

// GetConfiguration - read, decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {
	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		Chain:         Mainnet,

		Database: DatabaseType{
			Directory: defaultDatabaseDirectory,
		},

		SnapshotRetention: defaultSnapshotRetention,

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	options.Chain = strings.ToLower(options.Chain)
	if !ValidChain(options.Chain) {
		return nil, fmt.Errorf("chain: %q is not supported", options.Chain)
	}

	if options.SnapshotRetention <= 0 {
		return nil, fmt.Errorf("snapshot_retention: %d must be positive", options.SnapshotRetention)
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	// and create the directories if they do not already exist
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
		if err := os.MkdirAll(*f, 0700); nil != err {
			return nil, err
		}
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	return options, nil
}
