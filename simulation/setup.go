/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package simulation

import (
	"io"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/superkkt/ofsim/config"
	"github.com/superkkt/ofsim/controller"
	"github.com/superkkt/ofsim/log"
)

const syslogPrefix = "ofsim"

func initLog(conf *config.Config) (logging.LeveledBackend, error) {
	backend := log.NewStderr()
	if conf.Syslog {
		var err error
		if backend, err = log.NewSyslog(syslogPrefix); err != nil {
			return nil, errors.Wrap(err, "initializing the syslog backend")
		}
	}

	return log.Init(log.ParseLevel(conf.LogLevel), backend), nil
}

// NewFromFile reads the configuration file at path and creates a network with
// it. Changes of default.log_level in the file are applied while running.
func NewFromFile(path string, handler controller.Handler, out io.Writer) (*Network, error) {
	conf, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	network, err := New(conf, handler, out)
	if err != nil {
		return nil, err
	}
	if err := conf.WatchLogLevel(network.SetLogLevel); err != nil {
		return nil, errors.Wrap(err, "watching the config file")
	}

	return network, nil
}

// SetLogLevel changes the level of every logger. An unknown level name falls
// back to the default level.
func (r *Network) SetLogLevel(level string) {
	r.logBackend.SetLevel(log.ParseLevel(level), "")
	logger.Infof("log level is changed to %v", level)
}
