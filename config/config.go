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

// Package config reads the simulator configuration file.
package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var logger = logging.MustGetLogger("config")

const (
	maxBodyRoom = 0xFFFF
)

type Config struct {
	LogLevel string
	// Send logs to the local syslog daemon instead of stderr.
	Syslog   bool
	Buffer   struct {
		BodyRoom   int
		HeadRoom   int
		NumBuffers int
	}
	Channel struct {
		Delay  float64
		Jitter float64
	}
	Controller struct {
		PendingSize  int
		EchoInterval float64
	}
	Relay struct {
		Print bool
	}
	Simulation struct {
		Duration float64
	}

	viper *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default.log_level", "info")
	v.SetDefault("default.syslog", false)
	v.SetDefault("buffer.body_room", 2048)
	v.SetDefault("buffer.head_room", 64)
	v.SetDefault("buffer.num_buffers", 256)
	v.SetDefault("channel.delay", 0.001)
	v.SetDefault("channel.jitter", 0)
	v.SetDefault("controller.pending_size", 1024)
	v.SetDefault("controller.echo_interval", 5)
	v.SetDefault("relay.print", true)
	v.SetDefault("simulation.duration", 60)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	c := &Config{viper: v}
	c.load()
	if err := c.validate(); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}

	return c
}

// Read loads a YAML configuration file. Missing keys take their defaults.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	// Read the config file.
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read the config file")
	}

	c := &Config{viper: v}
	c.load()
	if err := c.validate(); err != nil {
		return nil, errors.Wrap(err, "failed to validate the configuration")
	}

	return c, nil
}

func (r *Config) load() {
	r.LogLevel = r.viper.GetString("default.log_level")
	r.Syslog = r.viper.GetBool("default.syslog")
	r.Buffer.BodyRoom = r.viper.GetInt("buffer.body_room")
	r.Buffer.HeadRoom = r.viper.GetInt("buffer.head_room")
	r.Buffer.NumBuffers = r.viper.GetInt("buffer.num_buffers")
	r.Channel.Delay = r.viper.GetFloat64("channel.delay")
	r.Channel.Jitter = r.viper.GetFloat64("channel.jitter")
	r.Controller.PendingSize = r.viper.GetInt("controller.pending_size")
	r.Controller.EchoInterval = r.viper.GetFloat64("controller.echo_interval")
	r.Relay.Print = r.viper.GetBool("relay.print")
	r.Simulation.Duration = r.viper.GetFloat64("simulation.duration")
}

func (r *Config) validate() error {
	if len(r.LogLevel) == 0 {
		return errors.New("invalid default.log_level")
	}
	if r.Buffer.BodyRoom <= 0 || r.Buffer.BodyRoom > maxBodyRoom {
		return errors.New("invalid buffer.body_room")
	}
	if r.Buffer.HeadRoom < 0 {
		return errors.New("invalid buffer.head_room")
	}
	if r.Buffer.NumBuffers < 0 {
		return errors.New("invalid buffer.num_buffers")
	}
	if r.Channel.Delay < 0 {
		return errors.New("invalid channel.delay")
	}
	if r.Channel.Jitter < 0 {
		return errors.New("invalid channel.jitter")
	}
	if r.Controller.PendingSize <= 0 {
		return errors.New("invalid controller.pending_size")
	}
	if r.Controller.EchoInterval < 0 {
		return errors.New("invalid controller.echo_interval")
	}
	if r.Simulation.Duration <= 0 {
		return errors.New("invalid simulation.duration")
	}

	return nil
}

// WatchLogLevel calls f with default.log_level whenever the config file is
// rewritten. Only the log level is reloaded at runtime. It returns an error
// for a configuration that was not read from a file.
func (r *Config) WatchLogLevel(f func(level string)) error {
	if f == nil {
		panic("nil watch function")
	}
	if len(r.viper.ConfigFileUsed()) == 0 {
		return errors.New("no config file to watch")
	}

	// Watching and re-reading config file whenever it changes.
	r.viper.OnConfigChange(func(e fsnotify.Event) {
		// Only a WRITE brings new content. Other operations are ignored.
		if e.Op != fsnotify.Write {
			return
		}

		level := r.viper.GetString("default.log_level")
		logger.Infof("config file %v changed: default.log_level=%v", e.Name, level)
		f(level)
	})
	r.viper.WatchConfig()

	return nil
}
