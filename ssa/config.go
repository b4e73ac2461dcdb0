// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the knobs of the superblock pass.
type Config struct {
	// Debug is the verbosity of diagnostic output; 0 prints nothing.
	//   1: fired prediction rules, traces and duplicated blocks
	//   2: loop nests, use rewrites
	//   3: every branch record
	Debug int `yaml:"debug"`

	// Stats enables per-function statistics through Func.LogStat.
	Stats bool `yaml:"stats"`

	// Disabled lists heuristics, by name, that must not fire.
	// See Heuristic.String for the names.
	Disabled []string `yaml:"disable"`

	// Logger receives debug output. Nil means standard output.
	Logger Logger `yaml:"-"`
}

// Logger is the sink for diagnostic output.
type Logger interface {
	// Logf logs a message from the pass.
	Logf(string, ...any)
	// Warnl logs a diagnostic attached to block b of function fn.
	Warnl(fn string, b *Block, msg string)
}

type stdoutLogger struct {
	w io.Writer
}

func (l stdoutLogger) Logf(msg string, args ...any) {
	fmt.Fprintf(l.w, msg, args...)
	if !strings.HasSuffix(msg, "\n") {
		fmt.Fprintln(l.w)
	}
}

func (l stdoutLogger) Warnl(fn string, b *Block, msg string) {
	fmt.Fprintf(l.w, "%s:%s: %s\n", fn, b, msg)
}

func (c *Config) logger() Logger {
	if c == nil || c.Logger == nil {
		return stdoutLogger{os.Stdout}
	}
	return c.Logger
}

func (c *Config) debug() int {
	if c == nil {
		return 0
	}
	return c.Debug
}

// enabled reports whether heuristic h may fire.
func (c *Config) enabled(h Heuristic) bool {
	if c == nil {
		return true
	}
	for _, name := range c.Disabled {
		if name == h.String() {
			return false
		}
	}
	return true
}

// LoadConfig decodes a YAML pass configuration, e.g.
//
//	debug: 1
//	stats: true
//	disable: [guard]
func LoadConfig(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode superblock config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Debug < 0 {
		return errors.Errorf("debug level %d is negative", c.Debug)
	}
	for _, name := range c.Disabled {
		if _, ok := heuristicByName(name); !ok {
			return errors.Errorf("unknown heuristic %q", name)
		}
	}
	return nil
}

// ParseDebug applies a compiler-style debug flag to c, in the form
// accepted by -d=ssa/<pass>/<flag>:
//
//	superblock/debug=2
//	superblock/stats
//	superblock/disable=guard
//
// Several settings may be separated by commas.
func (c *Config) ParseDebug(flag string) error {
	for _, item := range strings.Split(flag, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.TrimPrefix(item, "ssa/")
		item = strings.TrimPrefix(item, "superblock/")
		name, val, hasVal := strings.Cut(item, "=")
		switch name {
		case "debug":
			n := 1
			if hasVal {
				var err error
				n, err = strconv.Atoi(val)
				if err != nil {
					return errors.Wrapf(err, "bad value for debug flag %q", item)
				}
			}
			c.Debug = n
		case "stats":
			c.Stats = !hasVal || val != "0"
		case "disable":
			if !hasVal {
				return errors.Errorf("disable flag needs a heuristic name")
			}
			c.Disabled = append(c.Disabled, val)
		default:
			return errors.Errorf("unknown superblock debug flag %q", name)
		}
	}
	return c.validate()
}
