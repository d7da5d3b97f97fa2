/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package config loads the process-wide configuration record (§3 Config,
// §6 External Interfaces) from a ".env"-style file via spf13/viper and
// validates it with go-playground/validator/v10, the same pairing
// nabbar-golib/httpserver.ServerConfig relies on for its `validate:"..."`
// struct tags.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	liberr "github.com/sabouaram/appserver/errors"
)

// Record holds every field the core actually reads (§3). Booleans are
// parsed by the "true"/"1" rule of §6 rather than Go's strconv.ParseBool:
// only those two spellings count as true, everything else is false.
type Record struct {
	Port                  int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	DefaultRequestHandler bool   `mapstructure:"default_request_handler"`
	HTMLRouting           bool   `mapstructure:"html_routing"`
	Cache                 bool   `mapstructure:"cache"`
	CacheSizeKB           int    `mapstructure:"cache_size_kb" validate:"min=0"`
	CustomDefaultHandler  string `mapstructure:"custom_default_handler"`
	DebugMode             bool   `mapstructure:"debug_mode"`
}

var validate = validator.New()

// Load reads path (typically "./.env") via viper's env-file support and
// returns a validated Record. Configuration file loading mechanics are
// explicitly out of scope (§1 Non-goals) beyond needing a populated record
// to exist; this is the minimal mechanism that supplies one.
func Load(path string) (*Record, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("custom_default_handler", "none")

	if err := v.ReadInConfig(); err != nil {
		return nil, liberr.New(liberr.CodeConfig, "reading configuration", err)
	}

	rec := &Record{
		Port:                  v.GetInt("port"),
		DefaultRequestHandler: parseBool(v.GetString("default_request_handler")),
		HTMLRouting:           parseBool(v.GetString("html_routing")),
		Cache:                 parseBool(v.GetString("cache")),
		CacheSizeKB:           v.GetInt("cache_size_kb"),
		CustomDefaultHandler:  v.GetString("custom_default_handler"),
		DebugMode:             parseBool(v.GetString("debug_mode")),
	}
	if rec.CustomDefaultHandler == "" {
		rec.CustomDefaultHandler = "none"
	}

	if err := validate.Struct(rec); err != nil {
		return nil, liberr.New(liberr.CodeConfig, "validating configuration", err)
	}

	return rec, nil
}

// parseBool implements §6's boolean parsing rule: "true" or "1" is true,
// anything else (including unset) is false.
func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return s == "true" || s == "1"
}

// CacheMaxBytes resolves cache_size_kb into the LRU's max_bytes ceiling
// (§9 Open Questions: bytes = value * 1024).
func (r *Record) CacheMaxBytes() int {
	return r.CacheSizeKB * 1024
}
