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

// Package console provides the colored prompt and line-oriented command
// executor used by the interactive administrative console. Color handling
// wraps fatih/color; escape sequences are advisory and ignored by terminals
// that don't understand them.
package console

import (
	"github.com/fatih/color"

	libatm "github.com/sabouaram/appserver/atomic"
)

// ColorType identifies a named color scheme (prompt, output, warnings, ...).
type ColorType uint8

const (
	ColorPrint ColorType = iota
	ColorPrompt
	ColorWarn
)

var lst = libatm.NewMapTyped[ColorType, color.Color]()

// SetColor configures the color attributes used for a ColorType.
func SetColor(id ColorType, value ...color.Attribute) {
	a := color.New(value...)
	if a == nil {
		lst.Store(id, color.Color{})
	} else {
		lst.Store(id, *a)
	}
}

// GetColor returns the color.Color for id, or an uncolored default.
func GetColor(id ColorType) *color.Color {
	if v, ok := lst.Load(id); ok {
		return &v
	}
	return &color.Color{}
}

func (c ColorType) Print(text string) {
	_, _ = GetColor(c).Print(text)
}

func (c ColorType) Println(text string) {
	_, _ = GetColor(c).Println(text)
}

func (c ColorType) Printf(format string, args ...interface{}) {
	_, _ = GetColor(c).Printf(format, args...)
}
