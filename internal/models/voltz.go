/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// VoltzScale is the number of decimal places kept in a Voltz amount.
const VoltzScale = 3

// Voltz is an amount of the platform currency in milli-Voltz. All balance
// arithmetic is done on this integer; decimals only appear at the edges.
type Voltz int64

// NewVoltz returns whole Voltz as milli-Voltz
func NewVoltz(whole int64) Voltz {
	return Voltz(whole * 1000)
}

// ParseVoltz parses a human amount such as "12.5" into milli-Voltz.
func ParseVoltz(s string) (Voltz, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid voltz amount %q: %w", s, err)
	}
	return VoltzFromDecimal(d)
}

// VoltzFromDecimal converts d to milli-Voltz, rejecting sub-milli precision
func VoltzFromDecimal(d decimal.Decimal) (Voltz, error) {
	minor := d.Shift(VoltzScale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), VoltzScale)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return Voltz(minor.IntPart()), nil
}

func (v Voltz) Decimal() decimal.Decimal {
	return decimal.New(int64(v), -VoltzScale)
}

func (v Voltz) String() string {
	return v.Decimal().String()
}

func (v Voltz) IsPositive() bool {
	return v > 0
}

// MarshalJSON writes the amount as a decimal string, e.g. "12.5"
func (v Voltz) MarshalJSON() ([]byte, error) {
	return v.Decimal().MarshalJSON()
}

func (v *Voltz) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := VoltzFromDecimal(d)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
