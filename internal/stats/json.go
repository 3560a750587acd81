// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NaN and ±Inf propagate from bad samples into the log; JSON has no
// literal for them, so they travel as the strings "NaN", "+Inf" and "-Inf".
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("stats: invalid number %q", s)
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type tripleJSON struct {
	Min    jsonFloat `json:"min"`
	Max    jsonFloat `json:"max"`
	StdDev jsonFloat `json:"std_dev"`
}

func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal(tripleJSON{Min: jsonFloat(t.Min), Max: jsonFloat(t.Max), StdDev: jsonFloat(t.StdDev)})
}

func (t *Triple) UnmarshalJSON(data []byte) error {
	var j tripleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Triple{Min: float64(j.Min), Max: float64(j.Max), StdDev: float64(j.StdDev)}
	return nil
}
