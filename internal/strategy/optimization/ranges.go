package optimization

import (
	"fmt"
	"strconv"
	"strings"

	"etfRotationBot/internal/ports"
)

var intParams = map[string]bool{
	ParamMediumMAPeriod: true,
	ParamLongMAPeriod:   true,
	ParamROCPeriod:      true,
}

// ParseRange parses "name=min:max:step". Period parameters are integer ranges.
func ParseRange(s string) (ParameterRange, error) {
	name, bounds, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || name == "" {
		return ParameterRange{}, fmt.Errorf("%w: parameter range %q must look like name=min:max:step", ports.ErrInvalidRequest, s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) != 3 {
		return ParameterRange{}, fmt.Errorf("%w: parameter range %q must look like name=min:max:step", ports.ErrInvalidRequest, s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ParameterRange{}, fmt.Errorf("%w: parameter range %q: %v", ports.ErrInvalidRequest, s, err)
		}
		vals[i] = v
	}
	r := ParameterRange{Name: name, Min: vals[0], Max: vals[1], Step: vals[2], IsInt: intParams[name]}
	if r.Step <= 0 || r.Max < r.Min {
		return ParameterRange{}, fmt.Errorf("%w: parameter range %q needs min <= max and a positive step", ports.ErrInvalidRequest, s)
	}
	return r, nil
}
