package mqttlink

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hapbridge/hap-go/pkg/devices"
)

// encodeValue renders a domain value as a JSON scalar.
func encodeValue(v any) ([]byte, error) {
	if p, ok := v.(devices.Payload); ok {
		v = p.Value()
	}
	return json.Marshal(v)
}

// decodeValue parses a state payload into a domain value of dataType.
func decodeValue(dataType devices.DataType, payload []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		raw = strings.TrimSpace(string(payload))
	}
	if raw == nil {
		return nil, nil
	}

	switch {
	case dataType == devices.DataTypeSwitch, dataType == devices.DataTypeButton, dataType == devices.DataTypeCover:
		s := strings.ToLower(devices.Stringify(raw))
		p, ok := devices.PayloadFor(dataType, s)
		if !ok {
			return nil, fmt.Errorf("invalid %s payload %q", dataType, s)
		}
		return p, nil

	case dataType == devices.DataTypeBool:
		return decodeBool(raw)

	case dataType == devices.DataTypeFloat:
		return decodeFloat(raw)

	case dataType.IsNumeric():
		f, err := decodeFloat(raw)
		if err != nil {
			return nil, err
		}
		return int(math.Round(f)), nil

	default:
		return devices.Stringify(raw), nil
	}
}

func decodeBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(v) {
		case "on", "true", "1":
			return true, nil
		case "off", "false", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("invalid bool payload %v", raw)
}

func decodeFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number payload %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("invalid number payload %v", raw)
}
