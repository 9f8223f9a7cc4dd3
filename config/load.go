package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load populates Config from the environment, falling back to the
// env-default tag when a variable is unset or empty.
func Load() (*Config, error) {
	cfg := &Config{}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		raw := os.Getenv(key)
		if raw == "" {
			raw = field.Tag.Get("env-default")
		}
		if raw == "" {
			continue
		}

		if err := setField(v.Field(i), raw); err != nil {
			return nil, fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
	}

	return cfg, nil
}

func setField(f reflect.Value, raw string) error {
	// time.Duration before the generic int64 case
	if f.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", f.Type())
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		f.Set(reflect.ValueOf(out))
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}
