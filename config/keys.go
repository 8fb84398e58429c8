package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"reflect"
	"regexp"

	"gopkg.in/yaml.v3"
)

var unknownFieldRE = regexp.MustCompile(`field (\S+) not found`)

// UnknownKeys returns the yaml keys present in configFile that have no
// counterpart in the cfg struct. Operator typos in a config file must be
// reported, not masked, so the loader logs every returned key.
func UnknownKeys(configFile string, cfg interface{}) []string {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil
	}
	t := reflect.TypeOf(cfg)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil
	}

	// Decode into a throwaway value of the same type so the strict pass
	// cannot disturb values cleanenv already filled in.
	fresh := reflect.New(t.Elem()).Interface()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(fresh)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil
	}
	var keys []string
	for _, msg := range typeErr.Errors {
		if m := unknownFieldRE.FindStringSubmatch(msg); m != nil {
			keys = append(keys, m[1])
		}
	}
	return keys
}
