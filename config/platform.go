package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Platform int

const (
	PlatformUnknown Platform = iota
	PS2
	Xbox
)

func (p Platform) String() string {
	switch p {
	case PS2:
		return "ps2"
	case Xbox:
		return "xbox"
	default:
		return "unknown"
	}
}

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ps2", "ymp":
		return PS2, nil
	case "xbox", "x360", "ymxen":
		return Xbox, nil
	}
	return PlatformUnknown, errors.Errorf("Unknown platform %q", s)
}

func (p *Platform) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParsePlatform(value.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Platform) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
