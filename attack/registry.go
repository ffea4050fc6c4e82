package attack

import (
	"fmt"
	"sort"

	"github.com/tos-network/gmim/crypto/elgamal"
)

type constructor func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error)

var registry = map[string]constructor{
	"mim":      func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) { return NewMim(cs, cfg), nil },
	"hashmim":  func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) { return NewHashMim(cs, cfg), nil },
	"hashmim2": func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) { return NewCachedHashMim(cs, cfg), nil },
	"hashmim3": func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) { return NewChainedHashMim(cs, cfg), nil },
	"hashmim4": func(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) { return NewShortChainedHashMim(cs, cfg), nil },
	"diskmim":  newDiskAttack,
	"2table":   newTwoTableAttack,
}

func newDiskAttack(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) {
	a, err := NewDiskMim(cs, cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newTwoTableAttack(cs *elgamal.Cryptosystem, cfg Config) (Attack, error) {
	a, err := NewTwoTable(cs, cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Names returns the registered attack names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the named attack against cs.
func New(name string, cs *elgamal.Cryptosystem, cfg Config) (Attack, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttack, name)
	}
	if cs == nil {
		return nil, elgamal.ErrInvalidParams
	}
	if err := cfg.sanitize(); err != nil {
		return nil, err
	}
	return ctor(cs, cfg)
}
