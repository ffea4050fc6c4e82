package attack

import (
	"fmt"
	"path/filepath"

	"github.com/tos-network/gmim/metrics"
)

// Config contains the parameters shared by all attack variants.
type Config struct {
	Bits1 uint // table covers d1 in [1, 2^Bits1]
	Bits2 uint // cracks search d2 in [1, 2^Bits2]

	// MaxResults caps the candidates returned per ciphertext, zero for all.
	MaxResults int

	// HashBits is the width of the truncated hash keying the hash tables.
	HashBits uint

	// TableDir holds exponentiation caches and persisted tables unless
	// CachePath or TablePath name them explicitly.
	TableDir  string `toml:",omitempty"`
	CachePath string `toml:",omitempty"`
	TablePath string `toml:",omitempty"`

	// ForceRebuild rebuilds persisted tables even if a matching one exists.
	ForceRebuild bool

	DatabaseCache   int // MB of leveldb cache
	DatabaseHandles int

	// VerifyCacheSize is the number of d1^q values memoized for candidate
	// verification in the hash variants, zero to disable.
	VerifyCacheSize int

	// Timing controls the build and sort timings logged by the variants.
	// It is taken from the metrics section of the configuration.
	Timing metrics.Config `toml:"-"`
}

// DefaultConfig contains the default attack settings.
var DefaultConfig = Config{
	Bits1:           16,
	Bits2:           16,
	HashBits:        32,
	DatabaseCache:   256,
	DatabaseHandles: 256,
	VerifyCacheSize: 4096,
	Timing:          metrics.DefaultConfig,
}

// SetMessageBits splits a message bit budget evenly between both halves.
func (c *Config) SetMessageBits(bits uint) {
	c.Bits1 = bits / 2
	c.Bits2 = bits / 2
}

func (c *Config) sanitize() error {
	if c.Bits1 == 0 || c.Bits2 == 0 || c.Bits1 > 40 || c.Bits2 > 40 {
		return fmt.Errorf("%w: bits1 %d, bits2 %d", ErrInvalidBits, c.Bits1, c.Bits2)
	}
	if c.HashBits == 0 || c.HashBits > 32 {
		return fmt.Errorf("%w: hash bits %d", ErrInvalidBits, c.HashBits)
	}
	if c.MaxResults < 0 {
		c.MaxResults = 0
	}
	return nil
}

// cachePath resolves the exponentiation cache file of a variant, empty if
// caching is disabled.
func (c *Config) cachePath(name string) string {
	if c.CachePath != "" {
		return c.CachePath
	}
	if c.TableDir == "" {
		return ""
	}
	return filepath.Join(c.TableDir, fmt.Sprintf("%s-%d.cache", name, c.Bits1))
}

// tablePath resolves the persisted table location.
func (c *Config) tablePath(name string) string {
	if c.TablePath != "" {
		return c.TablePath
	}
	if c.TableDir == "" {
		return ""
	}
	return filepath.Join(c.TableDir, fmt.Sprintf("%s-%d-%d", name, c.Bits1, c.HashBits))
}
