package schema

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces unique identifiers for detached schemes and for
// fields tagged `generator:<name>`. Implementations must be safe for
// concurrent use.
type IDGenerator interface {
	Generate() (any, error)
	Type() string
}

// UUIDGenerator produces RFC 4122 random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate uuid: %w", err)
	}
	return id, nil
}

func (UUIDGenerator) Type() string { return "uuid" }

// ULIDGenerator produces lexicographically sortable ids; monotonic entropy
// keeps same-millisecond ids ordered.
type ULIDGenerator struct {
	entropy *ulid.MonotonicEntropy
	mu      sync.Mutex
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("generate ulid: %w", err)
	}
	return id, nil
}

func (g *ULIDGenerator) Type() string { return "ulid" }

// SnowflakeGenerator packs timestamp(41) | machine(10) | sequence(12) into
// an int64, for installations that want integer external ids.
type SnowflakeGenerator struct {
	machineID uint64
	sequence  uint64
	lastTime  uint64
	epoch     uint64
	mu        sync.Mutex
}

func NewSnowflakeGenerator(machineID uint64) *SnowflakeGenerator {
	return &SnowflakeGenerator{
		machineID: machineID & 0x3FF,
		epoch:     uint64(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}
}

func (g *SnowflakeGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := uint64(time.Now().UnixMilli())
	if now < g.lastTime {
		return nil, fmt.Errorf("clock moved backwards: now=%d, last=%d", now, g.lastTime)
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & 0xFFF
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = uint64(time.Now().UnixMilli())
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return int64(((now - g.epoch) << 22) | (g.machineID << 12) | g.sequence), nil
}

func (g *SnowflakeGenerator) Type() string { return "snowflake" }

// GeneratorRegistry maps generator names to implementations. The package
// default carries "uuid", "ulid", and "snowflake" (machine id 1).
type GeneratorRegistry struct {
	generators map[string]IDGenerator
	mu         sync.RWMutex
}

var defaultRegistry = NewGeneratorRegistry()

func NewGeneratorRegistry() *GeneratorRegistry {
	r := &GeneratorRegistry{generators: make(map[string]IDGenerator)}
	r.Register("uuid", UUIDGenerator{})
	r.Register("ulid", NewULIDGenerator())
	r.Register("snowflake", NewSnowflakeGenerator(1))
	return r
}

func (r *GeneratorRegistry) Register(name string, g IDGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
}

func (r *GeneratorRegistry) Get(name string) (IDGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	return g, ok
}

func (r *GeneratorRegistry) Generate(name string) (any, error) {
	g, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown generator type: %s", name)
	}
	return g.Generate()
}

// RegisterGenerator adds a generator to the default registry.
func RegisterGenerator(name string, g IDGenerator) { defaultRegistry.Register(name, g) }

// GenerateID produces an id from the default registry, e.g.
// GenerateID("uuid").
func GenerateID(name string) (any, error) { return defaultRegistry.Generate(name) }

// WithGenerator installs the named registry generator as the field's
// default, so absent values at create time are filled with fresh ids.
func (f *Field) WithGenerator(name string) *Field {
	f.Default = func() (any, error) { return GenerateID(name) }
	return f
}
