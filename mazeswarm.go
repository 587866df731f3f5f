// Package mazeswarm wires a maze grid, a fixed-size swarm of exploring
// agents, and a gossip channel into a runnable simulation.
package mazeswarm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mazeswarm-dev/mazeswarm/comms"
	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
	"github.com/mazeswarm-dev/mazeswarm/internal/observability"
	"github.com/mazeswarm-dev/mazeswarm/internal/sim"
	"github.com/mazeswarm-dev/mazeswarm/internal/swarm"
	pkgobs "github.com/mazeswarm-dev/mazeswarm/pkg/observability"
	"github.com/mazeswarm-dev/mazeswarm/pkg/security"
)

// Config represents the top-level configuration
type Config struct {
	Maze          MazeConfig          `yaml:"maze"`
	Swarm         SwarmConfig         `yaml:"swarm,omitempty"`
	Simulation    SimulationConfig    `yaml:"simulation,omitempty"`
	Channel       ChannelConfig       `yaml:"channel,omitempty"`
	Observability ObservabilityConfig `yaml:"observability,omitempty"`
}

// MazeConfig describes the maze grid.
type MazeConfig struct {
	// Rows encodes the maze one string per row, '0' for open and '1' for
	// wall. All rows must have the same length.
	Rows []string `yaml:"rows"`

	Start Position `yaml:"start"`
	Goal  Position `yaml:"goal"`
}

// Position is a row/column pair in config form.
type Position struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Coord converts the config position to a grid coordinate.
func (p Position) Coord() grid.Coord {
	return grid.Coord{Row: p.Row, Col: p.Col}
}

// SwarmConfig controls swarm sizing.
type SwarmConfig struct {
	// Size overrides the computed swarm size when positive.
	// Default: 0 (derive from grid dimensions and wall density).
	Size int `yaml:"size,omitempty"`
}

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	// MaxTicks is the tick budget. Default: sim.DefaultMaxTicks.
	MaxTicks int `yaml:"max_ticks,omitempty"`

	// TickRate paces the loop to at most this many ticks per second.
	// Default: 0 (unpaced).
	TickRate float64 `yaml:"tick_rate,omitempty"`

	// EventLog is a file path for JSONL progress events.
	// Default: "" (events go to the standard logger only).
	EventLog string `yaml:"event_log,omitempty"`
}

// ChannelConfig selects and tunes the gossip transport.
type ChannelConfig struct {
	// Backend is "local" or "redis". Default: "local".
	Backend string `yaml:"backend,omitempty"`

	// LossRate is the probability in [0,1] that the local backend drops a
	// message, for resilience experiments.
	LossRate float64 `yaml:"loss_rate,omitempty"`

	// DupRate is the probability in [0,1] that the local backend delivers
	// a message twice.
	DupRate float64 `yaml:"dup_rate,omitempty"`

	// Seed drives the local backend's loss/duplication randomness.
	Seed int64 `yaml:"seed,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the Redis channel backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// ObservabilityConfig configures the metrics/health HTTP server.
type ObservabilityConfig struct {
	// Port serves /metrics and /health when positive. Default: 0 (off).
	Port int `yaml:"port,omitempty"`
}

// FileReader interface for reading files (testable)
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFileReader implements FileReader using os.ReadFile
type OSFileReader struct{}

func (r *OSFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 - path is from trusted config file input
}

// ConfigLoader loads configuration from a file
type ConfigLoader struct {
	fileReader FileReader
	yamlParser *security.SafeYAMLParser
}

// NewConfigLoader creates a new config loader with default security limits
func NewConfigLoader(fr FileReader) *ConfigLoader {
	return &ConfigLoader{
		fileReader: fr,
		yamlParser: security.NewSafeYAMLParser(security.DefaultYAMLLimits()),
	}
}

// LoadConfig loads, parses, and validates a config file
func (cl *ConfigLoader) LoadConfig(configPath string) (*Config, error) {
	data, err := cl.fileReader.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := cl.yamlParser.UnmarshalYAML(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the parts of the config that BuildGrid cannot.
func (c *Config) Validate() error {
	if len(c.Maze.Rows) == 0 {
		return errors.New("config: maze.rows must not be empty")
	}
	switch c.Channel.Backend {
	case "", "local", "redis":
	default:
		return fmt.Errorf("config: unknown channel backend %q", c.Channel.Backend)
	}
	if c.Channel.Backend == "redis" && c.Channel.Redis.Addr == "" {
		return errors.New("config: channel.redis.addr is required for the redis backend")
	}
	if c.Channel.LossRate < 0 || c.Channel.LossRate > 1 {
		return fmt.Errorf("config: channel.loss_rate %v outside [0,1]", c.Channel.LossRate)
	}
	if c.Channel.DupRate < 0 || c.Channel.DupRate > 1 {
		return fmt.Errorf("config: channel.dup_rate %v outside [0,1]", c.Channel.DupRate)
	}
	if c.Simulation.MaxTicks < 0 {
		return fmt.Errorf("config: simulation.max_ticks must not be negative, got %d", c.Simulation.MaxTicks)
	}
	if c.Swarm.Size < 0 {
		return fmt.Errorf("config: swarm.size must not be negative, got %d", c.Swarm.Size)
	}
	return nil
}

// BuildGrid converts the maze config into a grid.
func (c *Config) BuildGrid() (*grid.Grid, error) {
	matrix := make([][]int, len(c.Maze.Rows))
	for r, row := range c.Maze.Rows {
		matrix[r] = make([]int, len(row))
		for i, ch := range row {
			switch ch {
			case '0':
				matrix[r][i] = 0
			case '1':
				matrix[r][i] = 1
			default:
				return nil, fmt.Errorf("config: maze row %d has character %q, want '0' or '1'", r, ch)
			}
		}
	}
	return grid.Parse(matrix, c.Maze.Start.Coord(), c.Maze.Goal.Coord())
}

// buildChannel creates the configured gossip transport. The returned close
// function is a no-op for the local backend.
func (c *Config) buildChannel() (comms.Channel, func() error, error) {
	switch c.Channel.Backend {
	case "", "local":
		var opts []comms.LocalOption
		if c.Channel.LossRate > 0 {
			opts = append(opts, comms.WithLossRate(c.Channel.LossRate))
		}
		if c.Channel.DupRate > 0 {
			opts = append(opts, comms.WithDupRate(c.Channel.DupRate))
		}
		if c.Channel.Seed != 0 {
			opts = append(opts, comms.WithSeed(c.Channel.Seed))
		}
		return comms.NewLocalChannel(opts...), func() error { return nil }, nil

	case "redis":
		ch, err := comms.NewRedisChannel(comms.RedisConfig{
			Addr:     c.Channel.Redis.Addr,
			Password: c.Channel.Redis.Password,
			DB:       c.Channel.Redis.DB,
			Prefix:   c.Channel.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect channel backend: %w", err)
		}
		pkgobs.GetHealthChecker().RegisterCheck(pkgobs.ChannelCheck(ch.Ping))
		return ch, ch.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown channel backend %q", c.Channel.Backend)
	}
}

// Run starts a simulation from a config file and blocks until it finishes
// or the process is interrupted.
func Run(configPath string) error {
	// Initialize observability from environment variables
	if err := observability.InitFromEnv(); err != nil {
		log.Printf("Warning: Failed to initialize observability: %v", err)
		// Continue even if observability fails
	}

	loader := NewConfigLoader(&OSFileReader{})
	config, err := loader.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = RunWithConfig(ctx, config)

	if shutdownErr := observability.Shutdown(context.Background()); shutdownErr != nil {
		log.Printf("Warning: Failed to shutdown observability: %v", shutdownErr)
	}
	return err
}

// RunWithConfig runs a simulation with the provided config and returns its
// final summary. The observability server, when enabled, lives exactly as
// long as the simulation.
func RunWithConfig(ctx context.Context, config *Config) (*sim.SimulationComplete, error) {
	g, err := config.BuildGrid()
	if err != nil {
		return nil, err
	}

	size := config.Swarm.Size
	if size == 0 {
		size, err = swarm.Size(g.Rows(), g.Cols(), g.WallDensity())
		if err != nil {
			return nil, err
		}
	}

	pkgobs.InitMetrics()
	checker := pkgobs.InitHealthChecker()
	checker.RegisterCheck(pkgobs.PingCheck())

	ch, closeCh, err := config.buildChannel()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := closeCh(); err != nil {
			log.Printf("Warning: Failed to close channel: %v", err)
		}
	}()

	agents, err := swarm.Spawn(g, size, ch)
	if err != nil {
		return nil, err
	}

	sinks := sim.MultiSink{sim.LogSink{}}
	if config.Simulation.EventLog != "" {
		f, err := os.Create(config.Simulation.EventLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("Warning: Failed to close event log: %v", err)
			}
		}()
		sinks = append(sinks, sim.NewJSONLSink(f))
	}

	opts := []sim.Option{sim.WithSink(sinks)}
	if config.Simulation.MaxTicks > 0 {
		opts = append(opts, sim.WithMaxTicks(config.Simulation.MaxTicks))
	}
	if config.Simulation.TickRate > 0 {
		opts = append(opts, sim.WithTickRate(config.Simulation.TickRate))
	}
	driver := sim.NewDriver(g, agents, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)

	var server *pkgobs.Server
	if config.Observability.Port > 0 {
		server = pkgobs.NewServer(config.Observability.Port)
		group.Go(func() error {
			log.Printf("Observability server listening on :%d", config.Observability.Port)
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("observability server: %w", err)
			}
			return nil
		})
	}

	var summary *sim.SimulationComplete
	group.Go(func() error {
		defer func() {
			if server != nil {
				if err := server.Shutdown(context.Background()); err != nil {
					log.Printf("Warning: Failed to shutdown observability server: %v", err)
				}
			}
		}()
		s, err := driver.Run(groupCtx)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
