package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mazeswarm-dev/mazeswarm"
	"github.com/mazeswarm-dev/mazeswarm/internal/grid"
	"github.com/mazeswarm-dev/mazeswarm/internal/swarm"
)

// Version information (set via ldflags)
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mazeswarm",
		Short: "Decentralized maze exploration by a swarm of gossiping agents",
		Long: `mazeswarm runs a fixed-size swarm of agents that jointly explore a
maze grid. Agents share discoveries and divide work purely through
MERGE and CLAIM gossip; there is no central coordinator.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newSizeCmd(), newAnalyzeCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Printf("Starting mazeswarm v%s", Version)
			log.Printf("Config: %s", configFile)
			return mazeswarm.Run(configFile)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", getEnv("CONFIG_FILE", "config/maze.yaml"), "simulation configuration file")
	return cmd
}

func newSizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Print the swarm size computed for the configured maze",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, g, err := loadGrid(cmd)
			if err != nil {
				return err
			}

			size := config.Swarm.Size
			if size == 0 {
				size, err = swarm.Size(g.Rows(), g.Cols(), g.WallDensity())
				if err != nil {
					return err
				}
			}

			cmd.Printf("grid: %dx%d (%d cells, %.0f%% walls)\n",
				g.Rows(), g.Cols(), g.TotalCells(), g.WallDensity()*100)
			cmd.Printf("swarm size: %d\n", size)
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", getEnv("CONFIG_FILE", "config/maze.yaml"), "simulation configuration file")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the maze's branching structure toward the goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, err := loadGrid(cmd)
			if err != nil {
				return err
			}

			a := g.Analyze()
			cmd.Printf("goal reachable: %v\n", a.GoalReachable)
			cmd.Printf("branch walkers needed: %d\n", a.TotalAgents)
			cmd.Printf("peak parallel walkers: %d\n", a.PeakParallel)
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", getEnv("CONFIG_FILE", "config/maze.yaml"), "simulation configuration file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mazeswarm version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("mazeswarm v%s\n", Version)
		},
	}
}

func loadGrid(cmd *cobra.Command) (*mazeswarm.Config, *grid.Grid, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	loader := mazeswarm.NewConfigLoader(&mazeswarm.OSFileReader{})
	config, err := loader.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}

	g, err := config.BuildGrid()
	if err != nil {
		return nil, nil, err
	}
	return config, g, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
