package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parcelops/fleetsim/config"
	"github.com/parcelops/fleetsim/core/kpi"
	"github.com/parcelops/fleetsim/core/sim"
	infragraph "github.com/parcelops/fleetsim/infra/graph"
	"github.com/parcelops/fleetsim/infra/logger"
	"github.com/parcelops/fleetsim/pkg/export"
)

var (
	runAgents   int
	runPackages int
	runMap      string
	runSeed     int64
	runMaxTicks int
	runExport   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation headless to completion",
	RunE:  runHeadless,
}

func init() {
	runCmd.Flags().IntVar(&runAgents, "agents", 0, "number of agents (overrides config)")
	runCmd.Flags().IntVar(&runPackages, "packages", 0, "number of packages (overrides config)")
	runCmd.Flags().StringVar(&runMap, "map", "", "map descriptor (grid:COLSxROWS or file:PATH)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "deterministic seed (0 = random)")
	runCmd.Flags().IntVar(&runMaxTicks, "max-ticks", 100000, "abort after this many ticks")
	runCmd.Flags().StringVar(&runExport, "export", "", "write the final report to a .json or .csv file")
	rootCmd.AddCommand(runCmd)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	log := logger.New("run")

	simCfg := sim.Config{}
	mapLocation := ""
	if cfg, err := config.Load(cfgPath); err == nil {
		simCfg = cfg.Sim.Runtime()
		mapLocation = cfg.Sim.MapLocation
	} else {
		log.Warnf("no config loaded (%v), using defaults", err)
	}
	if runAgents > 0 {
		simCfg.AgentCount = runAgents
	}
	if runPackages > 0 {
		simCfg.PackageCount = runPackages
	}
	if runSeed != 0 {
		simCfg.Seed = runSeed
	}
	if runMap != "" {
		mapLocation = runMap
	}
	if simCfg.RunID == "" {
		simCfg.RunID = uuid.NewString()
	}

	provider, err := infragraph.Build(mapLocation)
	if err != nil {
		return fmt.Errorf("build map: %w", err)
	}

	kpis := kpi.NewMemoryStore()
	engine, err := sim.NewEngine(provider, simCfg, log, nil, nil, kpis)
	if err != nil {
		return fmt.Errorf("seed run: %w", err)
	}

	st, err := engine.RunToCompletion(runMaxTicks)
	if err != nil {
		return fmt.Errorf("run failed at tick %d: %w", st.Tick, err)
	}
	log.Infof("run %s finished: %d/%d delivered in %d ticks", st.RunID, st.CompletedCount, st.TotalCount, st.Tick)

	snap := engine.Snapshot()
	var agents []kpi.Record
	for _, a := range snap.Agents {
		recs, err := kpis.Query(a.ID)
		if err != nil {
			return fmt.Errorf("kpi query: %w", err)
		}
		agents = append(agents, recs...)
	}
	report := export.FromSnapshot(snap, agents)

	if runExport == "" {
		return export.WriteJSON(cmd.OutOrStdout(), report)
	}
	f, err := os.Create(runExport)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()
	switch strings.ToLower(filepath.Ext(runExport)) {
	case ".csv":
		err = export.WriteCSV(f, report)
	case ".json":
		err = export.WriteJSON(f, report)
	default:
		return fmt.Errorf("unsupported export format: %s", runExport)
	}
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	log.Infof("report written to %s", runExport)
	return nil
}
