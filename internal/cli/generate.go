package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/config"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/repository/docrepo"
	"alcyxob/trainplan/internal/repository/mongo"
	"alcyxob/trainplan/internal/store"
	"alcyxob/trainplan/internal/store/memstore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	generateProgram     string
	generateConcurrency int
	generateForce       bool
	generateDryRun      bool
	generateConfigPath  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the 12-week plan of a program into the store",
	Long: `Generate every day and exercise of a program's 12-week plan.

With --dry-run the plan is written into an in-memory store and only the
summary is printed; no database connection is made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		if generateDryRun {
			return runDryRun(ctx, cmd.OutOrStdout(), log)
		}
		return runGenerate(ctx, cmd.OutOrStdout(), log)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateProgram, "program", "", "Program ID (hex)")
	generateCmd.Flags().IntVar(&generateConcurrency, "concurrency", 3, "Exercise writes in flight per day (1-5)")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "Generate even if the program already has days")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Write into an in-memory store instead of the database")
	generateCmd.Flags().StringVar(&generateConfigPath, "config", ".", "Directory containing config.yaml")
}

func parseProgramID() (primitive.ObjectID, error) {
	if generateProgram == "" {
		if generateDryRun {
			return primitive.NewObjectID(), nil
		}
		return primitive.NilObjectID, errors.New("--program is required")
	}
	id, err := primitive.ObjectIDFromHex(generateProgram)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid program id %q: %w", generateProgram, err)
	}
	return id, nil
}

func runDryRun(ctx context.Context, out io.Writer, log *logger.Logger) error {
	programID, err := parseProgramID()
	if err != nil {
		return err
	}
	cols := store.DefaultCollections()
	st := memstore.New()

	// No request quota to respect in memory.
	cfg := bulk.DefaultConfig()
	cfg.PaceEvery = 0
	m := metrics.NewManager("plangen", "dryrun", prometheus.NewRegistry())
	w := bulk.NewWriter(st, cfg, m, log)
	gen := planner.NewGenerator(w, cols, clock.RealClock{}, m, log)

	sum, err := gen.Generate(ctx, programID, planner.Options{
		Concurrency: generateConcurrency,
		Force:       generateForce,
		OnProgress:  progressPrinter(out),
	})
	if err := printSummary(out, sum, err); err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Fprintf(out, "Stored: %d days, %d exercises (in memory)\n",
			st.Count(cols.ProgramDays), st.Count(cols.ProgramExercises))
	}
	return err
}

func runGenerate(ctx context.Context, out io.Writer, log *logger.Logger) error {
	programID, err := parseProgramID()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(generateConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(client); err != nil {
			log.Warn("Failed to disconnect MongoDB", "error", err)
		}
	}()

	cols := cfg.Database.Collections
	st := mongo.NewDocumentStore(client.Database(cfg.Database.Name))
	programs := docrepo.NewProgramRepository(st, cols.Programs)
	if _, err := programs.GetByID(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("program %s not found", programID.Hex())
		}
		return err
	}

	m := metrics.NewManager("plangen", "cli", prometheus.NewRegistry())
	clk := clock.RealClock{}
	w := bulk.NewWriter(st, cfg.Writer.Config, m, log)
	gen := planner.NewGenerator(w, cols, clk, m, log)

	sum, genErr := gen.Generate(ctx, programID, planner.Options{
		Concurrency: generateConcurrency,
		Force:       generateForce,
		OnProgress:  progressPrinter(out),
	})
	if err := printSummary(out, sum, genErr); err != nil {
		return err
	}
	if genErr != nil {
		return genErr
	}
	return programs.MarkGenerated(ctx, programID, clk.Now())
}

// progressPrinter prints one line per stored day.
func progressPrinter(out io.Writer) func(planner.Progress) {
	if jsonOutput {
		return nil
	}
	return func(p planner.Progress) {
		if p.Phase == planner.PhaseDay {
			successColor.Fprintf(out, "[%2d/%d] ", p.Created, p.Total)
			fmt.Fprintln(out, p.Message)
		}
	}
}

func printSummary(out io.Writer, sum planner.Summary, genErr error) error {
	if jsonOutput {
		type result struct {
			planner.Summary
			Error string `json:"error,omitempty"`
		}
		r := result{Summary: sum}
		if genErr != nil {
			r.Error = genErr.Error()
		}
		return writeJSON(out, r)
	}

	switch {
	case genErr == nil:
		successColor.Fprintln(out, "Plan generated")
	case errors.Is(genErr, planner.ErrAlreadyGenerated):
		warnColor.Fprintln(out, "Program already has generated days; use --force to generate again")
	default:
		failColor.Fprintf(out, "Generation stopped: %v\n", genErr)
	}
	fmt.Fprintf(out, "Run:       %s\n", sum.RunID)
	fmt.Fprintf(out, "Days:      %d\n", sum.CreatedDays)
	fmt.Fprintf(out, "Exercises: %d\n", sum.CreatedExercises)
	fmt.Fprintf(out, "Retries:   %d\n", sum.Retries)
	if sum.Partial {
		warnColor.Fprintln(out, "Partial:   yes")
	}
	return nil
}
