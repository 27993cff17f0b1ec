// Package main is a thin demonstration driver over the reasoner façade:
// it loads a small family-relationships ontology as Go-literal axiom
// calls (no surface syntax parsing), preprocesses it, and prints
// consistency, subsumption, and instance-checking results.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitrdm/dlreasoner/pkg/reasoner"
)

var (
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "dlreasoner-demo",
	Short: "A small demonstration driver for the description-logic reasoner",
	Long: `dlreasoner-demo loads a fixed family-relationships ontology directly
via the reasoner façade's Go API and prints the results of a handful of
standard DL queries against it. It does not parse OWL, Manchester
syntax, or any other on-disk ontology format — see the "classify"
subcommand for the only entry point this driver offers.`,
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Load the sample ontology, preprocess it, and print the classification",
	RunE:  runClassify,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level reasoner logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-query timeout (0 disables)")
	rootCmd.AddCommand(classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	config := reasoner.DefaultConfig()
	config.Logger = log
	if timeout > 0 {
		config.TestTimeout = int(timeout / time.Millisecond)
	}
	r := reasoner.NewReasoner(config)

	person := r.Concept("Person")
	parent := r.Concept("Parent")
	human := r.Concept("Human")
	female := r.Concept("Female")
	mother := r.Concept("Mother")
	hasChild := r.Role("hasChild", false)

	r.ConceptInclusion(parent, person)
	r.ConceptInclusion(human, person)
	r.ConceptInclusion(female, person)
	r.ConceptEquivalence(mother, r.ConjoinConcepts(parent, female))
	r.RoleDomain(hasChild, person)
	r.RoleRange(hasChild, person)

	alice := r.Individual("alice")
	bob := r.Individual("bob")
	r.ClassAssertion(alice, mother)
	r.RoleAssertion(hasChild, alice, bob)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := r.Preprocess(ctx); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}

	consistent, err := r.IsConsistent(ctx)
	if err != nil {
		return fmt.Errorf("consistency check: %w", err)
	}
	fmt.Printf("knowledge base consistent: %v\n", consistent)

	subsumed, err := r.IsSubsumedBy(ctx, mother, person)
	if err != nil {
		return fmt.Errorf("subsumption check: %w", err)
	}
	fmt.Printf("Mother subsumed by Person: %v\n", subsumed)

	types, err := r.Types(ctx, alice)
	if err != nil {
		return fmt.Errorf("instance check: %w", err)
	}
	fmt.Println("alice's provable types:")
	for _, t := range types {
		fmt.Printf("  - %s\n", r.ConceptName(t))
	}

	fmt.Println("alice's hasChild fillers:")
	for _, filler := range r.RoleFillers(alice, hasChild) {
		fmt.Printf("  - %s\n", r.IndividualName(filler))
	}

	return nil
}
