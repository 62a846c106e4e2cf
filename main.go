// Package main is the entry point for the trust-boundary CLI.
//
// The CLI resolves, refreshes, and inspects credential trust boundaries
// with state tracking, and prints the request header downstream services
// enforce.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anirudhbiyani/trust-boundary/pkg/trustboundary"

	// Import credential variants to register them
	_ "github.com/anirudhbiyani/trust-boundary/pkg/credentials/gce"
	_ "github.com/anirudhbiyani/trust-boundary/pkg/credentials/static"
)

const (
	exitError           = 1
	exitValidationError = 2
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "lookup":
		return cmdLookup(ctx, cmdArgs, false)
	case "refresh":
		return cmdLookup(ctx, cmdArgs, true)
	case "header":
		return cmdHeader(ctx, cmdArgs)
	case "validate":
		return cmdValidate(ctx, cmdArgs)
	case "list":
		return cmdList(ctx, cmdArgs)
	case "describe":
		return cmdDescribe(ctx, cmdArgs)
	case "clear":
		return cmdClear(ctx, cmdArgs)
	case "providers":
		return cmdProviders(ctx, cmdArgs)
	case "version":
		return cmdVersion()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nRun 'trust-boundary help' for usage", cmd)
	}
}

func printUsage() {
	fmt.Println(`trust-boundary - Credential trust boundary resolution

Usage:
  trust-boundary <command> [options]

Commands:
  lookup      Resolve the trust boundary for a credential (cached when possible)
  refresh     Force a fresh trust boundary resolution
  header      Print the x-goog-allowed-resources header value for a credential
  validate    Run diagnostics on a credential's trust boundary configuration
  list        List resolved trust boundaries
  describe    Show details of a resolved trust boundary
  clear       Remove the stored record for a credential
  providers   List available credential variants and their capabilities
  version     Show version information
  help        Show this help message

Credential Options:
  --provider <name>        Credential variant (static, gce; default: static)
  --token <token>          Access token presented to the lookup endpoint
  --endpoint <url>         Trust boundary lookup endpoint (static variant)
  --service-account <sa>   Service account email (gce variant)

Common Options:
  --state <path>           State file path (default: ~/.trust-boundary/state.json)
  --output <format>        Output format: table, json (default: table)

Validate Options:
  --check <ids>            Comma-separated check IDs to run
  --timeout <duration>     Validation timeout (e.g., 30s, 1m)

Examples:
  # Resolve a trust boundary with an explicit token and endpoint
  trust-boundary lookup --provider static \
    --token "$TOKEN" \
    --endpoint https://iamcredentials.googleapis.com/v1/projects/-/serviceAccounts/sa@proj.iam.gserviceaccount.com/allowedLocations

  # On GCE, derive the endpoint from the metadata server
  trust-boundary lookup --provider gce --token "$TOKEN"

  # Print the enforcement header for outgoing requests
  trust-boundary header --provider static --token "$TOKEN" --endpoint "$URL"

  # Run diagnostics
  trust-boundary validate --provider static --endpoint "$URL"

  # List everything resolved so far
  trust-boundary list

For more information, visit: https://github.com/anirudhbiyani/trust-boundary`)
}

// credentialOpts holds the flags shared by credential-facing commands.
type credentialOpts struct {
	provider       string
	token          string
	endpoint       string
	serviceAccount string
	statePath      string
	output         string
	checkIDs       string
	timeout        time.Duration
}

func parseCredentialOpts(args []string) (*credentialOpts, error) {
	opts := &credentialOpts{
		statePath: trustboundary.DefaultRecordStorePath(),
		output:    "table",
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--provider":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--provider requires an argument")
			}
			opts.provider = args[i+1]
			i++
		case "--token":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--token requires an argument")
			}
			opts.token = args[i+1]
			i++
		case "--endpoint":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--endpoint requires an argument")
			}
			opts.endpoint = args[i+1]
			i++
		case "--service-account":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--service-account requires an argument")
			}
			opts.serviceAccount = args[i+1]
			i++
		case "--state":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--state requires a path argument")
			}
			opts.statePath = args[i+1]
			i++
		case "--output":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--output requires an argument")
			}
			opts.output = args[i+1]
			i++
		case "--check":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--check requires an argument")
			}
			opts.checkIDs = args[i+1]
			i++
		case "--timeout":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--timeout requires an argument")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("invalid timeout: %w", err)
			}
			opts.timeout = d
			i++
		default:
			return nil, fmt.Errorf("unknown option: %s", args[i])
		}
	}

	return opts, nil
}

// variantName returns the credential variant to use, defaulting to static.
func (o *credentialOpts) variantName() string {
	if o.provider == "" {
		return "static"
	}
	return o.provider
}

// providerConfig maps CLI flags to the factory configuration keys.
func (o *credentialOpts) providerConfig() map[string]interface{} {
	config := make(map[string]interface{})
	if o.token != "" {
		config["token"] = o.token
	}
	if o.endpoint != "" {
		config["endpoint"] = o.endpoint
	}
	if o.serviceAccount != "" {
		config["service_account"] = o.serviceAccount
	}
	return config
}

func newManager(opts *credentialOpts) (*trustboundary.Manager, error) {
	records, err := trustboundary.NewFileRecordStore(opts.statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	return trustboundary.NewManager(trustboundary.WithRecordStore(records)), nil
}

func cmdLookup(ctx context.Context, args []string, force bool) error {
	opts, err := parseCredentialOpts(args)
	if err != nil {
		return err
	}

	name := opts.variantName()
	if _, err := trustboundary.DefaultRegistry.GetOrCreate(ctx, name, opts.providerConfig()); err != nil {
		return err
	}

	manager, err := newManager(opts)
	if err != nil {
		return err
	}

	var record *trustboundary.BoundaryRecord
	if force {
		record, err = manager.Refresh(ctx, name)
	} else {
		record, err = manager.Resolve(ctx, name)
	}
	if err != nil {
		return err
	}

	switch opts.output {
	case "json":
		data, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(data))
	case "table":
		printRecord(record)
	default:
		return fmt.Errorf("unknown output format: %s", opts.output)
	}

	return nil
}

func cmdHeader(ctx context.Context, args []string) error {
	opts, err := parseCredentialOpts(args)
	if err != nil {
		return err
	}

	p, err := trustboundary.DefaultRegistry.GetOrCreate(ctx, opts.variantName(), opts.providerConfig())
	if err != nil {
		return err
	}

	info := p.TrustBoundaryInfo()
	if info.EncodedAllowedLocations() == "" {
		if err := p.RefreshTrustBoundary(ctx); err != nil {
			return err
		}
	}

	metadata := info.AddTrustBoundaryToRequestMetadata(nil)
	values, ok := metadata[trustboundary.AllowedLocationsHeader]
	if !ok {
		fmt.Println("No trust boundary is available for this credential")
		return nil
	}

	fmt.Printf("%s: %s\n", trustboundary.AllowedLocationsHeader, strings.Join(values, ", "))
	return nil
}

func cmdValidate(ctx context.Context, args []string) error {
	opts, err := parseCredentialOpts(args)
	if err != nil {
		return err
	}

	name := opts.variantName()
	if _, err := trustboundary.DefaultRegistry.GetOrCreate(ctx, name, opts.providerConfig()); err != nil {
		return err
	}

	manager, err := newManager(opts)
	if err != nil {
		return err
	}

	validateOpts := trustboundary.ValidateOptions{Timeout: opts.timeout}
	if opts.checkIDs != "" {
		validateOpts.CheckIDs = strings.Split(opts.checkIDs, ",")
	}

	report, err := manager.Validate(ctx, name, validateOpts)
	if err != nil {
		return err
	}

	if opts.output == "json" {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("=== Validation Report: %s ===\n", report.Provider)
		for _, check := range report.Checks {
			fmt.Printf("[%s] %s: %s\n", check.Status, check.Name, check.Description)
			if check.Status == trustboundary.CheckStatusFailed && check.Remediation != "" {
				fmt.Printf("  remediation: %s\n", check.Remediation)
			}
		}
		fmt.Printf("\n%d checks: %d passed, %d failed, %d skipped\n",
			report.Summary.TotalChecks,
			report.Summary.PassedChecks,
			report.Summary.FailedChecks,
			report.Summary.SkippedChecks,
		)
	}

	if !report.IsValid() {
		os.Exit(exitValidationError)
	}
	return nil
}

func cmdList(ctx context.Context, args []string) error {
	opts, err := parseCredentialOpts(args)
	if err != nil {
		return err
	}

	records, err := trustboundary.NewFileRecordStore(opts.statePath)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	all, err := records.List(ctx, trustboundary.RecordFilter{Provider: opts.provider})
	if err != nil {
		return fmt.Errorf("failed to list boundary records: %w", err)
	}

	if len(all) == 0 {
		fmt.Println("No trust boundaries resolved")
		return nil
	}

	switch opts.output {
	case "json":
		data, _ := json.MarshalIndent(all, "", "  ")
		fmt.Println(string(data))
	case "table":
		fmt.Printf("%-30s %-10s %-24s %s\n", "ID", "PROVIDER", "ENCODED", "RESOLVED")
		for _, record := range all {
			fmt.Printf("%-30s %-10s %-24s %s\n",
				truncate(record.ID, 30),
				record.Provider,
				truncate(record.EncodedLocations, 24),
				record.ResolvedAt.Format("2006-01-02 15:04:05"),
			)
		}
	default:
		return fmt.Errorf("unknown output format: %s", opts.output)
	}

	return nil
}

func cmdDescribe(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "--") {
		return fmt.Errorf("provider name required")
	}

	provider := args[0]
	opts, err := parseCredentialOpts(args[1:])
	if err != nil {
		return err
	}

	records, err := trustboundary.NewFileRecordStore(opts.statePath)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	record, err := records.Get(ctx, provider)
	if err != nil {
		return fmt.Errorf("boundary record not found: %w", err)
	}

	printRecord(record)
	return nil
}

func cmdClear(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "--") {
		return fmt.Errorf("provider name required")
	}

	provider := args[0]
	opts, err := parseCredentialOpts(args[1:])
	if err != nil {
		return err
	}

	records, err := trustboundary.NewFileRecordStore(opts.statePath)
	if err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	if err := records.Delete(ctx, provider); err != nil {
		return fmt.Errorf("failed to clear boundary record: %w", err)
	}

	if p, err := trustboundary.GetProvider(provider); err == nil {
		p.TrustBoundaryInfo().ClearCache()
	}

	fmt.Printf("Cleared trust boundary record for %s\n", provider)
	return nil
}

func cmdProviders(_ context.Context, _ []string) error {
	infos := trustboundary.DescribeProviders()

	fmt.Println("=== Available Credential Variants ===")

	if len(infos) == 0 {
		fmt.Println("No variants instantiated yet; registered factories: static, gce")
		return nil
	}

	fmt.Printf("%-10s %-50s %s\n", "NAME", "ENDPOINT", "CAPABILITIES")
	for _, info := range infos {
		caps := make([]string, 0, len(info.Capabilities))
		for _, c := range info.Capabilities {
			caps = append(caps, string(c))
		}

		endpoint := info.Endpoint
		if endpoint == "" {
			endpoint = "(not configured)"
		}

		fmt.Printf("%-10s %-50s %s\n", info.Name, truncate(endpoint, 50), strings.Join(caps, ", "))
	}

	return nil
}

func cmdVersion() error {
	fmt.Println("trust-boundary version 0.1.0")
	fmt.Println("  Core: lookup, caching, request metadata augmentation")
	fmt.Println("  Variants: static, gce")
	return nil
}

// Helper functions

func printRecord(record *trustboundary.BoundaryRecord) {
	fmt.Println("=== Trust Boundary ===")
	fmt.Printf("ID: %s\n", record.ID)
	fmt.Printf("Provider: %s\n", record.Provider)
	fmt.Printf("Endpoint: %s\n", record.Endpoint)
	fmt.Printf("Resolved: %s\n", record.ResolvedAt.Format(time.RFC3339))

	if len(record.Locations) > 0 {
		fmt.Println("\nAllowed locations:")
		for _, loc := range record.Locations {
			fmt.Printf("  %s\n", loc)
		}
	}
	if record.EncodedLocations != "" {
		fmt.Printf("\nEncoded: %s\n", record.EncodedLocations)
	}
	if len(record.Locations) == 0 && record.EncodedLocations == "" {
		fmt.Println("\nNo trust boundary is configured for this credential")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
